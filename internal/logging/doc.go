// Package logging assembles structured slog loggers and formatting helpers used
// across vocalprep.
//
// It owns the console and JSON handlers, the PHASE level used for pipeline
// transitions, and context helpers that tag log lines with run IDs, input
// names, phases, and segment indexes. Color is resolved once when the logger
// is built (auto, always, or never) so handlers carry no global state. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
