// Package services defines shared utilities consumed by the pipeline phases
// and the external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, phase names, input names, and
//     segment indexes for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (timeout, decode, external tool) for run history.
//   - The CommandRunner abstraction that makes external tool execution
//     testable, with timeout-aware error reporting.
//
// Use these helpers when wiring new adapter logic so failure handling and
// observability stay uniform across the pipeline.
package services
