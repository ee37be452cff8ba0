// Package main hosts the vocalprep CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, builds the slog logger,
// and wires the pipeline toolchain for the batch, watch, and enhance
// commands. Read-only commands (doctor, runs) inspect the same
// configuration and the sqlite run journal without touching any audio.
//
// Keep this package lean: processing logic belongs in internal/pipeline and
// internal/batch; commands here only translate flags and render results.
package main
