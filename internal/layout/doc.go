// Package layout names the phase hand-off directories and the files written
// into them.
//
// Every phase reads from one directory and writes into another. Layout
// resolves those directories for a single processing run, either scoped under
// a per-input run key or flat under the output root, and creates them
// idempotently before a phase starts writing.
package layout
