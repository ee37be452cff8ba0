// Package journal persists processing run history in SQLite.
//
// Every ProcessingRun gets one row in runs, created when the run starts and
// finalized with its terminal status, counts and error. Each phase transition
// adds a row to run_phases so `vocalprep runs show` can explain where a run
// stopped. Rows left in the running status by a killed process are marked
// interrupted by the next batch that takes the lock on the same output root.
//
// Schema changes are append-only SQL files under migrations/; each one is
// applied once and recorded in schema_migrations.
package journal
