// Package stage defines the readiness contract shared by the phase adapters.
//
// Each adapter that shells out to a model tool (demucs, umx, voicefixer)
// reports a Health record so the doctor command can show which phases are
// able to run before a batch is started.
package stage
