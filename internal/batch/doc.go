// Package batch drives the pipeline over every recording in an input
// directory.
//
// A batch discovers candidate files by extension, converts anything that is
// not already WAV with ffmpeg, then hands each file to the orchestrator one at
// a time. A failure in one file never stops the batch; the Report collects
// per-run outcomes and decides the process exit code. A flock on the output
// root keeps two batches from writing the same phase directories.
package batch
