// Package voice isolates voices and instruments in segment files.
//
// A Model maps a waveform to named tensors. The production model drives the
// Open-Unmix `umx` CLI through temporary WAV files. Service loads a segment
// at its stored sample rate, normalizes every returned tensor to a
// channel-major layout and writes each stem as its own WAV file. A stem with
// an unexpected shape is skipped with a warning; a failed load or model call
// yields no stems for that segment.
package voice
