// Package enhance restores separated stems and applies the exciter filter.
//
// Restoration drives the VoiceFixer CLI and writes {base}_enhanced.wav. The
// exciter runs an ffmpeg filter graph over a file and writes {base}_final.wav.
// Both are exposed on their own; Process composes them for a list of files.
// Every failure here is per file and never stops the next file.
package enhance
