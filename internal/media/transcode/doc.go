// Package transcode drives ffmpeg for format normalization and filtering.
//
// ToPCM rewrites any input ffmpeg can decode as 16-bit PCM WAV at a chosen
// sample rate and channel count. ApplyFilter runs an audio filter graph.
// Output is written beside the target under a .partial name and renamed into
// place only after ffmpeg succeeds, so readers never see a half-written file.
package transcode
