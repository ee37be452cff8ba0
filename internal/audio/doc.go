// Package audio holds the in-memory waveform types exchanged between the
// pipeline phases and the WAV codec used to persist them.
//
// Buffers are channel-major float32 samples in [-1, 1]. Files are written as
// 16-bit PCM WAV. Inputs that the native decoder cannot read (other codecs,
// float WAV, unexpected sample rates) are routed through a Converter, which in
// production is the ffmpeg transcoder.
package audio
