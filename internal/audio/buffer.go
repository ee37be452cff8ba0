package audio

import (
	"time"
)

// Buffer is a channel-major waveform. Every channel holds the same number of
// frames.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// NumChannels returns the channel count.
func (b Buffer) NumChannels() int {
	return len(b.Channels)
}

// Frames returns the number of samples per channel.
func (b Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length of the buffer.
func (b Buffer) Duration() time.Duration {
	return FramesToDuration(b.Frames(), b.SampleRate)
}

// Mono averages all channels into one.
func (b Buffer) Mono() Buffer {
	if len(b.Channels) <= 1 {
		return b
	}
	frames := b.Frames()
	out := make([]float32, frames)
	scale := 1 / float32(len(b.Channels))
	for _, ch := range b.Channels {
		for i := 0; i < frames && i < len(ch); i++ {
			out[i] += ch[i] * scale
		}
	}
	return Buffer{SampleRate: b.SampleRate, Channels: [][]float32{out}}
}

// Slice returns frames [start, end) of every channel. Bounds are clamped to
// the buffer. The returned buffer shares memory with b.
func (b Buffer) Slice(start, end int) Buffer {
	frames := b.Frames()
	if start < 0 {
		start = 0
	}
	if end > frames {
		end = frames
	}
	if start > end {
		start = end
	}
	out := Buffer{SampleRate: b.SampleRate, Channels: make([][]float32, len(b.Channels))}
	for i, ch := range b.Channels {
		out.Channels[i] = ch[start:end]
	}
	return out
}

// FramesToDuration converts a frame count at sampleRate to a duration.
func FramesToDuration(frames, sampleRate int) time.Duration {
	if sampleRate <= 0 || frames <= 0 {
		return 0
	}
	return time.Duration(int64(frames) * int64(time.Second) / int64(sampleRate))
}

// Asset describes an audio file on disk.
type Asset struct {
	Path       string
	SampleRate int
	Channels   int
	Duration   time.Duration
}
