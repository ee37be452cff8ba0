package testsupport

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"vocalprep/internal/audio"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size of zero creates an empty file.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// Tone builds a 440 Hz sine buffer of the given length.
func Tone(sampleRate, channels int, seconds float64) audio.Buffer {
	frames := int(math.Round(seconds * float64(sampleRate)))
	buf := audio.Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for c := range buf.Channels {
		data := make([]float32, frames)
		for i := range data {
			data[i] = float32(0.25 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		}
		buf.Channels[c] = data
	}
	return buf
}

// WriteTone writes a sine WAV fixture and returns its path.
func WriteTone(t testing.TB, path string, sampleRate, channels int, seconds float64) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := audio.WriteWAV(path, Tone(sampleRate, channels, seconds)); err != nil {
		t.Fatalf("write tone %s: %v", path, err)
	}
	return path
}

// WriteFloatWAV writes buf as an IEEE float WAV (format 3) with the 18-byte
// fmt chunk and fact chunk that torch-based tools emit. bits is 32 or 64.
func WriteFloatWAV(t testing.TB, path string, buf audio.Buffer, bits int) string {
	t.Helper()

	channels, frames := buf.NumChannels(), buf.Frames()
	width := bits / 8
	dataSize := frames * channels * width

	var out bytes.Buffer
	le := func(v any) {
		if err := binary.Write(&out, binary.LittleEndian, v); err != nil {
			t.Fatalf("encode float wav: %v", err)
		}
	}
	out.WriteString("RIFF")
	le(uint32(4 + (8 + 18) + (8 + 4) + (8 + dataSize)))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	le(uint32(18))
	le(uint16(3))
	le(uint16(channels))
	le(uint32(buf.SampleRate))
	le(uint32(buf.SampleRate * channels * width))
	le(uint16(channels * width))
	le(uint16(bits))
	le(uint16(0))
	out.WriteString("fact")
	le(uint32(4))
	le(uint32(frames))
	out.WriteString("data")
	le(uint32(dataSize))
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			if bits == 64 {
				le(float64(buf.Channels[c][i]))
			} else {
				le(buf.Channels[c][i])
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("write float wav %s: %v", path, err)
	}
	return path
}
