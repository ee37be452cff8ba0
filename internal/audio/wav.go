package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"vocalprep/internal/services"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
	outputDepth    = 16
)

// ReadWAV decodes an integer PCM or IEEE float WAV file into a channel-major
// buffer. Missing files are tagged ErrNotFound; empty, truncated, or
// otherwise encoded files are tagged ErrDecode.
func ReadWAV(path string) (Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Buffer{}, services.Wrap(services.ErrNotFound, "", "read wav", path, err)
		}
		return Buffer{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return Buffer{}, services.Wrap(services.ErrDecode, "", "read wav", path+": not a valid wav file", decoder.Err())
	}
	switch decoder.WavAudioFormat {
	case wavFormatPCM:
	case wavFormatFloat:
		return readFloatWAV(path, decoder)
	default:
		return Buffer{}, services.Wrap(services.ErrDecode, "", "read wav", fmt.Sprintf("%s: unsupported wav format %d", path, decoder.WavAudioFormat), nil)
	}
	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return Buffer{}, services.Wrap(services.ErrDecode, "", "read wav", path, err)
	}
	channels := int(decoder.NumChans)
	if channels <= 0 || decoder.SampleRate == 0 {
		return Buffer{}, services.Wrap(services.ErrDecode, "", "read wav", path+": missing format header", nil)
	}
	return fromInterleaved(pcm.Data, channels, int(decoder.SampleRate), int(decoder.BitDepth)), nil
}

// readFloatWAV decodes 32- or 64-bit little-endian IEEE float samples, the
// format torch-based separators write.
func readFloatWAV(path string, decoder *wav.Decoder) (Buffer, error) {
	channels, sampleRate := int(decoder.NumChans), int(decoder.SampleRate)
	width := int(decoder.BitDepth) / 8
	if channels <= 0 || sampleRate <= 0 {
		return Buffer{}, services.Wrap(services.ErrDecode, "", "read wav", path+": missing format header", nil)
	}
	if width != 4 && width != 8 {
		return Buffer{}, services.Wrap(services.ErrDecode, "", "read wav", fmt.Sprintf("%s: unsupported float depth %d", path, decoder.BitDepth), nil)
	}
	if err := decoder.FwdToPCM(); err != nil {
		return Buffer{}, services.Wrap(services.ErrDecode, "", "read wav", path, err)
	}
	raw := make([]byte, decoder.PCMLen())
	if _, err := io.ReadFull(decoder.PCMChunk, raw); err != nil {
		return Buffer{}, services.Wrap(services.ErrDecode, "", "read wav", path+": truncated data chunk", err)
	}

	frameBytes := channels * width
	frames := len(raw) / frameBytes
	buf := Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := i*frameBytes + c*width
			if width == 4 {
				buf.Channels[c][i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
			} else {
				buf.Channels[c][i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[off:])))
			}
		}
	}
	return buf, nil
}

// WriteWAV encodes the buffer as 16-bit PCM. Samples outside [-1, 1] are
// clipped. The parent directory must already exist.
func WriteWAV(path string, buf Buffer) error {
	channels := buf.NumChannels()
	if channels == 0 {
		return services.Wrap(services.ErrValidation, "", "write wav", path+": buffer has no channels", nil)
	}
	if buf.SampleRate <= 0 {
		return services.Wrap(services.ErrValidation, "", "write wav", path+": sample rate must be positive", nil)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	encoder := wav.NewEncoder(file, buf.SampleRate, outputDepth, channels, wavFormatPCM)
	intBuf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: buf.SampleRate},
		Data:           toInterleaved(buf, outputDepth),
		SourceBitDepth: outputDepth,
	}
	if err := encoder.Write(intBuf); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return file.Close()
}

// Describe reads the WAV header of path and reports it as an Asset.
func Describe(path string) (Asset, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Asset{}, services.Wrap(services.ErrNotFound, "", "describe", path, err)
		}
		return Asset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return Asset{}, services.Wrap(services.ErrDecode, "", "describe", path+": not a valid wav file", decoder.Err())
	}
	if err := decoder.FwdToPCM(); err != nil {
		return Asset{}, services.Wrap(services.ErrDecode, "", "describe", path, err)
	}
	frameBytes := int64(decoder.NumChans) * int64(decoder.BitDepth/8)
	if frameBytes <= 0 {
		return Asset{}, services.Wrap(services.ErrDecode, "", "describe", path+": missing format header", nil)
	}
	return Asset{
		Path:       filepath.Clean(path),
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		Duration:   FramesToDuration(int(decoder.PCMLen()/frameBytes), int(decoder.SampleRate)),
	}, nil
}

// AssetFor builds an Asset from an in-memory buffer that was written to path.
func AssetFor(path string, buf Buffer) Asset {
	return Asset{
		Path:       path,
		SampleRate: buf.SampleRate,
		Channels:   buf.NumChannels(),
		Duration:   buf.Duration(),
	}
}

func fromInterleaved(data []int, channels, sampleRate, bitDepth int) Buffer {
	frames := len(data) / channels
	buf := Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float32, frames)
	}
	scale, offset := pcmScale(bitDepth)
	for i := 0; i < frames; i++ {
		base := i * channels
		for c := 0; c < channels; c++ {
			buf.Channels[c][i] = float32(float64(data[base+c]-offset) / scale)
		}
	}
	return buf
}

func toInterleaved(buf Buffer, bitDepth int) []int {
	channels, frames := buf.NumChannels(), buf.Frames()
	out := make([]int, frames*channels)
	maxValue := math.Pow(2, float64(bitDepth-1)) - 1
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			sample := float64(buf.Channels[c][i])
			if sample > 1 {
				sample = 1
			} else if sample < -1 {
				sample = -1
			}
			out[i*channels+c] = int(math.Round(sample * maxValue))
		}
	}
	return out
}

// pcmScale returns the divisor and zero offset for integer PCM at bitDepth.
// 8-bit WAV is unsigned; every other depth is signed.
func pcmScale(bitDepth int) (float64, int) {
	switch bitDepth {
	case 8:
		return 128, 128
	case 24:
		return 1 << 23, 0
	case 32:
		return 1 << 31, 0
	default:
		return 1 << 15, 0
	}
}
