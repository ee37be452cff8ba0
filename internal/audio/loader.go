package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vocalprep/internal/services"
)

// Converter rewrites any media file as 16-bit PCM WAV. A zero sampleRate or
// channels keeps the source value.
type Converter interface {
	ToPCM(ctx context.Context, input, output string, sampleRate, channels int) error
}

// Loader decodes audio files, falling back to a Converter for anything the
// native WAV decoder rejects or for a sample rate that must change.
type Loader struct {
	converter Converter
	tempDir   string
}

// NewLoader creates a loader. converter may be nil, in which case only PCM
// WAV at the requested rate can be loaded.
func NewLoader(converter Converter, tempDir string) *Loader {
	return &Loader{converter: converter, tempDir: tempDir}
}

// Load decodes path. A positive targetRate forces that sample rate; zero
// keeps the file's native rate.
func (l *Loader) Load(ctx context.Context, path string, targetRate int) (Buffer, error) {
	return l.load(ctx, path, targetRate, 0)
}

// LoadMono decodes path as a single channel. When conversion is needed the
// converter downmixes, so multichannel containers the native decoder rejects
// (5.1 stored as WAVE_FORMAT_EXTENSIBLE, for one) still load.
func (l *Loader) LoadMono(ctx context.Context, path string, targetRate int) (Buffer, error) {
	buf, err := l.load(ctx, path, targetRate, 1)
	if err != nil {
		return Buffer{}, err
	}
	return buf.Mono(), nil
}

func (l *Loader) load(ctx context.Context, path string, targetRate, channels int) (Buffer, error) {
	if _, err := os.Stat(path); err != nil {
		return Buffer{}, services.Wrap(services.ErrNotFound, "", "load", path, err)
	}

	buf, err := ReadWAV(path)
	if err == nil && (targetRate <= 0 || buf.SampleRate == targetRate) {
		return buf, nil
	}
	if err != nil && !errors.Is(err, services.ErrDecode) {
		return Buffer{}, err
	}
	if l == nil || l.converter == nil {
		if err != nil {
			return Buffer{}, err
		}
		return Buffer{}, services.Wrap(services.ErrDecode, "", "load", fmt.Sprintf("%s: sample rate %d requires a converter", path, buf.SampleRate), nil)
	}

	tmp, cleanup, tmpErr := l.tempFile(path)
	if tmpErr != nil {
		return Buffer{}, tmpErr
	}
	defer cleanup()

	if convErr := l.converter.ToPCM(ctx, path, tmp, targetRate, channels); convErr != nil {
		return Buffer{}, services.Wrap(services.ErrDecode, "", "load", path+": conversion failed", convErr)
	}
	return ReadWAV(tmp)
}

func (l *Loader) tempFile(source string) (string, func(), error) {
	dir, err := os.MkdirTemp(l.tempDir, "vocalprep-load-")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(dir, base+".wav"), func() { _ = os.RemoveAll(dir) }, nil
}
