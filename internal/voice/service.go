package voice

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"vocalprep/internal/audio"
	"vocalprep/internal/layout"
	"vocalprep/internal/logging"
	"vocalprep/internal/services"
)

// Stem is one written stem of a segment.
type Stem struct {
	Name string
	audio.Asset
}

// Decoder loads a segment file. A zero targetRate keeps the stored rate.
type Decoder interface {
	Load(ctx context.Context, path string, targetRate int) (audio.Buffer, error)
}

// Service applies a Model to segment files.
type Service struct {
	model   Model
	decoder Decoder
	timeout time.Duration
	logger  *slog.Logger
}

// NewService creates a voice separation adapter. timeout bounds each model
// call; zero means no limit.
func NewService(model Model, decoder Decoder, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		model:   model,
		decoder: decoder,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "voice"),
	}
}

// SeparateVoices separates one segment file and writes each stem into outDir
// as {segment}_{stem}.wav. It returns the written stems by name; failures are
// logged and yield fewer or no stems.
func (s *Service) SeparateVoices(ctx context.Context, segmentPath, outDir string) map[string]audio.Asset {
	logger := logging.WithContext(ctx, s.logger)
	buf, err := s.decoder.Load(ctx, segmentPath, 0)
	if err != nil {
		logging.WarnWithContext(logger, "failed to load segment", "voice_load_failed",
			logging.String("segment_path", segmentPath),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no stems for this segment; other segments continue"),
		)
		return map[string]audio.Asset{}
	}

	callCtx, cancel := services.WithTimeout(ctx, s.timeout)
	defer cancel()
	tensors, err := s.model.Separate(callCtx, buf)
	if err != nil {
		logging.WarnWithContext(logger, "voice separation failed", "voice_model_failed",
			logging.String("segment_path", segmentPath),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run umx manually on the segment to see the full error"),
			logging.String(logging.FieldImpact, "no stems for this segment; other segments continue"),
		)
		return map[string]audio.Asset{}
	}
	if err := layout.EnsureDir(outDir); err != nil {
		logging.WarnWithContext(logger, "failed to create stem directory", "voice_dir_failed",
			logging.String("dir", outDir),
			logging.Error(err),
		)
		return map[string]audio.Asset{}
	}

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make(map[string]audio.Asset, len(names))
	for _, name := range names {
		stemLogger := logger.With(logging.String(logging.FieldStem, name))
		stemBuf, err := tensors[name].ToBuffer(buf.SampleRate)
		if err != nil {
			logging.WarnWithContext(stemLogger, "stem has unexpected shape", "voice_unexpected_shape",
				logging.Any("shape", tensors[name].Shape),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the model returned a layout other than [C,N], [1,C,N] or [N]"),
				logging.String(logging.FieldImpact, "stem skipped; sibling stems continue"),
			)
			continue
		}
		target := filepath.Join(outDir, layout.StemName(segmentPath, name))
		if err := audio.WriteWAV(target, stemBuf); err != nil {
			logging.WarnWithContext(stemLogger, "failed to write stem", "voice_write_failed",
				logging.String("path", target),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stem skipped; sibling stems continue"),
			)
			continue
		}
		written[name] = audio.AssetFor(target, stemBuf)
	}
	logger.Debug("voice separation complete",
		logging.String("segment_path", segmentPath),
		logging.Int("stems", len(written)),
	)
	return written
}

// Sorted returns stems ordered by name.
func Sorted(stems map[string]audio.Asset) []Stem {
	out := make([]Stem, 0, len(stems))
	for name, asset := range stems {
		out = append(out, Stem{Name: name, Asset: asset})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
