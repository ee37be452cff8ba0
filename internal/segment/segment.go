package segment

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"vocalprep/internal/audio"
	"vocalprep/internal/layout"
	"vocalprep/internal/logging"
	"vocalprep/internal/services"
)

// TargetSampleRate is the rate every recording is loaded at before splitting.
const TargetSampleRate = 44100

// Bounds is one planned chunk in samples. Index is 0-based.
type Bounds struct {
	Index int
	Start int
	End   int
}

// Frames returns the chunk length in samples.
func (b Bounds) Frames() int {
	return b.End - b.Start
}

// Plan returns ceil(totalSamples / (segmentSeconds*sampleRate)) contiguous
// bounds. Non-positive inputs yield nil.
func Plan(totalSamples, sampleRate, segmentSeconds int) []Bounds {
	if totalSamples <= 0 || sampleRate <= 0 || segmentSeconds <= 0 {
		return nil
	}
	step := segmentSeconds * sampleRate
	count := (totalSamples + step - 1) / step
	bounds := make([]Bounds, 0, count)
	for i := 0; i < count; i++ {
		start := i * step
		end := min(start+step, totalSamples)
		bounds = append(bounds, Bounds{Index: i, Start: start, End: end})
	}
	return bounds
}

// Segment is a written chunk of a parent recording.
type Segment struct {
	audio.Asset
	// Index is the 1-based position used in the file name.
	Index int
	Start time.Duration
}

// Decoder loads a recording as mono at a target sample rate.
type Decoder interface {
	LoadMono(ctx context.Context, path string, targetRate int) (audio.Buffer, error)
}

// Segmenter writes fixed-duration mono chunks of a recording.
type Segmenter struct {
	decoder Decoder
	logger  *slog.Logger
}

// New creates a segmenter that loads recordings through decoder.
func New(decoder Decoder, logger *slog.Logger) *Segmenter {
	return &Segmenter{
		decoder: decoder,
		logger:  logging.NewComponentLogger(logger, "segmenter"),
	}
}

// Split writes input as segmentSeconds-long mono chunks into outDir and
// returns them in index order. Load failures and empty recordings return
// nil. A chunk that fails to write is logged and left out; the rest are still
// produced.
func (s *Segmenter) Split(ctx context.Context, input string, segmentSeconds int, outDir string) []Segment {
	logger := logging.WithContext(ctx, s.logger)
	if segmentSeconds <= 0 {
		logging.ErrorWithContext(logger, "segment duration must be positive", "segment_invalid_duration",
			logging.String("input", input),
			logging.Int("segment_seconds", segmentSeconds),
			logging.String(logging.FieldErrorHint, "set pipeline.segment_duration to a positive number of seconds"),
		)
		return nil
	}

	mono, err := s.decoder.LoadMono(ctx, input, TargetSampleRate)
	if err != nil {
		logging.ErrorWithContext(logger, "failed to load recording for segmentation", "segment_load_failed",
			logging.String("input", input),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the file is a readable audio file"),
		)
		return nil
	}
	bounds := Plan(mono.Frames(), mono.SampleRate, segmentSeconds)
	if len(bounds) == 0 {
		logging.ErrorWithContext(logger, "recording has no samples", "segment_empty_input",
			logging.String("input", input),
			logging.String(logging.FieldErrorHint, "the file decoded to zero duration; check it is not truncated"),
		)
		return nil
	}
	if err := layout.EnsureDir(outDir); err != nil {
		logging.ErrorWithContext(logger, "failed to create segment directory", "segment_dir_failed",
			logging.String("dir", outDir),
			logging.Error(err),
		)
		return nil
	}

	base := layout.BaseName(input)
	segments := make([]Segment, 0, len(bounds))
	for _, b := range bounds {
		if err := ctx.Err(); err != nil {
			logger.Info("segmentation cancelled", logging.Int("written", len(segments)))
			return segments
		}
		chunk := mono.Slice(b.Start, b.End)
		target := filepath.Join(outDir, layout.SegmentName(base, b.Index))
		if err := audio.WriteWAV(target, chunk); err != nil {
			logging.WarnWithContext(logger, "failed to write segment", "segment_write_failed",
				logging.Int(logging.FieldSegment, b.Index+1),
				logging.String("path", target),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions on the output directory"),
				logging.String(logging.FieldImpact, "segment skipped; remaining segments continue"),
			)
			continue
		}
		segments = append(segments, Segment{
			Asset: audio.AssetFor(target, chunk),
			Index: b.Index + 1,
			Start: audio.FramesToDuration(b.Start, mono.SampleRate),
		})
	}
	logger.Debug("segmentation complete",
		logging.Int("planned", len(bounds)),
		logging.Int("written", len(segments)),
		logging.String("duration", fmt.Sprintf("%.2fs", mono.Duration().Seconds())),
	)
	return segments
}
