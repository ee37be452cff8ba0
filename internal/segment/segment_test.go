package segment_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vocalprep/internal/audio"
	"vocalprep/internal/logging"
	"vocalprep/internal/segment"
	"vocalprep/internal/testsupport"
)

func TestPlanCoversWholeRange(t *testing.T) {
	cases := []struct {
		total, rate, seconds int
	}{
		{150, 1, 60},
		{120, 1, 60},
		{1, 1, 60},
		{44100*7 + 13, 44100, 2},
		{1000, 10, 3},
	}
	for _, tc := range cases {
		bounds := segment.Plan(tc.total, tc.rate, tc.seconds)
		step := tc.seconds * tc.rate
		wantCount := (tc.total + step - 1) / step
		if len(bounds) != wantCount {
			t.Fatalf("Plan(%d,%d,%d): got %d segments want %d", tc.total, tc.rate, tc.seconds, len(bounds), wantCount)
		}
		for i, b := range bounds {
			if b.Index != i || b.Start != i*step {
				t.Fatalf("segment %d: unexpected bounds %+v", i, b)
			}
			if b.End > tc.total {
				t.Fatalf("segment %d ends past input: %d > %d", i, b.End, tc.total)
			}
			if i > 0 && bounds[i-1].End != b.Start {
				t.Fatalf("segments %d and %d are not contiguous", i-1, i)
			}
		}
		last := bounds[len(bounds)-1]
		wantLast := step
		if rem := tc.total % step; rem != 0 {
			wantLast = rem
		}
		if last.Frames() != wantLast || last.End != tc.total {
			t.Fatalf("last segment %+v, want %d frames ending at %d", last, wantLast, tc.total)
		}
	}
}

func TestPlanRejectsNonPositiveInputs(t *testing.T) {
	if got := segment.Plan(0, 44100, 60); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := segment.Plan(100, 44100, 0); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
	if got := segment.Plan(-5, 44100, 60); got != nil {
		t.Fatalf("expected nil for negative input, got %v", got)
	}
}

func newSegmenter() *segment.Segmenter {
	return segment.New(audio.NewLoader(nil, ""), logging.NewNop())
}

func TestSplit150SecondsInto60SecondSegments(t *testing.T) {
	dir := t.TempDir()
	input := testsupport.WriteTone(t, filepath.Join(dir, "long.wav"), segment.TargetSampleRate, 1, 150)
	out := filepath.Join(dir, "segments")

	segments := newSegmenter().Split(context.Background(), input, 60, out)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	want := []time.Duration{60 * time.Second, 60 * time.Second, 30 * time.Second}
	for i, seg := range segments {
		if seg.Index != i+1 {
			t.Fatalf("segment %d has index %d", i, seg.Index)
		}
		if seg.Duration != want[i] {
			t.Fatalf("segment %d duration %s want %s", i, seg.Duration, want[i])
		}
		if seg.Start != time.Duration(i)*60*time.Second {
			t.Fatalf("segment %d start %s", i, seg.Start)
		}
		asset, err := audio.Describe(seg.Path)
		if err != nil {
			t.Fatalf("describe segment %d: %v", i, err)
		}
		if asset.Channels != 1 || asset.SampleRate != segment.TargetSampleRate {
			t.Fatalf("segment %d not mono 44.1 kHz: %+v", i, asset)
		}
	}
	if filepath.Base(segments[2].Path) != "long_segment_3.wav" {
		t.Fatalf("unexpected segment name %q", filepath.Base(segments[2].Path))
	}
}

func TestSplitDownmixesStereo(t *testing.T) {
	dir := t.TempDir()
	input := testsupport.WriteTone(t, filepath.Join(dir, "stereo.wav"), segment.TargetSampleRate, 2, 2)
	segments := newSegmenter().Split(context.Background(), input, 1, filepath.Join(dir, "out"))
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Channels != 1 {
		t.Fatalf("expected mono segment, got %d channels", segments[0].Channels)
	}
}

func TestSplitFailuresYieldNoSegments(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.wav")
	testsupport.WriteFile(t, empty, 0)

	s := newSegmenter()
	if got := s.Split(context.Background(), empty, 60, filepath.Join(dir, "a")); len(got) != 0 {
		t.Fatalf("expected no segments for 0-byte file, got %d", len(got))
	}
	if got := s.Split(context.Background(), filepath.Join(dir, "missing.wav"), 60, filepath.Join(dir, "b")); len(got) != 0 {
		t.Fatalf("expected no segments for missing file, got %d", len(got))
	}
	tone := testsupport.WriteTone(t, filepath.Join(dir, "ok.wav"), segment.TargetSampleRate, 1, 1)
	if got := s.Split(context.Background(), tone, 0, filepath.Join(dir, "c")); len(got) != 0 {
		t.Fatalf("expected no segments for zero duration, got %d", len(got))
	}
	if _, err := os.Stat(filepath.Join(dir, "a")); !os.IsNotExist(err) {
		t.Fatalf("expected no output directory for failed split, got %v", err)
	}
}

func TestSplitSkipsUnwritableSegment(t *testing.T) {
	dir := t.TempDir()
	input := testsupport.WriteTone(t, filepath.Join(dir, "take.wav"), segment.TargetSampleRate, 1, 3)
	out := filepath.Join(dir, "out")
	// A directory in place of the second segment makes that write fail.
	if err := os.MkdirAll(filepath.Join(out, "take_segment_2.wav"), 0o755); err != nil {
		t.Fatalf("mkdir blocker: %v", err)
	}

	segments := newSegmenter().Split(context.Background(), input, 1, out)
	if len(segments) != 2 {
		t.Fatalf("expected 2 surviving segments, got %d", len(segments))
	}
	if segments[0].Index != 1 || segments[1].Index != 3 {
		t.Fatalf("unexpected surviving indexes %d, %d", segments[0].Index, segments[1].Index)
	}
}
