package enhance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"vocalprep/internal/audio"
	"vocalprep/internal/logging"
	"vocalprep/internal/services"
	"vocalprep/internal/testsupport"
)

// copyRunner emulates voicefixer by copying --infile to --outfile unless the
// input name contains "bad".
func copyRunner(calls *[][]string) services.CommandRunner {
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, append([]string{name}, args...))
		in, out := args[1], args[3]
		if strings.Contains(in, "bad") {
			return errors.New("exit status 1")
		}
		buf, err := audio.ReadWAV(in)
		if err != nil {
			return err
		}
		return audio.WriteWAV(out, buf)
	}
}

type fakeFilter struct {
	calls []string
	fail  bool
}

func (f *fakeFilter) ApplyFilter(_ context.Context, input, output, graph string) error {
	f.calls = append(f.calls, filepath.Base(input)+"|"+graph)
	if f.fail {
		return errors.New("ffmpeg exited 1")
	}
	buf, err := audio.ReadWAV(input)
	if err != nil {
		return err
	}
	return audio.WriteWAV(output, buf)
}

func TestRestorerBuildArgs(t *testing.T) {
	r := NewRestorer(RestorerConfig{Mode: 2}, logging.NewNop())
	got := r.buildArgs("in.wav", "out.wav")
	want := []string{"--infile", "in.wav", "--outfile", "out.wav", "--mode", "2", "--disable-cuda"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args %v", got)
	}
	r = NewRestorer(RestorerConfig{CUDAEnabled: true}, nil)
	if got := r.buildArgs("a", "b"); got[len(got)-1] != "0" {
		t.Fatalf("expected no --disable-cuda with CUDA enabled, got %v", got)
	}
}

func TestRestorerLoadMissingToolIsCached(t *testing.T) {
	r := NewRestorer(RestorerConfig{Command: "voicefixer-not-installed-anywhere"}, logging.NewNop())
	err := r.Load(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if again := r.Load(context.Background()); again != err {
		t.Fatalf("expected cached error, got %v", again)
	}
	if _, err := r.Restore(context.Background(), "x.wav", t.TempDir()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected Restore to report load failure, got %v", err)
	}
}

func TestProcessComposesRestoreAndFilter(t *testing.T) {
	dir := t.TempDir()
	good := testsupport.WriteTone(t, filepath.Join(dir, "in", "take_segment_1_vocals.wav"), 8000, 1, 0.1)
	bad := testsupport.WriteTone(t, filepath.Join(dir, "in", "bad_segment_1_vocals.wav"), 8000, 1, 0.1)

	var calls [][]string
	restorer := NewRestorer(RestorerConfig{}, logging.NewNop())
	restorer.WithCommandRunner(copyRunner(&calls))
	filter := &fakeFilter{}
	e := New(restorer, filter, Options{Restore: true, Exciter: true}, logging.NewNop())
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	out := filepath.Join(dir, "out")
	results := e.Process(context.Background(), []string{bad, good}, out)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].OK() || results[0].Final != "" {
		t.Fatalf("expected failed restore without final, got %+v", results[0])
	}
	if !results[1].OK() {
		t.Fatalf("expected good file to succeed: %v", results[1].Err)
	}
	if filepath.Base(results[1].Enhanced) != "take_segment_1_vocals_enhanced.wav" {
		t.Fatalf("unexpected enhanced path %q", results[1].Enhanced)
	}
	if filepath.Base(results[1].Final) != "take_segment_1_vocals_final.wav" {
		t.Fatalf("unexpected final path %q", results[1].Final)
	}
	if len(filter.calls) != 1 || filter.calls[0] != "take_segment_1_vocals_enhanced.wav|"+DefaultFilterGraph {
		t.Fatalf("expected filter applied once to restored file, got %v", filter.calls)
	}
	if len(calls) != 2 {
		t.Fatalf("expected restore attempted for both files, got %d", len(calls))
	}
}

func TestProcessFilterOnlyAndFilterFailure(t *testing.T) {
	dir := t.TempDir()
	input := testsupport.WriteTone(t, filepath.Join(dir, "raw.wav"), 8000, 1, 0.1)

	filter := &fakeFilter{}
	e := New(nil, filter, Options{Exciter: true, FilterGraph: "treble=g=2"}, logging.NewNop())
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load without restore should succeed: %v", err)
	}
	results := e.Process(context.Background(), []string{input}, filepath.Join(dir, "out"))
	if !results[0].OK() || filepath.Base(results[0].Final) != "raw_final.wav" || results[0].Enhanced != "" {
		t.Fatalf("unexpected filter-only result %+v", results[0])
	}
	if filter.calls[0] != "raw.wav|treble=g=2" {
		t.Fatalf("unexpected filter call %v", filter.calls)
	}

	failing := New(nil, &fakeFilter{fail: true}, Options{Exciter: true}, logging.NewNop())
	results = failing.Process(context.Background(), []string{input}, filepath.Join(dir, "out2"))
	if results[0].OK() || !errors.Is(results[0].Err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", results[0].Err)
	}
}

func TestDiscoverMatchesSuffixCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.WAV", "a.wav", "c.Wav", "notes.txt", ".hidden.wav"} {
		testsupport.WriteFile(t, filepath.Join(dir, name), 4)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.wav"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	if want := []string{"a.wav", "b.WAV", "c.Wav"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("unexpected discovery %v", names)
	}
}
