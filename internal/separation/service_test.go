package separation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"vocalprep/internal/logging"
	"vocalprep/internal/services"
)

// fakeDemucs records invocations and writes stems like demucs would.
type fakeDemucs struct {
	mu    sync.Mutex
	calls [][]string
	fail  map[string]error
	stems []string
}

func (f *fakeDemucs) run(_ context.Context, name string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	model := args[1]
	if err := f.fail[model]; err != nil {
		return err
	}
	input, outDir := args[len(args)-3], args[len(args)-1]
	dir := filepath.Join(outDir, model, trimExt(filepath.Base(input)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, stem := range f.stems {
		if err := os.WriteFile(filepath.Join(dir, stem+".wav"), []byte("RIFF"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

func TestBuildArgs(t *testing.T) {
	svc := NewService(Config{Device: "cuda", TwoStems: "vocals"}, logging.NewNop())
	got := svc.buildArgs("htdemucs", "/in/song.wav", "/out/htdemucs")
	want := []string{"-n", "htdemucs", "-d", "cuda", "--two-stems", "vocals", "/in/song.wav", "-o", "/out/htdemucs"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args\n got %v\nwant %v", got, want)
	}

	plain := NewService(Config{}, nil).buildArgs("mdx_extra_q", "a.wav", "o")
	if !reflect.DeepEqual(plain, []string{"-n", "mdx_extra_q", "a.wav", "-o", "o"}) {
		t.Fatalf("unexpected minimal args %v", plain)
	}
}

func TestSeparateContinuesAfterModelFailure(t *testing.T) {
	fake := &fakeDemucs{
		fail:  map[string]error{"broken": errors.New("exit status 1")},
		stems: []string{"vocals", "drums", "bass", "other"},
	}
	svc := NewService(Config{}, logging.NewNop())
	svc.WithCommandRunner(fake.run)

	outBase := t.TempDir()
	outcomes := svc.Separate(context.Background(), "/in/take.wav", []string{"broken", "htdemucs"}, outBase)
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].OK() || !errors.Is(outcomes[0].Err, services.ErrExternalTool) {
		t.Fatalf("expected first model to fail with ErrExternalTool, got %v", outcomes[0].Err)
	}
	if !outcomes[1].OK() {
		t.Fatalf("expected second model to succeed, got %v", outcomes[1].Err)
	}
	if want := []string{"bass", "drums", "other", "vocals"}; !reflect.DeepEqual(outcomes[1].Stems, want) {
		t.Fatalf("unexpected stems %v", outcomes[1].Stems)
	}
	primary := PrimaryOutput(outBase, "htdemucs", "/in/take.wav", "vocals")
	if primary != filepath.Join(outBase, "htdemucs", "htdemucs", "take", "vocals.wav") {
		t.Fatalf("unexpected primary output %q", primary)
	}
	if _, err := os.Stat(primary); err != nil {
		t.Fatalf("expected primary output on disk: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected both models invoked, got %d calls", len(fake.calls))
	}
}

func TestSeparateKeepsCallerOrderWithWorkers(t *testing.T) {
	fake := &fakeDemucs{stems: []string{"vocals"}}
	svc := NewService(Config{Workers: 3}, logging.NewNop())
	svc.WithCommandRunner(fake.run)

	models := []string{"a", "b", "c", "d"}
	outcomes := svc.Separate(context.Background(), "/in/x.wav", models, t.TempDir())
	for i, outcome := range outcomes {
		if outcome.Model != models[i] {
			t.Fatalf("outcome %d is for %q, want %q", i, outcome.Model, models[i])
		}
		if !outcome.OK() {
			t.Fatalf("model %s failed: %v", outcome.Model, outcome.Err)
		}
	}
}

func TestSeparateAppliesTimeout(t *testing.T) {
	svc := NewService(Config{Timeout: 10 * time.Millisecond}, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, _ string, _ ...string) error {
		<-ctx.Done()
		return ctx.Err()
	})

	outcomes := svc.Separate(context.Background(), "/in/x.wav", []string{"slow"}, t.TempDir())
	if outcomes[0].OK() {
		t.Fatal("expected timeout failure")
	}
	if services.FailureKind(outcomes[0].Err) != "timeout" {
		t.Fatalf("expected timeout kind, got %q (%v)", services.FailureKind(outcomes[0].Err), outcomes[0].Err)
	}
}

func TestSeparateSkipsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	svc := NewService(Config{}, logging.NewNop())
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		called = true
		return nil
	})
	outcomes := svc.Separate(ctx, "/in/x.wav", []string{"htdemucs"}, t.TempDir())
	if called {
		t.Fatal("expected no invocation after cancellation")
	}
	if !errors.Is(outcomes[0].Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", outcomes[0].Err)
	}
}

func TestHealthCheckFindsCommand(t *testing.T) {
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, "demucs"), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	if h := NewService(Config{}, logging.NewNop()).HealthCheck(context.Background()); !h.Ready {
		t.Fatalf("expected demucs ready, got %+v", h)
	}
	h := NewService(Config{Command: "demucs-missing"}, logging.NewNop()).HealthCheck(context.Background())
	if h.Ready || h.Detail == "" {
		t.Fatalf("expected missing command reported, got %+v", h)
	}
}
