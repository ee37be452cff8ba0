package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"vocalprep/internal/batch"
	"vocalprep/internal/logging"
	"vocalprep/internal/testsupport"
)

type recordingRunner struct {
	mu    sync.Mutex
	paths []string
	seen  chan string
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{seen: make(chan string, 16)}
}

func (r *recordingRunner) RunFile(_ context.Context, path string) (batch.Report, error) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.seen <- path
	return batch.Report{Total: 1, Succeeded: 1}, nil
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func startWatcher(t *testing.T, dir string, runner FileRunner, opts Options) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	w := New(dir, runner, opts, logging.NewNop())
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("watcher returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// Give fsnotify a moment to register the directory.
	time.Sleep(50 * time.Millisecond)
}

func waitFor(t *testing.T, runner *recordingRunner) string {
	t.Helper()
	select {
	case path := <-runner.seen:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the runner")
		return ""
	}
}

func TestWatcherProcessesNewFile(t *testing.T) {
	dir := t.TempDir()
	runner := newRecordingRunner()
	startWatcher(t, dir, runner, Options{Debounce: 20 * time.Millisecond})

	path := testsupport.WriteTone(t, filepath.Join(dir, "take.wav"), 8000, 1, 0.1)
	if got := waitFor(t, runner); got != path {
		t.Fatalf("expected %s, got %s", path, got)
	}
}

func TestWatcherIgnoresIneligibleFiles(t *testing.T) {
	dir := t.TempDir()
	runner := newRecordingRunner()
	startWatcher(t, dir, runner, Options{Debounce: 20 * time.Millisecond})

	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), 8)
	testsupport.WriteFile(t, filepath.Join(dir, ".hidden.wav"), 8)
	testsupport.WriteFile(t, filepath.Join(dir, "take.partial.wav"), 8)
	path := filepath.Join(dir, "real.flac")
	testsupport.WriteFile(t, path, 8)

	if got := waitFor(t, runner); got != path {
		t.Fatalf("expected only the flac file, got %s", got)
	}
	time.Sleep(100 * time.Millisecond)
	if n := runner.count(); n != 1 {
		t.Fatalf("expected exactly one run, got %d", n)
	}
}

func TestWatcherProcessesBacklogOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.mp3")
	testsupport.WriteFile(t, path, 8)

	runner := newRecordingRunner()
	startWatcher(t, dir, runner, Options{Debounce: 20 * time.Millisecond, Backlog: true})

	if got := waitFor(t, runner); got != path {
		t.Fatalf("expected backlog file, got %s", got)
	}
	// A metadata-only event with an unchanged mtime must not rerun the file.
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if n := runner.count(); n != 1 {
		t.Fatalf("expected one run, got %d", n)
	}
}

func TestEligible(t *testing.T) {
	cases := map[string]bool{
		"/in/a.WAV":         true,
		"/in/b.m4a":         true,
		"/in/.c.wav":        false,
		"/in/d.partial.wav": false,
		"/in/e.txt":         false,
	}
	for path, want := range cases {
		if got := eligible(path); got != want {
			t.Fatalf("eligible(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestStoppedWatcherNeverRearms(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteTone(t, filepath.Join(dir, "late.wav"), 8000, 1, 0.1)
	w := New(dir, newRecordingRunner(), Options{Debounce: time.Millisecond, Settle: time.Hour}, logging.NewNop())

	w.schedule(path, time.Hour)
	w.stopTimers()

	// A timer that was already running when the watcher stopped.
	w.fire(path)
	w.schedule(path, time.Millisecond)

	w.mu.Lock()
	pending := len(w.pending)
	w.mu.Unlock()
	if pending != 0 {
		t.Fatalf("expected no timers after stop, got %d", pending)
	}
	select {
	case got := <-w.ready:
		t.Fatalf("stopped watcher queued %s", got)
	case <-time.After(20 * time.Millisecond):
	}
}
