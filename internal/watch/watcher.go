package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vocalprep/internal/batch"
	"vocalprep/internal/logging"
)

// FileRunner processes one file. batch.Driver implements it.
type FileRunner interface {
	RunFile(ctx context.Context, path string) (batch.Report, error)
}

// Options tunes event coalescing.
type Options struct {
	// Debounce is the quiet period after the last event for a path.
	Debounce time.Duration
	// Settle is the minimum age of the file's last modification.
	Settle time.Duration
	// Backlog processes files already present when the watcher starts.
	Backlog bool
}

// Watcher feeds new files in a directory to a FileRunner.
type Watcher struct {
	dir    string
	runner FileRunner
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
	pending map[string]*time.Timer
	done    map[string]time.Time
	ready   chan string
}

// New creates a watcher for dir.
func New(dir string, runner FileRunner, opts Options, logger *slog.Logger) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Watcher{
		dir:     dir,
		runner:  runner,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "watch"),
		pending: make(map[string]*time.Timer),
		done:    make(map[string]time.Time),
		ready:   make(chan string, 64),
	}
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if info, err := os.Stat(w.dir); err != nil || !info.IsDir() {
		return fmt.Errorf("watch directory %s: not a readable directory", w.dir)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.mu.Lock()
	w.stopped = false
	w.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()
	defer func() {
		w.stopTimers()
		wg.Wait()
	}()

	w.logger.Info("watching for new recordings", logging.String("dir", w.dir))
	if w.opts.Backlog {
		w.enqueueBacklog()
	}

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", logging.Error(err))
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) enqueueBacklog() {
	files, err := batch.Discover(w.dir)
	if err != nil {
		w.logger.Warn("backlog scan failed", logging.Error(err))
		return
	}
	for _, path := range files {
		w.schedule(path, 0)
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Chmod) == 0 {
		return
	}
	if !eligible(event.Name) {
		return
	}
	w.logger.Debug("file event", logging.String("path", event.Name), logging.String("op", event.Op.String()))
	w.schedule(event.Name, w.opts.Debounce)
}

// schedule (re)arms the debounce timer for path. It is a no-op once the
// watcher has stopped.
func (w *Watcher) schedule(path string, delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(delay, func() { w.fire(path) })
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		w.forget(path)
		return
	}
	if age := time.Since(info.ModTime()); age < w.opts.Settle {
		w.schedule(path, w.opts.Settle-age)
		return
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	if last, ok := w.done[path]; ok && last.Equal(info.ModTime()) {
		w.mu.Unlock()
		return
	}
	w.done[path] = info.ModTime()
	w.mu.Unlock()

	select {
	case w.ready <- path:
	default:
		w.logger.Warn("watch queue full; file deferred", logging.String("path", path))
		w.mu.Lock()
		delete(w.done, path)
		w.mu.Unlock()
		w.schedule(path, w.opts.Debounce)
	}
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.ready:
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	logger := w.logger.With(logging.String("file", filepath.Base(path)))
	report, err := w.runner.RunFile(ctx, path)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("processing cancelled")
	case err != nil:
		logging.ErrorWithContext(logger, "hot folder run failed", "watch_run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the cause and touch the file to retry"),
		)
		w.mu.Lock()
		delete(w.done, path)
		w.mu.Unlock()
	default:
		logger.Info("hot folder run finished",
			logging.Int("succeeded", report.Succeeded),
			logging.Int("failed", report.Failed),
			logging.Duration("elapsed", report.Elapsed),
		)
	}
}

func eligible(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.Contains(name, ".partial.") {
		return false
	}
	return batch.Supported(name)
}
