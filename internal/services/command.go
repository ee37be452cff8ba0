package services

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// maxOutputLines bounds how much tool output is folded into an error. Model
// CLIs print long progress bars before the actual failure.
const maxOutputLines = 20

// CommandRunner executes an external tool and reports failure as an error.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// RunCommand executes name with args and folds the tail of its combined output
// into the returned error. A run cut short by a context deadline is tagged
// with ErrTimeout.
func RunCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w: %w", name, ErrTimeout, ctxErr)
		}
		return fmt.Errorf("%s: %w", name, ctxErr)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", name, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w: %s", name, err, TailOutput(output))
}

// TailOutput returns the last few non-empty lines of tool output.
func TailOutput(output []byte) string {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return ""
	}
	// Progress bars redraw with carriage returns; keep only the final frame.
	lines := strings.Split(strings.ReplaceAll(trimmed, "\r", "\n"), "\n")
	kept := make([]string, 0, maxOutputLines)
	for i := len(lines) - 1; i >= 0 && len(kept) < maxOutputLines; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n")
}

// WithTimeout bounds ctx by timeout. A non-positive timeout leaves ctx
// unbounded but still returns a usable cancel func.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
