package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vocalprep/internal/config"
)

const userAgent = "vocalprep/0.1"

// Event names a batch milestone.
type Event string

const (
	EventBatchStarted   Event = "batch_started"
	EventBatchCompleted Event = "batch_completed"
	EventRunFailed      Event = "run_failed"
	EventTest           Event = "test"
)

// Payload carries event fields. Keys are event-specific.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op one when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		runFailures: cfg.Notifications.RunFailures,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	runFailures bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventBatchStarted:
		files := payloadInt(payload, "files")
		if files < 2 {
			return message{}, false
		}
		return message{
			title: "vocalprep - Batch Started",
			body:  fmt.Sprintf("Processing %d recordings from %s", files, payloadString(payload, "inputDir")),
			tags:  []string{"vocalprep", "batch", "started"},
		}, true
	case EventBatchCompleted:
		succeeded := payloadInt(payload, "succeeded")
		failed := payloadInt(payload, "failed")
		elapsed := payloadDuration(payload, "elapsed")
		if failed == 0 {
			return message{
				title: "vocalprep - Batch Complete",
				body:  fmt.Sprintf("%d recordings processed in %s", succeeded, elapsed),
				tags:  []string{"vocalprep", "batch", "completed"},
			}, true
		}
		msg := message{
			title: "vocalprep - Batch Complete (with errors)",
			body:  fmt.Sprintf("%d succeeded, %d failed in %s", succeeded, failed, elapsed),
			tags:  []string{"vocalprep", "batch", "warning"},
		}
		if succeeded == 0 {
			msg.priority = "high"
		}
		return msg, true
	case EventRunFailed:
		if !n.runFailures {
			return message{}, false
		}
		body := fmt.Sprintf("%s failed", payloadString(payload, "file"))
		if kind := payloadString(payload, "kind"); kind != "" {
			body += " (" + kind + ")"
		}
		if errText := payloadString(payload, "error"); errText != "" {
			body += ": " + errText
		}
		return message{
			title: "vocalprep - Recording Failed",
			body:  body,
			tags:  []string{"vocalprep", "run", "failed"},
		}, true
	case EventTest:
		return message{
			title:    "vocalprep - Test",
			body:     "Notification system test",
			tags:     []string{"vocalprep", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func payloadString(payload Payload, key string) string {
	if value, ok := payload[key]; ok && value != nil {
		return strings.TrimSpace(fmt.Sprint(value))
	}
	return ""
}

func payloadInt(payload Payload, key string) int {
	switch value := payload[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	default:
		return 0
	}
}

func payloadDuration(payload Payload, key string) time.Duration {
	value, _ := payload[key].(time.Duration)
	if value < 0 {
		value = 0
	}
	return value.Round(time.Second)
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
