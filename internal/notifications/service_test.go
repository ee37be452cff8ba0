package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vocalprep/internal/config"
	"vocalprep/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "batch started",
			event:         notifications.EventBatchStarted,
			payload:       notifications.Payload{"files": 3, "inputDir": "/audio/in"},
			expectTitle:   "vocalprep - Batch Started",
			expectMessage: "Processing 3 recordings from /audio/in",
			expectTags:    "vocalprep,batch,started",
		},
		{
			name:          "batch completed",
			event:         notifications.EventBatchCompleted,
			payload:       notifications.Payload{"succeeded": 3, "failed": 0, "elapsed": 90 * time.Second},
			expectTitle:   "vocalprep - Batch Complete",
			expectMessage: "3 recordings processed in 1m30s",
			expectTags:    "vocalprep,batch,completed",
		},
		{
			name:          "batch completed with errors",
			event:         notifications.EventBatchCompleted,
			payload:       notifications.Payload{"succeeded": 2, "failed": 1, "elapsed": 2500 * time.Millisecond},
			expectTitle:   "vocalprep - Batch Complete (with errors)",
			expectMessage: "2 succeeded, 1 failed in 3s",
			expectTags:    "vocalprep,batch,warning",
		},
		{
			name:           "batch completed without successes",
			event:          notifications.EventBatchCompleted,
			payload:        notifications.Payload{"succeeded": 0, "failed": 2, "elapsed": time.Second},
			expectTitle:    "vocalprep - Batch Complete (with errors)",
			expectMessage:  "0 succeeded, 2 failed in 1s",
			expectTags:     "vocalprep,batch,warning",
			expectPriority: "high",
		},
		{
			name:          "run failed",
			event:         notifications.EventRunFailed,
			payload:       notifications.Payload{"file": "take.wav", "kind": "decode", "error": "not a RIFF file"},
			expectTitle:   "vocalprep - Recording Failed",
			expectMessage: "take.wav failed (decode): not a RIFF file",
			expectTags:    "vocalprep,run,failed",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "vocalprep - Test",
			expectMessage:  "Notification system test",
			expectTags:     "vocalprep,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceIgnoresSuppressedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunFailures = false

	svc := notifications.NewService(&cfg)
	cases := []struct {
		event   notifications.Event
		payload notifications.Payload
	}{
		{notifications.EventBatchStarted, notifications.Payload{"files": 1}},
		{notifications.EventRunFailed, notifications.Payload{"file": "a.wav"}},
		{notifications.Event("unknown"), nil},
	}
	for _, tc := range cases {
		if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", tc.event, err)
		}
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic closed", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}
