package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
)

const userAgent = "Copernicus-Go/0.1.0"

// Event enumerates the workflow milestones that can produce a notification.
type Event string

const (
	// EventJobCompleted fires when a job reaches the completed status.
	EventJobCompleted Event = "job_completed"
	// EventJobFailed fires when a job reaches the failed status.
	EventJobFailed Event = "job_failed"
	// EventFeedSync fires after a feed reconciliation that changed the feed.
	EventFeedSync Event = "feed_sync"
	// EventError fires for stage errors worth surfacing outside the logs.
	EventError Event = "error"
	// EventTest verifies delivery end to end.
	EventTest Event = "test"
)

// Payload carries event-specific values used to render the message.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		toggles:  cfg.Notifications,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	toggles  config.Notifications
	client   *http.Client
}

// Publish renders and delivers the event when its toggle is enabled.
// Disabled events return nil so stage code never branches on configuration.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	return n.send(ctx, render(event, payload))
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventJobCompleted:
		return n.toggles.JobCompleted
	case EventJobFailed:
		return n.toggles.JobFailed
	case EventFeedSync:
		return n.toggles.FeedSync
	case EventError:
		return n.toggles.Errors
	case EventTest:
		return true
	default:
		return false
	}
}

func render(event Event, payload Payload) message {
	switch event {
	case EventJobCompleted:
		title := payloadString(payload, "title")
		name := payloadString(payload, "canonical_name")
		body := fmt.Sprintf("Episode published: %s", title)
		if name != "" {
			body = fmt.Sprintf("%s (%s)", body, name)
		}
		return message{
			title:    "Copernicus - Episode Ready",
			body:     body,
			tags:     []string{"copernicus", "job", "completed"},
			priority: "high",
		}
	case EventJobFailed:
		topic := payloadString(payload, "topic")
		stage := payloadString(payload, "stage")
		reason := payloadString(payload, "error")
		body := fmt.Sprintf("Generation failed: %s", topic)
		if stage != "" {
			body = fmt.Sprintf("%s\nStage: %s", body, stage)
		}
		if reason != "" {
			body = fmt.Sprintf("%s\nReason: %s", body, reason)
		}
		return message{
			title:    "Copernicus - Job Failed",
			body:     body,
			tags:     []string{"copernicus", "job", "failed"},
			priority: "high",
		}
	case EventFeedSync:
		added := payloadInt(payload, "added")
		removed := payloadInt(payload, "removed")
		updated := payloadInt(payload, "updated")
		return message{
			title: "Copernicus - Feed Updated",
			body:  fmt.Sprintf("Feed reconciled: %d added, %d updated, %d removed", added, updated, removed),
			tags:  []string{"copernicus", "feed", "sync"},
		}
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := payloadString(payload, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if err, ok := payload["error"].(error); ok && err != nil {
			builder.WriteString(strings.TrimSpace(err.Error()))
		} else if text := payloadString(payload, "error"); text != "" {
			builder.WriteString(text)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Copernicus - Error",
			body:     builder.String(),
			tags:     []string{"copernicus", "error", "alert"},
			priority: "high",
		}
	case EventTest:
		return message{
			title:    "Copernicus - Test",
			body:     "Notification system test",
			tags:     []string{"copernicus", "test"},
			priority: "low",
		}
	default:
		return message{
			title: "Copernicus",
			body:  string(event),
			tags:  []string{"copernicus"},
		}
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	if value, ok := payload[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func payloadInt(payload Payload, key string) int {
	if payload == nil {
		return 0
	}
	switch value := payload[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	default:
		return 0
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
