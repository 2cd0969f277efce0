// Package notifications delivers sync run events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set, so
// callers never branch on whether notifications are enabled.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"favsync/internal/config"
)

const userAgent = "favsync/0.1.0"

// Summary carries the run counts a completion notification reports.
type Summary struct {
	Favorited  int
	Transcoded int
	Deleted    int
	Covers     int
	Failed     int
	Duration   time.Duration
}

// Service defines the notification surface exposed to the sync pipeline.
type Service interface {
	NotifySyncCompleted(ctx context.Context, summary Summary) error
	NotifySyncFailed(ctx context.Context, err error) error
	TestNotification(ctx context.Context) error
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
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, summary Summary) error {
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title string
	var message string
	if summary.Failed == 0 {
		title = "favsync - Sync Complete"
		message = fmt.Sprintf(
			"Synced %d favorites in %s: %d transcoded, %d deleted, %d covers",
			summary.Favorited, duration, summary.Transcoded, summary.Deleted, summary.Covers,
		)
	} else {
		title = "favsync - Sync Complete (with errors)"
		message = fmt.Sprintf(
			"Synced %d favorites in %s: %d transcoded, %d failed",
			summary.Favorited, duration, summary.Transcoded, summary.Failed,
		)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"favsync", "sync", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncFailed(ctx context.Context, err error) error {
	message := "Sync failed: unknown"
	if err != nil {
		message = "Sync failed: " + strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "favsync - Error",
		message:  message,
		tags:     []string{"favsync", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "favsync - Test",
		message:  "Notification system test",
		tags:     []string{"favsync", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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

func (noopService) NotifySyncCompleted(context.Context, Summary) error { return nil }
func (noopService) NotifySyncFailed(context.Context, error) error      { return nil }
func (noopService) TestNotification(context.Context) error             { return nil }
