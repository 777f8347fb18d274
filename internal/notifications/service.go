package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"voicereel/internal/config"
)

const userAgent = "voicereel/0.1.0"

// RunSummary describes a finished run for notification purposes.
type RunSummary struct {
	Chunks       int
	Characters   int
	AudioSeconds float64
	Output       string
	Elapsed      time.Duration
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyRunFailed(ctx context.Context, err error, chunk int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		runCompleted: cfg.Notifications.RunCompleted,
		errors:       cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	runCompleted bool
	errors       bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	if !n.runCompleted {
		return nil
	}
	audio := (time.Duration(summary.AudioSeconds * float64(time.Second))).Round(time.Second)
	message := fmt.Sprintf("Narration ready: %s characters in %d chunks, %s of audio",
		humanize.Comma(int64(summary.Characters)), summary.Chunks, audio)
	if out := strings.TrimSpace(summary.Output); out != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, out)
	}
	if summary.Elapsed > 0 {
		message = fmt.Sprintf("%s\nTook %s", message, summary.Elapsed.Round(time.Second))
	}
	return n.send(ctx, payload{
		title:   "voicereel - Run Complete",
		message: message,
		tags:    []string{"voicereel", "run", "completed"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, err error, chunk int) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Run failed")
	if chunk > 0 {
		fmt.Fprintf(&builder, " at chunk %d", chunk)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "voicereel - Error",
		message:  builder.String(),
		tags:     []string{"voicereel", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "voicereel - Test",
		message:  "Notification system test",
		tags:     []string{"voicereel", "test"},
		priority: "low",
	})
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

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyRunFailed(context.Context, error, int) error    { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
