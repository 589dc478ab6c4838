package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hinter/internal/config"
)

const userAgent = "Hinter-Go/0.1.0"

// Service defines the notification surface exposed to the hint pipelines.
type Service interface {
	NotifyHintReady(ctx context.Context, game, system string) error
	NotifyHintFailed(ctx context.Context, game string, err error) error
	NotifyLimitReached(ctx context.Context, used, limit int) error
	NotifyError(ctx context.Context, err error, context string) error
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

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
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

func (n *ntfyService) NotifyHintReady(ctx context.Context, game, system string) error {
	game = strings.TrimSpace(game)
	system = strings.TrimSpace(system)
	if system == "" {
		system = "unknown"
	}
	data := payload{
		title:   "Hinter - Hint Ready",
		message: fmt.Sprintf("💡 Hint ready: %s (%s)", game, system),
		tags:    []string{"hinter", "hint", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyHintFailed(ctx context.Context, game string, err error) error {
	game = strings.TrimSpace(game)
	message := fmt.Sprintf("❌ Hint generation failed for %s", game)
	if err != nil {
		message = fmt.Sprintf("%s: %s", message, strings.TrimSpace(err.Error()))
	}
	data := payload{
		title:    "Hinter - Generation Failed",
		message:  message,
		tags:     []string{"hinter", "hint", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyLimitReached(ctx context.Context, used, limit int) error {
	data := payload{
		title:   "Hinter - Daily Limit Reached",
		message: fmt.Sprintf("Daily hint limit reached (%d/%d). Quota resets at midnight.", used, limit),
		tags:    []string{"hinter", "quota", "limit"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Hinter - Error",
		message:  builder.String(),
		tags:     []string{"hinter", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Hinter - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"hinter", "test"},
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

func (noopService) NotifyHintReady(context.Context, string, string) error  { return nil }
func (noopService) NotifyHintFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyLimitReached(context.Context, int, int) error    { return nil }
func (noopService) NotifyError(context.Context, error, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }
