package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"prodflow/internal/config"
	"prodflow/internal/request"
)

const userAgent = "prodflow/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyDeadlineApproaching(ctx context.Context, req *request.Request, remaining time.Duration) error
	NotifyStageAdvanced(ctx context.Context, req *request.Request, from, to request.Stage) error
	NotifyRequestCompleted(ctx context.Context, req *request.Request) error
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

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		deadlines:   cfg.Notifications.Deadlines,
		transitions: cfg.Notifications.Transitions,
		completion:  cfg.Notifications.Completion,
		errors:      cfg.Notifications.Errors,
		printer:     message.NewPrinter(language.Spanish),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	deadlines   bool
	transitions bool
	completion  bool
	errors      bool
	printer     *message.Printer
}

func (n *ntfyService) NotifyDeadlineApproaching(ctx context.Context, req *request.Request, remaining time.Duration) error {
	if !n.deadlines || req == nil {
		return nil
	}
	remaining = remaining.Round(time.Minute)
	if remaining < 0 {
		remaining = 0
	}
	msg := fmt.Sprintf("⏰ %s is due in %s (stage: %s)", requestLabel(req), remaining, req.Stage.Label())
	if budget := request.ParseBudget(req.CampaignDetail.Budget); budget > 0 {
		msg += "\nBudget: " + n.printer.Sprintf("COP %d", budget)
	}
	data := payload{
		title:    "Prodflow - Deadline Approaching",
		message:  msg,
		tags:     []string{"prodflow", "deadline", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStageAdvanced(ctx context.Context, req *request.Request, from, to request.Stage) error {
	if !n.transitions || req == nil {
		return nil
	}
	data := payload{
		title:   "Prodflow - Stage Advanced",
		message: fmt.Sprintf("Stage advanced for %s: %s to %s", requestLabel(req), from.Label(), to.Label()),
		tags:    []string{"prodflow", "stage", "advanced"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRequestCompleted(ctx context.Context, req *request.Request) error {
	if !n.completion || req == nil {
		return nil
	}
	data := payload{
		title:    "Prodflow - Request Completed",
		message:  fmt.Sprintf("✅ Completed: %s", requestLabel(req)),
		tags:     []string{"prodflow", "workflow", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
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
		title:    "Prodflow - Error",
		message:  builder.String(),
		tags:     []string{"prodflow", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Prodflow - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"prodflow", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func requestLabel(req *request.Request) string {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return req.Reference
	}
	return name
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

func (noopService) NotifyDeadlineApproaching(context.Context, *request.Request, time.Duration) error {
	return nil
}
func (noopService) NotifyStageAdvanced(context.Context, *request.Request, request.Stage, request.Stage) error {
	return nil
}
func (noopService) NotifyRequestCompleted(context.Context, *request.Request) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error               { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
