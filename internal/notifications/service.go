package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scribe/internal/config"
)

const userAgent = "Scribe-Go/0.1.0"

// Service mirrors terminal submission outcomes to a push channel.
type Service interface {
	NotifyJobSubmitted(ctx context.Context, jobName string) error
	NotifyJobCompleted(ctx context.Context, jobName, conversationPath string) error
	NotifyJobUnconfirmed(ctx context.Context, jobName string) error
	NotifyJobFailed(ctx context.Context, jobName string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a push service backed by ntfy when configured.
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

func (n *ntfyService) NotifyJobSubmitted(ctx context.Context, jobName string) error {
	jobName = strings.TrimSpace(jobName)
	data := payload{
		title:   "Scribe - Job Submitted",
		message: fmt.Sprintf("Transcription job submitted: %s", jobName),
		tags:    []string{"scribe", "job", "submitted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, jobName, conversationPath string) error {
	jobName = strings.TrimSpace(jobName)
	message := fmt.Sprintf("Transcription complete: %s", jobName)
	if conversationPath = strings.TrimSpace(conversationPath); conversationPath != "" {
		message = fmt.Sprintf("%s\nConversation: %s", message, conversationPath)
	}
	data := payload{
		title:    "Scribe - Job Complete",
		message:  message,
		tags:     []string{"scribe", "job", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobUnconfirmed(ctx context.Context, jobName string) error {
	jobName = strings.TrimSpace(jobName)
	data := payload{
		title:   "Scribe - Job Unconfirmed",
		message: fmt.Sprintf("Job %s was accepted but returned no recognizable status\nManual review required", jobName),
		tags:    []string{"scribe", "job", "unconfirmed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, jobName string, err error) error {
	var builder strings.Builder
	builder.WriteString("Submission failed")
	if jobName = strings.TrimSpace(jobName); jobName != "" {
		builder.WriteString(" for ")
		builder.WriteString(jobName)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Scribe - Error",
		message:  builder.String(),
		tags:     []string{"scribe", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Scribe - Test",
		message:  "Notification system test",
		tags:     []string{"scribe", "test"},
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

func (noopService) NotifyJobSubmitted(context.Context, string) error           { return nil }
func (noopService) NotifyJobCompleted(context.Context, string, string) error   { return nil }
func (noopService) NotifyJobUnconfirmed(context.Context, string) error         { return nil }
func (noopService) NotifyJobFailed(context.Context, string, error) error       { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
