package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"scribe/internal/config"
	"scribe/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyJobSubmitted(context.Background(), "session-abc"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	type captured struct {
		title    string
		tags     string
		priority string
		body     string
	}
	var got captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyJobSubmitted(context.Background(), "session-abc"); err != nil {
		t.Fatalf("NotifyJobSubmitted returned error: %v", err)
	}
	if got.title != "Scribe - Job Submitted" {
		t.Fatalf("unexpected title: %q", got.title)
	}
	if got.body != "Transcription job submitted: session-abc" {
		t.Fatalf("unexpected body: %q", got.body)
	}
	if got.tags != "scribe,job,submitted" {
		t.Fatalf("unexpected tags: %q", got.tags)
	}

	if err := svc.NotifyJobCompleted(context.Background(), "session-abc", "/conversation/session-abc"); err != nil {
		t.Fatalf("NotifyJobCompleted returned error: %v", err)
	}
	if got.priority != "high" {
		t.Fatalf("expected high priority for completion, got %q", got.priority)
	}
	if got.body != "Transcription complete: session-abc\nConversation: /conversation/session-abc" {
		t.Fatalf("unexpected body: %q", got.body)
	}

	if err := svc.NotifyJobFailed(context.Background(), "session-abc", errors.New("upload timed out")); err != nil {
		t.Fatalf("NotifyJobFailed returned error: %v", err)
	}
	if got.title != "Scribe - Error" {
		t.Fatalf("unexpected title: %q", got.title)
	}
	if got.body != "Submission failed for session-abc: upload timed out" {
		t.Fatalf("unexpected body: %q", got.body)
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from ntfy failure")
	}
}
