package notifications_test

import (
	"testing"

	"scribe/internal/notifications"
)

func TestHubUpsertAppendsAndReplaces(t *testing.T) {
	hub := notifications.NewHub()
	hub.Upsert(notifications.Notification{ID: "visit.wav", Value: 10, Type: notifications.TypeInfo})
	hub.Upsert(notifications.Notification{ID: "session-abc", Value: 20, Type: notifications.TypeInfo})
	hub.Upsert(notifications.Notification{ID: "visit.wav", Value: 50, Type: notifications.TypeInfo})

	entries := hub.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Replacement preserves insertion order.
	if entries[0].ID != "visit.wav" || entries[1].ID != "session-abc" {
		t.Fatalf("unexpected order: %v", entries)
	}
	if entries[0].Value != 50 {
		t.Fatalf("expected replaced value 50, got %d", entries[0].Value)
	}
}

func TestHubClampsRegressingInfoValues(t *testing.T) {
	hub := notifications.NewHub()
	hub.Upsert(notifications.Notification{ID: "session-abc", Value: 40, Type: notifications.TypeInfo})
	hub.Upsert(notifications.Notification{ID: "session-abc", Value: 25, Type: notifications.TypeInfo})

	entry, ok := hub.Get("session-abc")
	if !ok {
		t.Fatal("entry missing")
	}
	if entry.Value != 40 {
		t.Fatalf("expected clamped value 40, got %d", entry.Value)
	}

	// Terminal entries pass through unclamped.
	hub.Upsert(notifications.Notification{ID: "session-abc", Value: 0, Type: notifications.TypeError})
	entry, _ = hub.Get("session-abc")
	if entry.Value != 0 || entry.Type != notifications.TypeError {
		t.Fatalf("expected terminal error at value 0, got %+v", entry)
	}
}

func TestHubIgnoresEmptyID(t *testing.T) {
	hub := notifications.NewHub()
	hub.Upsert(notifications.Notification{Value: 10, Type: notifications.TypeInfo})
	if entries := hub.Snapshot(); len(entries) != 0 {
		t.Fatalf("expected no entries, got %v", entries)
	}
}

func TestHubSubscribeDeliversUpserts(t *testing.T) {
	hub := notifications.NewHub()
	events, cancel := hub.Subscribe()
	defer cancel()

	hub.Upsert(notifications.Notification{ID: "session-abc", Value: 20, Type: notifications.TypeInfo})
	hub.Upsert(notifications.Notification{ID: "session-abc", Value: 100, Type: notifications.TypeSuccess})

	first := <-events
	if first.Value != 20 {
		t.Fatalf("unexpected first event: %+v", first)
	}
	second := <-events
	if second.Type != notifications.TypeSuccess || !second.Terminal() {
		t.Fatalf("unexpected second event: %+v", second)
	}

	cancel()
	if _, open := <-events; open {
		t.Fatal("expected channel closed after cancel")
	}
}
