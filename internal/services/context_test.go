package services_test

import (
	"context"
	"testing"

	"scribe/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobName(ctx, "session-abc")
	ctx = services.WithPhase(ctx, "upload")
	ctx = services.WithRequestID(ctx, "req-123")

	if name, ok := services.JobNameFromContext(ctx); !ok || name != "session-abc" {
		t.Fatalf("unexpected job name: %v %v", name, ok)
	}
	if phase, ok := services.PhaseFromContext(ctx); !ok || phase != "upload" {
		t.Fatalf("unexpected phase: %v %v", phase, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestPhaseBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPhase(ctx, "")
	if _, ok := services.PhaseFromContext(ctx); ok {
		t.Fatal("expected no phase value")
	}
}
