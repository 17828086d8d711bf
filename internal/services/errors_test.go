package services_test

import (
	"errors"
	"strings"
	"testing"

	"scribe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "mediastore", "upload", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"mediastore", "upload", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "workflow", "poll", "", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestWrapWithoutDetailUsesFallback(t *testing.T) {
	err := services.Wrap(services.ErrTransient, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsValidation(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "workflow", "prepare", "invalid", nil)
	if !services.IsValidation(validationErr) {
		t.Fatalf("expected validation marker to be detected, got %v", validationErr)
	}
	if services.IsValidation(errors.New("boom")) {
		t.Fatal("expected plain error to not classify as validation")
	}
	if services.IsValidation(nil) {
		t.Fatal("expected nil error to not classify as validation")
	}
}
