package services_test

import (
	"errors"
	"strings"
	"testing"

	"prodflow/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "workflow", "persist", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"workflow", "persist", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "store", "update", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestRetryable(t *testing.T) {
	precondition := services.Wrap(services.ErrPreconditionFailed, "workflow", "advance", "attach at least one document", nil)
	if !services.Retryable(precondition) {
		t.Fatal("expected precondition failures to be retryable")
	}
	forbidden := services.Wrap(services.ErrForbidden, "workflow", "mutate", "no rights", nil)
	if services.Retryable(forbidden) {
		t.Fatal("expected forbidden to be non-retryable")
	}
	invalid := services.Wrap(services.ErrInvalidTransition, "transition", "next", "terminal", nil)
	if services.Retryable(invalid) {
		t.Fatal("expected invalid transition to be non-retryable")
	}
}
