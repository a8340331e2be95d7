package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTransition marks a stage advance with no rule for the
	// requested trigger, or one whose current stage is terminal.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrForbidden marks a mutation attempt by an actor with no rights on
	// the request.
	ErrForbidden = errors.New("forbidden")
	// ErrPreconditionFailed marks an upload-gated advance attempted before
	// the external precondition is satisfied. Retryable once it is.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrValidation marks malformed caller input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing request or actor.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures expected to clear on retry, such as
	// persistence errors.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the caller may retry the operation after
// addressing the surfaced condition.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrPreconditionFailed), errors.Is(err, ErrTransient):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
