package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrExternalTool        = errors.New("external tool failure")
	ErrStageAborted        = errors.New("stage aborted")
	ErrConfiguration       = errors.New("configuration error")
	ErrTimeout             = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind labels returned by Classify.
const (
	KindInvalidArgument     = "invalid_argument"
	KindResourceUnavailable = "resource_unavailable"
	KindExternalTool        = "external_tool_failure"
	KindStageAborted        = "stage_aborted"
	KindConfiguration       = "configuration"
	KindUnknown             = "unknown"
)

// Classify maps an error to its taxonomy label. Cancellation always wins so an
// aborted job is never reported as a tool failure.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStageAborted), errors.Is(err, context.Canceled):
		return KindStageAborted
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrResourceUnavailable):
		return KindResourceUnavailable
	case errors.Is(err, ErrExternalTool), errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindExternalTool
	default:
		return KindUnknown
	}
}

// Aborted reports whether err represents job cancellation.
func Aborted(err error) bool {
	return errors.Is(err, ErrStageAborted) || errors.Is(err, context.Canceled)
}

// FromContext converts a finished context into the matching taxonomy error.
// It returns nil while the context is still live.
func FromContext(ctx context.Context, stage string) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrTimeout, stage, "", "deadline exceeded", err)
	default:
		return Wrap(ErrStageAborted, stage, "", "job cancelled", err)
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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
