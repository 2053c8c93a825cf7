package bridge

import (
	"context"
	"errors"
	"fmt"
)

// Code classifies a bridge failure.
type Code string

const (
	// CodePermissionDenied means the OS automation permission was refused.
	// Transient in practice (the user can grant it); eligible for retry on
	// the next run.
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// CodeTimeout means the call exceeded its deadline. The external
	// outcome is unknown.
	CodeTimeout Code = "TIMEOUT"

	// CodeTargetNotFound means a named list/calendar/recipient does not
	// exist on the target system.
	CodeTargetNotFound Code = "TARGET_NOT_FOUND"

	// CodeUnknown covers everything else.
	CodeUnknown Code = "UNKNOWN"
)

// Error is a classified bridge failure.
type Error struct {
	Code    Code
	Op      string // "create_reminder", "create_event", "send_message"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bridge %s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("bridge %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the classification from an error.
// Context deadline errors classify as timeouts even when an implementation
// forgot to wrap them; anything unrecognized is CodeUnknown.
func CodeOf(err error) Code {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeUnknown
}

// IsTimeout returns true if the error classifies as a bridge timeout.
func IsTimeout(err error) bool {
	return CodeOf(err) == CodeTimeout
}
