// Package errs defines the error taxonomy shared by every research-engine
// stage: cancellation, budget exhaustion, provider failures, model failures,
// configuration normalization, and unexpected internal faults.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error into the taxonomy described by the research
// engine's error-handling design.
type Kind string

const (
	// KindCancelled marks cooperative termination requested via a
	// cancellation token.
	KindCancelled Kind = "cancelled"
	// KindBudgetExceeded marks a non-exceptional early stop caused by a
	// time or token budget guard.
	KindBudgetExceeded Kind = "budget_exceeded"
	// KindProvider marks a single search-provider call failure.
	KindProvider Kind = "provider_error"
	// KindModel marks a chat-model invocation failure or malformed
	// response.
	KindModel Kind = "model_error"
	// KindConfig marks an unrecognized configuration value normalized to
	// a documented default.
	KindConfig Kind = "config_error"
	// KindInternal marks an unexpected fault inside a stage.
	KindInternal Kind = "internal_error"
)

// Error is the concrete error type returned by every package in this
// module. It carries a Kind for programmatic dispatch plus an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// TaskID identifies the cancellation-scoped task that produced the
	// error, when applicable (KindCancelled).
	TaskID string
	// Checkpoint names the last checkpoint reached before cancellation,
	// when applicable (KindCancelled).
	Checkpoint string
	// Reason carries the human-authored cancellation/stop reason.
	Reason string

	// Retryable marks a KindProvider/KindModel error as worth retrying
	// (rate limiting, transient transport failure) rather than a
	// permanent rejection (bad request, auth failure).
	Retryable bool
	// RetryAfter is the provider-suggested backoff before retrying, when
	// known; zero means "retry immediately" (e.g. try the next provider
	// in the fallback chain right away).
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is comparisons by Kind, ignoring message/cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// New constructs an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Cancelled constructs a KindCancelled error carrying the task id, the last
// checkpoint reached, and the cancellation reason.
func Cancelled(taskID, checkpoint, reason string) *Error {
	return &Error{
		Kind:       KindCancelled,
		Message:    fmt.Sprintf("task %q cancelled at checkpoint %q", taskID, checkpoint),
		TaskID:     taskID,
		Checkpoint: checkpoint,
		Reason:     reason,
	}
}

// BudgetExceeded constructs a KindBudgetExceeded error naming the exhausted
// budget dimension ("time_exceeded" or "tokens_exceeded").
func BudgetExceeded(reason string) *Error {
	return &Error{Kind: KindBudgetExceeded, Message: "budget exceeded", Reason: reason}
}

// WrapRetryable constructs a KindProvider error like Wrap, additionally
// recording that the failure is retryable and, when known, how long to
// wait before retrying. Grounded on the teacher's isRateLimited/
// retryhint_provider pattern of attaching structured retry guidance to a
// failed call rather than leaving callers to guess from the bare error.
func WrapRetryable(cause error, retryAfter time.Duration, format string, args ...any) *Error {
	return &Error{
		Kind:       KindProvider,
		Message:    fmt.Sprintf(format, args...),
		Cause:      cause,
		Retryable:  true,
		RetryAfter: retryAfter,
	}
}

// IsRetryable reports whether err (or any error it wraps) was marked
// Retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// RetryAfter returns the retry-after duration recorded on err, or zero if
// err isn't a retryable *Error.
func RetryAfter(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

// IsCancelled reports whether err (or any error it wraps) is a
// KindCancelled error.
func IsCancelled(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindCancelled
}

// IsBudgetExceeded reports whether err (or any error it wraps) is a
// KindBudgetExceeded error.
func IsBudgetExceeded(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindBudgetExceeded
}
