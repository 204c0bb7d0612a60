// Package cancelctl implements cooperative cancellation tokens with
// checkpoints and LIFO cleanup, plus a process-wide registry and
// background janitor, matching the research engine's cancellation design.
package cancelctl

import (
	"context"
	"sync"
	"time"

	"github.com/deepresearch/core/errs"
	"github.com/deepresearch/core/telemetry"
)

// Status is the lifecycle state of a token.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Checkpoint records a named cancellation poll site and when it was hit.
type Checkpoint struct {
	Name string
	At   time.Time
}

// CleanupFunc runs once, in LIFO registration order, when a token is
// cancelled. Failures are logged and never prevent remaining cleanups
// from running.
type CleanupFunc func(ctx context.Context) error

// Token is a single task's cancellation handle.
type Token struct {
	TaskID      string
	CreatedAt   time.Time
	CancelledAt *time.Time
	Metadata    map[string]any

	mu          sync.Mutex
	cancelled   bool
	reason      string
	status      Status
	checkpoints []Checkpoint
	cleanups    []CleanupFunc
	telem       telemetry.Bundle
}

func newToken(taskID string, metadata map[string]any, telem telemetry.Bundle) *Token {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Token{
		TaskID:    taskID,
		CreatedAt: time.Now(),
		Metadata:  metadata,
		status:    StatusPending,
		telem:     telem,
	}
}

// IsCancelled reports whether the token has been cancelled.
func (t *Token) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// CurrentStatus returns the token's current lifecycle status.
func (t *Token) CurrentStatus() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// RegisterCleanup appends a cleanup callback. Cleanups run in LIFO order
// (most recently registered first) exactly once, the first time the token
// is cancelled.
func (t *Token) RegisterCleanup(fn CleanupFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanups = append(t.cleanups, fn)
}

// Cancel marks the token cancelled, records reason and timestamp, and runs
// cleanup callbacks in LIFO order. Calling Cancel a second time is a no-op
// (idempotent) and does not re-run cleanups.
func (t *Token) Cancel(ctx context.Context, reason string) {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	t.reason = reason
	now := time.Now()
	t.CancelledAt = &now
	t.status = StatusCancelled
	cleanups := make([]CleanupFunc, len(t.cleanups))
	copy(cleanups, t.cleanups)
	t.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		t.runCleanup(ctx, cleanups[i])
	}
}

func (t *Token) runCleanup(ctx context.Context, fn CleanupFunc) {
	defer func() {
		if r := recover(); r != nil {
			t.telem.Logger.Warn(ctx, "cancelctl: cleanup callback panicked", "task_id", t.TaskID, "recover", r)
		}
	}()
	if err := fn(ctx); err != nil {
		t.telem.Logger.Warn(ctx, "cancelctl: cleanup callback failed", "task_id", t.TaskID, "error", err.Error())
	}
}

// Check raises a cancellation error if the token has been cancelled;
// otherwise it appends {checkpoint, now} to the checkpoint trail and
// returns nil.
func (t *Token) Check(checkpoint string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return errs.Cancelled(t.TaskID, t.lastCheckpointLocked(), t.reason)
	}
	t.checkpoints = append(t.checkpoints, Checkpoint{Name: checkpoint, At: time.Now()})
	return nil
}

func (t *Token) lastCheckpointLocked() string {
	if len(t.checkpoints) == 0 {
		return ""
	}
	return t.checkpoints[len(t.checkpoints)-1].Name
}

// Checkpoints returns a copy of the checkpoint trail recorded so far.
func (t *Token) Checkpoints() []Checkpoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Checkpoint, len(t.checkpoints))
	copy(out, t.checkpoints)
	return out
}

// transition moves the token between non-terminal statuses. Terminal
// statuses (completed/cancelled/failed) are only set by Cancel/Scoped.
func (t *Token) transition(to Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusCancelled {
		return
	}
	switch t.status {
	case StatusPending, StatusPaused:
		t.status = to
	case StatusRunning:
		if to == StatusPaused || to == StatusCompleted || to == StatusFailed {
			t.status = to
		}
	}
}

// Scoped marks the token running on entry and returns a function the
// caller must invoke on exit with the stage's outcome error (nil for
// success). A cancellation error leaves the token's terminal cancelled
// status untouched; any other error marks the token failed.
func (t *Token) Scoped() func(err error) {
	t.transition(StatusRunning)
	return func(err error) {
		switch {
		case err == nil:
			t.transition(StatusCompleted)
		case errs.IsCancelled(err):
			// already cancelled; nothing to do.
		default:
			t.transition(StatusFailed)
		}
	}
}
