// Package session defines durable research-session lifecycle and run
// metadata primitives, grounded on
// runtime/agent/session/session.go's Session/RunMeta/Store contract,
// adapted from agent-run metadata to research-run metadata (Topic, Mode,
// an epoch counter in place of AgentID/workflow labels).
package session

import (
	"context"
	"errors"
	"time"

	"github.com/deepresearch/core/config"
)

// Session captures durable session lifecycle state: a caller-owned
// conversational container that one or more research runs belong to.
type Session struct {
	ID        string
	Status    Status
	CreatedAt time.Time
	EndedAt   *time.Time
}

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// RunStatus is the lifecycle state of a research run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// RunMeta captures persistent metadata for a single research run.
type RunMeta struct {
	RunID       string
	SessionID   string
	Topic       string
	Mode        config.Mode
	Status      RunStatus
	StartedAt   time.Time
	UpdatedAt   time.Time
	EpochsRun   int
	FinalReport string
	Metadata    map[string]any
}

// Store persists session lifecycle state and run metadata. Implementations
// must be durable: failures are surfaced to callers rather than
// swallowed, matching the teacher's Store contract.
type Store interface {
	// CreateSession creates (or returns) an active session. Idempotent
	// for active sessions; returns ErrSessionEnded for a terminal one.
	CreateSession(ctx context.Context, sessionID string, createdAt time.Time) (Session, error)
	// LoadSession returns ErrSessionNotFound when the session doesn't exist.
	LoadSession(ctx context.Context, sessionID string) (Session, error)
	// EndSession is idempotent: ending an already-ended session returns
	// the stored session unchanged.
	EndSession(ctx context.Context, sessionID string, endedAt time.Time) (Session, error)

	UpsertRun(ctx context.Context, run RunMeta) error
	// LoadRun returns ErrRunNotFound when missing.
	LoadRun(ctx context.Context, runID string) (RunMeta, error)
	// ListRunsBySession returns every run for sessionID, optionally
	// filtered to the given statuses (all runs when empty).
	ListRunsBySession(ctx context.Context, sessionID string, statuses []RunStatus) ([]RunMeta, error)
}

var (
	ErrSessionNotFound = errors.New("session: not found")
	ErrSessionEnded    = errors.New("session: already ended")
	ErrRunNotFound     = errors.New("session: run not found")
)
