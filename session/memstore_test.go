package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateSessionIsIdempotentForActiveSession(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	now := time.Now()

	first, err := s.CreateSession(ctx, "sess-1", now)
	require.NoError(t, err)
	second, err := s.CreateSession(ctx, "sess-1", now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCreateSessionRejectsEndedSession(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_, err := s.CreateSession(ctx, "sess-1", time.Now())
	require.NoError(t, err)
	_, err = s.EndSession(ctx, "sess-1", time.Now())
	require.NoError(t, err)

	_, err = s.CreateSession(ctx, "sess-1", time.Now())
	require.ErrorIs(t, err, ErrSessionEnded)
}

func TestLoadSessionReturnsNotFound(t *testing.T) {
	s := NewMemStore()
	_, err := s.LoadSession(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEndSessionIsIdempotent(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_, err := s.CreateSession(ctx, "sess-1", time.Now())
	require.NoError(t, err)

	first, err := s.EndSession(ctx, "sess-1", time.Now())
	require.NoError(t, err)
	second, err := s.EndSession(ctx, "sess-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, first.EndedAt, second.EndedAt)
}

func TestUpsertRunAndLoadRunRoundTrip(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	run := RunMeta{RunID: "run-1", SessionID: "sess-1", Topic: "ai safety", Status: RunStatusRunning, Metadata: map[string]any{"k": "v"}}
	require.NoError(t, s.UpsertRun(ctx, run))

	loaded, err := s.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, "ai safety", loaded.Topic)
	require.NotZero(t, loaded.StartedAt)

	loaded.Metadata["k"] = "mutated"
	reloaded, _ := s.LoadRun(ctx, "run-1")
	require.Equal(t, "v", reloaded.Metadata["k"], "expected defensive copy")
}

func TestLoadRunReturnsNotFound(t *testing.T) {
	s := NewMemStore()
	_, err := s.LoadRun(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsBySessionFiltersByStatus(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.UpsertRun(ctx, RunMeta{RunID: "r1", SessionID: "sess-1", Status: RunStatusCompleted}))
	require.NoError(t, s.UpsertRun(ctx, RunMeta{RunID: "r2", SessionID: "sess-1", Status: RunStatusRunning}))
	require.NoError(t, s.UpsertRun(ctx, RunMeta{RunID: "r3", SessionID: "sess-2", Status: RunStatusCompleted}))

	completed, err := s.ListRunsBySession(ctx, "sess-1", []RunStatus{RunStatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, "r1", completed[0].RunID)

	all, err := s.ListRunsBySession(ctx, "sess-1", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
