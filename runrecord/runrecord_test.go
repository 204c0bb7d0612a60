package runrecord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepresearch/core/config"
	"github.com/deepresearch/core/session"
)

func TestFromRunMetaToRunMetaRoundTrips(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	run := session.RunMeta{
		RunID:       "run-1",
		SessionID:   "sess-1",
		Topic:       "ai safety",
		Mode:        config.ModeLinear,
		Status:      session.RunStatusCompleted,
		StartedAt:   now,
		UpdatedAt:   now.Add(time.Minute),
		EpochsRun:   2,
		FinalReport: "report text",
		Metadata:    map[string]any{"k": "v"},
	}

	doc := fromRunMeta(run)
	require.Equal(t, run.RunID, doc.RunID)
	require.Equal(t, run.Mode, doc.Mode)

	back := doc.toRunMeta()
	require.Equal(t, run.RunID, back.RunID)
	require.Equal(t, run.Topic, back.Topic)
	require.Equal(t, run.Mode, back.Mode)
	require.Equal(t, run.EpochsRun, back.EpochsRun)
	require.Equal(t, run.FinalReport, back.FinalReport)
}

func TestSessionDocumentToSessionPreservesEndedAt(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	doc := sessionDocument{SessionID: "sess-1", Status: session.StatusEnded, CreatedAt: now, EndedAt: &now}
	sess := doc.toSession()
	require.Equal(t, "sess-1", sess.ID)
	require.NotNil(t, sess.EndedAt)
	require.Equal(t, now, *sess.EndedAt)
}

func TestSessionDocumentToSessionOmitsEndedAtWhenNil(t *testing.T) {
	doc := sessionDocument{SessionID: "sess-1", Status: session.StatusActive, CreatedAt: time.Now().UTC()}
	sess := doc.toSession()
	require.Nil(t, sess.EndedAt)
}

func TestNewRequiresClientAndDatabase(t *testing.T) {
	_, err := New(nil, Options{})
	require.Error(t, err)
}
