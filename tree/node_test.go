package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshotCollapsesFindingsAndSourcesToCounts(t *testing.T) {
	n := newNode("ai safety", 0, "", 0.9, time.Now())
	n.Sources = []string{"https://a.example", "https://b.example"}
	n.Summary = "a summary of the findings"
	n.MarkComplete("", time.Now())

	snap := n.Snapshot()
	require.Equal(t, 0, snap.FindingsCount)
	require.Equal(t, 2, snap.SourcesCount)
	require.Equal(t, len(n.Summary), snap.SummaryLength)
	require.Equal(t, StatusCompleted, snap.Status)
	require.NotEmpty(t, snap.CompletedAt)
}

func TestSnapshotOmitsCompletedAtWhenZero(t *testing.T) {
	n := newNode("topic", 0, "", 1.0, time.Now())
	snap := n.Snapshot()
	require.Empty(t, snap.CompletedAt)
}

func TestNewNodeGeneratesShortID(t *testing.T) {
	n := newNode("topic", 0, "", 1.0, time.Now())
	require.Len(t, n.ID, 8)
}
