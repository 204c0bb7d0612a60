package fileoutput

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepresearch/core/config"
	"github.com/deepresearch/core/linear"
	"github.com/deepresearch/core/search"
	"github.com/deepresearch/core/tree"
)

func TestSafeFilenameReplacesUnsafeCharsAndTruncates(t *testing.T) {
	in := strings.Repeat("a", 90) + `:*?"<>|\/`
	out := SafeFilename(in)
	require.Len(t, out, 80)
	require.NotContains(t, out, ":")
	require.NotContains(t, out, "/")
}

func TestWriteLinearRunIsNoopWhenDisabled(t *testing.T) {
	w := New(config.Config{DeepsearchSaveData: false, DeepsearchSaveDir: t.TempDir()})
	path, err := w.WriteLinearRun("topic", linear.Result{})
	require.NoError(t, err)
	require.Empty(t, path)
}

func TestWriteLinearRunWritesJSONArtifact(t *testing.T) {
	dir := t.TempDir()
	w := New(config.Config{DeepsearchSaveData: true, DeepsearchSaveDir: dir})

	res := linear.Result{
		Queries:     []string{"q1"},
		Summaries:   []string{"s1"},
		FinalReport: "report",
		EpochsRun:   1,
		SearchRuns: []linear.SearchRun{
			{Query: "q1", Results: []search.Result{{URL: "https://a.example"}}, Timestamp: time.Now()},
		},
	}
	path, err := w.WriteLinearRun("my/topic:name", res)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(path, dir))
	require.NotContains(t, filepath.Base(path), "/")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got LinearRunArtifact
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "report", got.FinalReport)
	require.Equal(t, config.ModeLinear, got.Mode)
	require.Len(t, got.SearchRuns, 1)
	require.Equal(t, []string{"https://a.example"}, got.SearchRuns[0].ResultURLs)
}

func TestWriteTreeRunWritesNodeSnapshots(t *testing.T) {
	dir := t.TempDir()
	w := New(config.Config{DeepsearchSaveData: true, DeepsearchSaveDir: dir})

	tr := tree.New(1, 2, time.Now())
	root := tr.CreateRoot("topic", time.Now())
	root.MarkComplete("root summary", time.Now())

	path, err := w.WriteTreeRun("topic", tr, "final report")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got TreeRunArtifact
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Nodes, 1)
	require.Equal(t, "final report", got.FinalReport)
	require.Equal(t, config.ModeTree, got.Mode)
}
