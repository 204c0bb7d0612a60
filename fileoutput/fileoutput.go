// Package fileoutput writes run artifacts to disk: the JSON document
// recording one research run's queries, summaries, search history, and
// final report, grounded on original_source/agent/deepsearch.py's
// _safe_filename/_save_deepsearch_data.
package fileoutput

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/deepresearch/core/cancelctl"
	"github.com/deepresearch/core/config"
	"github.com/deepresearch/core/linear"
	"github.com/deepresearch/core/quality"
	"github.com/deepresearch/core/tree"
)

var unsafeFilenameChars = regexp.MustCompile(`[\/\\:\*\?"<>\|]`)

// SafeFilename replaces every filesystem-unsafe character with "_" and
// truncates the result to 80 characters, matching _safe_filename exactly.
func SafeFilename(name string) string {
	safe := unsafeFilenameChars.ReplaceAllString(name, "_")
	if len(safe) > 80 {
		safe = safe[:80]
	}
	return safe
}

// LinearRunArtifact is the JSON document shape for a linear run, matching
// _save_deepsearch_data's field set.
type LinearRunArtifact struct {
	Topic            string                 `json:"topic"`
	Queries          []string               `json:"queries"`
	Summaries        []string               `json:"summaries"`
	SearchRuns       []linearSearchRun      `json:"search_runs"`
	FinalReport      string                 `json:"final_report"`
	Epoch            int                    `json:"epoch"`
	Mode             config.Mode            `json:"mode"`
	QualitySummary   quality.Diagnostics    `json:"quality_summary"`
	QueryCoverage    quality.Coverage       `json:"query_coverage"`
	FreshnessSummary quality.FreshnessSummary `json:"freshness_summary"`
	BudgetStopReason cancelctl.StopReason   `json:"budget_stop_reason,omitempty"`
}

type linearSearchRun struct {
	Query     string   `json:"query"`
	ResultURLs []string `json:"result_urls"`
	Timestamp string   `json:"timestamp"`
}

// TreeRunArtifact is the JSON document shape for a tree run: no direct
// Python equivalent exists for tree mode's artifact, since the original
// only ever saved linear-mode runs, so this mirrors LinearRunArtifact's
// shape with the tree's node snapshots standing in for queries/summaries.
type TreeRunArtifact struct {
	Topic       string          `json:"topic"`
	Nodes       []tree.Snapshot `json:"nodes"`
	FinalReport string          `json:"final_report"`
	Mode        config.Mode     `json:"mode"`
}

// Writer writes run artifacts under a configured save directory, a no-op
// when saving is disabled.
type Writer struct {
	enabled bool
	dir     string
	now     func() time.Time
}

// New builds a Writer from the engine's deepsearch_save_data/
// deepsearch_save_dir settings.
func New(cfg config.Config) *Writer {
	return &Writer{enabled: cfg.DeepsearchSaveData, dir: cfg.DeepsearchSaveDir, now: time.Now}
}

// Enabled reports whether this Writer will actually write anything.
func (w *Writer) Enabled() bool { return w.enabled }

// WriteLinearRun saves a linear.Result as a run artifact, returning the
// path written. A disabled Writer returns ("", nil) without touching the
// filesystem.
func (w *Writer) WriteLinearRun(topic string, res linear.Result) (string, error) {
	if !w.enabled {
		return "", nil
	}
	artifact := LinearRunArtifact{
		Topic:            topic,
		Queries:          res.Queries,
		Summaries:        res.Summaries,
		FinalReport:      res.FinalReport,
		Epoch:            res.EpochsRun,
		Mode:             config.ModeLinear,
		QualitySummary:   res.QualityDiagnostics,
		QueryCoverage:    res.QualityDiagnostics.QueryCoverage,
		FreshnessSummary: res.QualityDiagnostics.Freshness,
		BudgetStopReason: res.BudgetStopReason,
	}
	for _, run := range res.SearchRuns {
		var urls []string
		for _, r := range run.Results {
			if r.URL != "" {
				urls = append(urls, r.URL)
			}
		}
		artifact.SearchRuns = append(artifact.SearchRuns, linearSearchRun{
			Query:      run.Query,
			ResultURLs: urls,
			Timestamp:  run.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return w.write(topic, artifact)
}

// WriteTreeRun saves a tree.Tree's full node set as a run artifact.
func (w *Writer) WriteTreeRun(topic string, t *tree.Tree, finalReport string) (string, error) {
	if !w.enabled {
		return "", nil
	}
	nodes := t.AllNodes()
	snapshots := make([]tree.Snapshot, 0, len(nodes))
	for _, n := range nodes {
		snapshots = append(snapshots, n.Snapshot())
	}
	artifact := TreeRunArtifact{Topic: topic, Nodes: snapshots, FinalReport: finalReport, Mode: config.ModeTree}
	return w.write(topic, artifact)
}

func (w *Writer) write(topic string, artifact any) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("fileoutput: create save dir %s: %w", w.dir, err)
	}

	name := fmt.Sprintf("%s_%s.json", SafeFilename(strings.TrimSpace(topic)), w.now().UTC().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("fileoutput: marshal run artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("fileoutput: write run artifact: %w", err)
	}
	return path, nil
}
