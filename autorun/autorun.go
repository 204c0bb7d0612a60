// Package autorun implements the Auto Runner: it resolves which
// exploration mode to use (tree vs linear) from the configured precedence
// and a per-call override, runs it, and falls back to the linear runner
// when tree exploration fails catastrophically — grounded on
// original_source/agent/deepsearch.py's top-level dispatch between
// run_deepsearch (linear) and TreeExplorer.run_async (tree), reimplemented
// in Go as an explicit precedence resolver rather than the original's
// settings-flag branching scattered across call sites.
package autorun

import (
	"context"
	"time"

	"github.com/deepresearch/core/cancelctl"
	"github.com/deepresearch/core/config"
	"github.com/deepresearch/core/errs"
	"github.com/deepresearch/core/eventbus"
	"github.com/deepresearch/core/explorer"
	"github.com/deepresearch/core/linear"
	"github.com/deepresearch/core/quality"
	"github.com/deepresearch/core/search"
	"github.com/deepresearch/core/telemetry"
	"github.com/deepresearch/core/tree"
)

// Mode is re-exported so callers don't need to import config solely to
// pass an override.
type Mode = config.Mode

// RunArtifacts bundles everything downstream consumers (the CLI's file
// output, a UI replaying the event log) need to render a finished run,
// regardless of which mode produced it: ResearchTree stays nil for
// ModeLinear since there's no tree to snapshot.
type RunArtifacts struct {
	Mode             Mode
	Queries          []string
	ResearchTree     *tree.TreeSnapshot
	QualitySummary   quality.Diagnostics
	QueryCoverage    quality.Coverage
	FreshnessSummary quality.FreshnessSummary
	BudgetStopReason cancelctl.StopReason
}

// Outcome is the result of one autorun, tagged with which mode actually
// produced it — ModeTree's FinalReport is the tree's MergedSummary,
// ModeLinear's is the linear runner's FinalReport.
type Outcome struct {
	Mode         Mode
	FinalReport  string
	Sources      []string
	FellBackFrom Mode // zero value when no fallback occurred
	Artifacts    RunArtifacts
}

// Runner resolves a mode and dispatches to the tree explorer or the
// linear runner.
type Runner struct {
	treeExplorer *explorer.Explorer
	linearRunner *linear.Runner
	bus          *eventbus.Bus
	log          telemetry.Logger

	treeEnabledByDefault bool
	configuredMode       config.Mode
	freshnessMinKnown    int
	freshnessMinRatio    float64
}

// New builds a Runner. Either dependency may be nil if that mode will
// never be selected by the caller's configuration.
func New(treeExplorer *explorer.Explorer, linearRunner *linear.Runner, bus *eventbus.Bus, log telemetry.Logger, cfg config.Config) *Runner {
	minKnown := cfg.FreshnessWarningMinKnown
	if minKnown <= 0 {
		minKnown = 3
	}
	minRatio := cfg.FreshnessWarningMinRatio
	if minRatio <= 0 {
		minRatio = 0.4
	}
	return &Runner{
		treeExplorer:         treeExplorer,
		linearRunner:         linearRunner,
		bus:                  bus,
		log:                  log,
		treeEnabledByDefault: cfg.TreeExplorationEnabled,
		configuredMode:       cfg.DeepsearchMode,
		freshnessMinKnown:    minKnown,
		freshnessMinRatio:    minRatio,
	}
}

// resolveMode applies the precedence: an explicit per-call override wins,
// else the configured deepsearch_mode, else the tree_exploration_enabled
// flag decides between tree and linear when the configured mode is
// ModeAuto.
func (r *Runner) resolveMode(override Mode) Mode {
	if override != "" {
		return override
	}
	switch r.configuredMode {
	case config.ModeTree, config.ModeLinear:
		return r.configuredMode
	default:
		if r.treeEnabledByDefault {
			return config.ModeTree
		}
		return config.ModeLinear
	}
}

// Run resolves the mode (override wins when non-empty) and executes it.
// A catastrophic tree-exploration failure (the explorer's root branch
// itself failing, per explorer.Run's documented error contract) falls
// back to the linear runner rather than surfacing the error, matching
// the Auto Runner's resilience contract; a linear-runner failure is never
// retried since linear is already the fallback path.
func (r *Runner) Run(ctx context.Context, tok *cancelctl.Token, topic string, override Mode) (Outcome, error) {
	mode := r.resolveMode(override)

	if mode == config.ModeTree {
		outcome, err := r.runTree(ctx, tok, topic)
		if err == nil {
			return outcome, nil
		}
		if !errs.IsCancelled(err) {
			r.log.Warn(ctx, "tree exploration failed, falling back to linear", "topic", topic, "error", err.Error())
			fallback, ferr := r.runLinear(ctx, tok, topic)
			if ferr != nil {
				return Outcome{}, ferr
			}
			fallback.FellBackFrom = config.ModeTree
			return fallback, nil
		}
		return Outcome{}, err
	}

	return r.runLinear(ctx, tok, topic)
}

func (r *Runner) runTree(ctx context.Context, tok *cancelctl.Token, topic string) (Outcome, error) {
	if r.treeExplorer == nil {
		return Outcome{}, errs.New(errs.KindConfig, "tree mode selected but no explorer configured")
	}
	t, err := r.treeExplorer.Run(ctx, tok, topic)
	if err != nil {
		return Outcome{}, err
	}

	var queries []string
	seenQuery := map[string]struct{}{}
	for _, n := range t.AllNodes() {
		for _, q := range n.Queries {
			if _, ok := seenQuery[q]; !ok {
				seenQuery[q] = struct{}{}
				queries = append(queries, q)
			}
		}
	}

	findings := t.AllFindings()
	results := make([]search.Result, 0, len(findings))
	for _, f := range findings {
		results = append(results, f.Result)
	}

	diag := quality.ComputeDiagnostics(topic, queries, results, time.Now().UTC(), r.freshnessMinKnown, r.freshnessMinRatio)
	snapshot := t.Snapshot()

	return Outcome{
		Mode:        config.ModeTree,
		FinalReport: t.MergedSummary(),
		Sources:     t.AllSources(),
		Artifacts: RunArtifacts{
			Mode:             config.ModeTree,
			Queries:          queries,
			ResearchTree:     &snapshot,
			QualitySummary:   diag,
			QueryCoverage:    diag.QueryCoverage,
			FreshnessSummary: diag.Freshness,
		},
	}, nil
}

func (r *Runner) runLinear(ctx context.Context, tok *cancelctl.Token, topic string) (Outcome, error) {
	if r.linearRunner == nil {
		return Outcome{}, errs.New(errs.KindConfig, "linear mode selected but no runner configured")
	}
	res, err := r.linearRunner.Run(ctx, tok, topic)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Mode:        config.ModeLinear,
		FinalReport: res.FinalReport,
		Sources:     res.Sources,
		Artifacts: RunArtifacts{
			Mode:             config.ModeLinear,
			Queries:          res.Queries,
			QualitySummary:   res.QualityDiagnostics,
			QueryCoverage:    res.QualityDiagnostics.QueryCoverage,
			FreshnessSummary: res.QualityDiagnostics.Freshness,
			BudgetStopReason: res.BudgetStopReason,
		},
	}, nil
}
