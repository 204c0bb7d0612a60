package quality

import (
	"time"

	"github.com/deepresearch/core/search"
)

// WarningLowFreshnessForTimeSensitiveQuery is the sole non-empty value
// Diagnostics.FreshnessWarning ever takes, matching
// QualityDiagnostics.freshness_warning's closed enum.
const WarningLowFreshnessForTimeSensitiveQuery = "low_freshness_for_time_sensitive_query"

// freshnessWarningMessage is the user-facing note appended to a final
// report when FreshnessWarning fires.
const freshnessWarningMessage = "提示：该研究主题具有时效性，但新鲜来源占比较低，建议补充更多近期资料。"

// Diagnostics bundles the query-coverage and source-freshness signals
// computed at the end of a run, matching QualityDiagnostics.
type Diagnostics struct {
	QueryCoverage    Coverage
	Freshness        FreshnessSummary
	TimeSensitive    bool
	FreshnessWarning string
}

// ComputeDiagnostics scores queries for dimension coverage and results for
// freshness, then raises FreshnessWarning when topic reads as time-sensitive
// and the known-dated results skew stale: at least minKnown results must
// have a parseable date (otherwise the signal is too thin to trust) and the
// fresh-30-day ratio among them must fall below minRatio.
func ComputeDiagnostics(topic string, queries []string, results []search.Result, now time.Time, minKnown int, minRatio float64) Diagnostics {
	d := Diagnostics{
		QueryCoverage: AnalyzeQueryCoverage(queries),
		Freshness:     SummarizeFreshness(results, now),
		TimeSensitive: IsTimeSensitiveTopic(topic),
	}
	if d.TimeSensitive && d.Freshness.KnownCount >= minKnown && d.Freshness.Fresh30Ratio < minRatio {
		d.FreshnessWarning = WarningLowFreshnessForTimeSensitiveQuery
	}
	return d
}

// FreshnessWarningNote renders the user-facing message appended to a final
// report when d.FreshnessWarning is set, or "" otherwise.
func (d Diagnostics) FreshnessWarningNote() string {
	if d.FreshnessWarning == "" {
		return ""
	}
	return freshnessWarningMessage
}
