// Package config defines the explicit, immutable configuration surface for
// the research engine. Every option named in the specification's external
// interface is an enumerated struct field rather than a free-form map, and
// defaults are applied by Load/New so callers always observe a fully
// populated Config.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects the exploration strategy used by the auto runner.
type Mode string

const (
	// ModeAuto lets the auto runner pick linear or tree exploration.
	ModeAuto Mode = "auto"
	// ModeTree forces hierarchical tree exploration.
	ModeTree Mode = "tree"
	// ModeLinear forces multi-epoch linear exploration.
	ModeLinear Mode = "linear"
)

// SearchStrategy selects how the multi-provider orchestrator walks a
// provider profile.
type SearchStrategy string

const (
	// StrategyFallback tries providers in profile order and stops at the
	// first one returning at least one result.
	StrategyFallback SearchStrategy = "fallback"
	// StrategyProfile behaves like fallback but only considers providers
	// named in the profile.
	StrategyProfile SearchStrategy = "profile"
)

// Config is the complete, immutable set of options recognized by the
// research engine. All fields are optional; Load/New fill in documented
// defaults for zero values.
type Config struct {
	// Scheduling
	DeepsearchMode         Mode `yaml:"deepsearch_mode"`
	TreeExplorationEnabled bool `yaml:"tree_exploration_enabled"`
	TreeMaxDepth           int  `yaml:"tree_max_depth"`
	TreeMaxBranches        int  `yaml:"tree_max_branches"`
	TreeQueriesPerBranch   int  `yaml:"tree_queries_per_branch"`
	TreeParallelBranches   int  `yaml:"tree_parallel_branches"`
	DeepsearchMaxEpochs    int  `yaml:"deepsearch_max_epochs"`
	DeepsearchQueryNum     int  `yaml:"deepsearch_query_num"`
	DeepsearchResultsPerQuery int `yaml:"deepsearch_results_per_query"`

	// Budgets
	DeepsearchMaxSeconds float64 `yaml:"deepsearch_max_seconds"`
	DeepsearchMaxTokens  int     `yaml:"deepsearch_max_tokens"`

	// Quality
	FreshnessWarningMinKnown int     `yaml:"deepsearch_freshness_warning_min_known"`
	FreshnessWarningMinRatio float64 `yaml:"deepsearch_freshness_warning_min_ratio"`
	UseGapAnalysis           bool    `yaml:"deepsearch_use_gap_analysis"`
	EventResultsLimit        int     `yaml:"deepsearch_event_results_limit"`
	EnableCrawler            bool    `yaml:"deepsearch_enable_crawler"`

	// Search strategy
	SearchStrategy   SearchStrategy    `yaml:"search_strategy"`
	ProviderAPIKeys  map[string]string `yaml:"provider_api_keys"`

	// Model routing
	PrimaryModel    string `yaml:"primary_model"`
	ReasoningModel  string `yaml:"reasoning_model"`
	PlannerModel    string `yaml:"planner_model"`
	ResearcherModel string `yaml:"researcher_model"`
	WriterModel     string `yaml:"writer_model"`
	EvaluatorModel  string `yaml:"evaluator_model"`
	CriticModel     string `yaml:"critic_model"`

	// Persistence
	DeepsearchSaveData bool   `yaml:"deepsearch_save_data"`
	DeepsearchSaveDir  string `yaml:"deepsearch_save_dir"`
}

// Option mutates a Config during construction.
type Option func(*Config)

// New returns a Config with every documented default applied, then layers
// opts on top.
func New(opts ...Option) Config {
	c := Config{
		DeepsearchMode:            ModeAuto,
		TreeExplorationEnabled:    true,
		TreeMaxDepth:              2,
		TreeMaxBranches:           4,
		TreeQueriesPerBranch:      3,
		TreeParallelBranches:      3,
		DeepsearchMaxEpochs:       3,
		DeepsearchQueryNum:        5,
		DeepsearchResultsPerQuery: 5,
		DeepsearchMaxSeconds:      0,
		DeepsearchMaxTokens:       0,
		FreshnessWarningMinKnown:  3,
		FreshnessWarningMinRatio:  0.4,
		UseGapAnalysis:            true,
		EventResultsLimit:         5,
		SearchStrategy:            StrategyFallback,
		ProviderAPIKeys:           map[string]string{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.normalize()
	return c
}

// WithMode overrides the scheduling mode.
func WithMode(m Mode) Option { return func(c *Config) { c.DeepsearchMode = m } }

// WithModels overrides the per-task model routing overrides.
func WithModels(primary, reasoning string) Option {
	return func(c *Config) {
		c.PrimaryModel = primary
		c.ReasoningModel = reasoning
	}
}

// Load reads YAML configuration from path, applies documented defaults for
// any zero-value field, and returns the merged Config. An unrecognized
// Mode or SearchStrategy is normalized to its documented default rather
// than rejected (KindConfig degradation, spec §7).
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	c := New()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.normalize()
	return c, nil
}

// normalize clamps/repairs fields that arrived as zero values from a
// partially specified YAML document and normalizes unrecognized enum
// values to their documented default. The replacement is silent: normalize
// logs nothing and records no warning, so a caller cannot tell afterwards
// that a value was replaced.
func (c *Config) normalize() {
	if c.TreeMaxDepth <= 0 {
		c.TreeMaxDepth = 2
	}
	if c.TreeMaxBranches <= 0 {
		c.TreeMaxBranches = 4
	}
	if c.TreeQueriesPerBranch <= 0 {
		c.TreeQueriesPerBranch = 3
	}
	if c.TreeParallelBranches <= 0 {
		c.TreeParallelBranches = 3
	}
	if c.DeepsearchMaxEpochs <= 0 {
		c.DeepsearchMaxEpochs = 3
	}
	if c.DeepsearchQueryNum <= 0 {
		c.DeepsearchQueryNum = 5
	}
	if c.DeepsearchResultsPerQuery <= 0 {
		c.DeepsearchResultsPerQuery = 5
	}
	if c.FreshnessWarningMinKnown <= 0 {
		c.FreshnessWarningMinKnown = 3
	}
	if c.FreshnessWarningMinRatio <= 0 {
		c.FreshnessWarningMinRatio = 0.4
	}
	if c.EventResultsLimit <= 0 || c.EventResultsLimit > 20 {
		c.EventResultsLimit = 5
	}
	switch c.DeepsearchMode {
	case ModeAuto, ModeTree, ModeLinear:
	default:
		c.DeepsearchMode = ModeAuto
	}
	switch c.SearchStrategy {
	case StrategyFallback, StrategyProfile:
	default:
		c.SearchStrategy = StrategyFallback
	}
	if c.ProviderAPIKeys == nil {
		c.ProviderAPIKeys = map[string]string{}
	}
}

// EstimateTokens approximates token count the way every budget check in
// this engine does: max(1, len(text)/4).
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n < 1 {
		return 1
	}
	return n
}
