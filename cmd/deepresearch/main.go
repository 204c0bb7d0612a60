// Command deepresearch runs one research topic through the engine's
// Auto Runner end to end, wiring the same components cmd/demo wires for
// the agent runtime: config, telemetry, the event bus, and a registry of
// concrete adapters, all assembled from environment configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/deepresearch/core/adapters/chatmodel/anthropic"
	"github.com/deepresearch/core/adapters/chatmodel/bedrock"
	"github.com/deepresearch/core/adapters/chatmodel/openai"
	"github.com/deepresearch/core/autorun"
	"github.com/deepresearch/core/cancelctl"
	"github.com/deepresearch/core/chatmodel"
	"github.com/deepresearch/core/config"
	"github.com/deepresearch/core/crawler"
	"github.com/deepresearch/core/eventbus"
	"github.com/deepresearch/core/explorer"
	"github.com/deepresearch/core/fileoutput"
	"github.com/deepresearch/core/linear"
	"github.com/deepresearch/core/modelrouter"
	"github.com/deepresearch/core/search"
	"github.com/deepresearch/core/search/providers"
	"github.com/deepresearch/core/session"
	"github.com/deepresearch/core/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file (optional)")
		mode       = flag.String("mode", "", "override the configured mode: auto, tree, or linear")
	)
	flag.Parse()
	topic := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if topic == "" {
		fmt.Fprintln(os.Stderr, "usage: deepresearch [-config path] [-mode auto|tree|linear] <topic>")
		os.Exit(2)
	}

	cfg := config.New()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "deepresearch:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	telem := telemetry.NewNoop()
	if os.Getenv("DEEPRESEARCH_CLUE_TELEMETRY") != "" {
		telem = telemetry.NewClue()
	}

	bus := eventbus.New(telem)
	registry := cancelctl.NewRegistry(5*time.Minute, telem)
	ctx := context.Background()
	tok := registry.CreateToken(ctx, "cli-run", map[string]any{"topic": topic})

	orchestrator := buildOrchestrator(cfg, telem)
	router := buildRouter(cfg)
	cr := crawler.New(crawler.WithLogger(telem.Logger))

	explorerRunner := explorer.New(router, orchestrator, bus, telem.Logger, explorer.Config{
		MaxDepth:         cfg.TreeMaxDepth,
		MaxBranches:      cfg.TreeMaxBranches,
		QueriesPerBranch: cfg.TreeQueriesPerBranch,
		ParallelBranches: cfg.TreeParallelBranches,
		ResultsPerQuery:  cfg.DeepsearchResultsPerQuery,
		SearchStrategy:   search.Strategy(cfg.SearchStrategy),
	})
	linearRunner := linear.New(router, orchestrator, cr, bus, telem.Logger, linear.Config{
		MaxEpochs:                cfg.DeepsearchMaxEpochs,
		QueryNum:                 cfg.DeepsearchQueryNum,
		ResultsPerQuery:          cfg.DeepsearchResultsPerQuery,
		EnableCrawler:            cfg.EnableCrawler,
		Strategy:                 search.Strategy(cfg.SearchStrategy),
		MaxSeconds:               cfg.DeepsearchMaxSeconds,
		MaxTokens:                cfg.DeepsearchMaxTokens,
		UseGapAnalysis:           cfg.UseGapAnalysis,
		FreshnessWarningMinKnown: cfg.FreshnessWarningMinKnown,
		FreshnessWarningMinRatio: cfg.FreshnessWarningMinRatio,
		EventResultsLimit:        cfg.EventResultsLimit,
	})

	runner := autorun.New(explorerRunner, linearRunner, bus, telem.Logger, cfg)

	store := session.NewMemStore()
	sessionID := "cli-session"
	if _, err := store.CreateSession(ctx, sessionID, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, "deepresearch: create session:", err)
		os.Exit(1)
	}

	outcome, err := runner.Run(ctx, tok, topic, config.Mode(*mode))
	if err != nil {
		fmt.Fprintln(os.Stderr, "deepresearch:", err)
		os.Exit(1)
	}

	runID := "run-" + time.Now().UTC().Format("20060102T150405")
	_ = store.UpsertRun(ctx, session.RunMeta{
		RunID:       runID,
		SessionID:   sessionID,
		Topic:       topic,
		Mode:        outcome.Mode,
		Status:      session.RunStatusCompleted,
		FinalReport: outcome.FinalReport,
	})

	writer := fileoutput.New(cfg)
	if writer.Enabled() && outcome.Mode == config.ModeLinear {
		path, werr := writer.WriteLinearRun(topic, linear.Result{
			Topic:              topic,
			Queries:            outcome.Artifacts.Queries,
			FinalReport:        outcome.FinalReport,
			Sources:            outcome.Sources,
			BudgetStopReason:   outcome.Artifacts.BudgetStopReason,
			QualityDiagnostics: outcome.Artifacts.QualitySummary,
		})
		if werr != nil {
			telem.Logger.Warn(ctx, "failed to persist run artifact", "error", werr.Error())
		} else if path != "" {
			fmt.Fprintln(os.Stderr, "saved run artifact to", path)
		}
	}

	fmt.Println(outcome.FinalReport)
	if len(outcome.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range outcome.Sources {
			fmt.Println(" -", s)
		}
	}
	if outcome.FellBackFrom != "" {
		fmt.Fprintf(os.Stderr, "note: fell back from %s mode to %s mode\n", outcome.FellBackFrom, outcome.Mode)
	}
	if outcome.Artifacts.BudgetStopReason != "" && outcome.Artifacts.BudgetStopReason != cancelctl.StopNone {
		fmt.Fprintf(os.Stderr, "note: run stopped early, budget %s\n", outcome.Artifacts.BudgetStopReason)
	}
	if note := outcome.Artifacts.QualitySummary.FreshnessWarningNote(); note != "" {
		fmt.Fprintln(os.Stderr, note)
	}
}

// buildOrchestrator registers every search provider whose API key is
// present in the environment, matching original_source/tools/search/
// fallback_search.py's "use whatever is configured" posture.
func buildOrchestrator(cfg config.Config, telem telemetry.Bundle) *search.Orchestrator {
	o := search.NewOrchestrator(
		search.WithCache(search.NewCache(256)),
		search.WithRateLimiters(search.NewRateLimiters(2, 4)),
		search.WithOrchestratorTelemetry(telem),
	)
	keys := cfg.ProviderAPIKeys

	if k := apiKey(keys, "tavily", "TAVILY_API_KEY"); k != "" {
		o.Register(&providers.Tavily{APIKey: k})
	}
	if k := apiKey(keys, "serper", "SERPER_API_KEY"); k != "" {
		o.Register(&providers.Serper{APIKey: k})
	}
	if k := apiKey(keys, "serpapi", "SERPAPI_API_KEY"); k != "" {
		o.Register(&providers.SerpAPI{APIKey: k})
	}
	if k := apiKey(keys, "bing", "BING_API_KEY"); k != "" {
		o.Register(&providers.Bing{APIKey: k})
	}
	if k := apiKey(keys, "exa", "EXA_API_KEY"); k != "" {
		o.Register(&providers.Exa{APIKey: k})
	}
	if k := apiKey(keys, "firecrawl", "FIRECRAWL_API_KEY"); k != "" {
		o.Register(&providers.Firecrawl{APIKey: k})
	}
	if k, cx := apiKey(keys, "google_cse", "GOOGLE_CSE_API_KEY"), os.Getenv("GOOGLE_CSE_ENGINE_ID"); k != "" && cx != "" {
		o.Register(&providers.GoogleCSE{APIKey: k, SearchEngineID: cx})
	}
	return o
}

func apiKey(configured map[string]string, name, envVar string) string {
	if v := configured[name]; v != "" {
		return v
	}
	return os.Getenv(envVar)
}

// buildRouter registers a chatmodel.Model adapter for every provider whose
// credentials are present in the environment, keyed by model identifier so
// modelrouter.Router's per-task routing fields resolve directly.
func buildRouter(cfg config.Config) *modelrouter.Router {
	models := map[string]chatmodel.Model{}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		modelID := firstNonEmpty(cfg.PrimaryModel, "claude-sonnet-4-5")
		if c, err := anthropic.NewFromAPIKey(key, modelID); err == nil {
			models[modelID] = c
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		modelID := firstNonEmpty(cfg.ReasoningModel, "gpt-4o")
		if c, err := openai.NewFromAPIKey(key, modelID); err == nil {
			models[modelID] = c
		}
	}
	if os.Getenv("AWS_REGION") != "" || os.Getenv("AWS_PROFILE") != "" {
		if awsCfg, err := awsconfig.LoadDefaultConfig(context.Background()); err == nil {
			runtime := bedrockruntime.NewFromConfig(awsCfg)
			modelID := firstNonEmpty(cfg.WriterModel, "anthropic.claude-3-5-sonnet-20241022-v2:0")
			if c, err := bedrock.New(runtime, bedrock.Options{DefaultModel: modelID}); err == nil {
				models[modelID] = c
			}
		}
	}

	return modelrouter.New(cfg, models)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
