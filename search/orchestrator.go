package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/deepresearch/core/errs"
	"github.com/deepresearch/core/telemetry"
)

// Strategy selects how an Orchestrator walks a provider profile.
type Strategy string

const (
	// StrategyFallback tries providers in profile order and stops at the
	// first one that returns a non-empty result set.
	StrategyFallback Strategy = "fallback"
	// StrategyProfile restricts the search to the named providers, trying
	// them in order and stopping at the first non-empty result set.
	StrategyProfile Strategy = "profile"
)

// ResultCache is satisfied by both Cache (in-memory LRU) and RedisCache.
type ResultCache interface {
	Get(ctx context.Context, key CacheKey) ([]Result, bool)
	Set(ctx context.Context, key CacheKey, results []Result)
}

// Orchestrator resolves a query against a set of registered providers
// using the configured strategy, with caching and per-provider rate
// limiting.
type Orchestrator struct {
	mu        sync.RWMutex
	providers map[string]Provider
	cache     ResultCache
	limiters  *RateLimiters
	log       telemetry.Logger
	metrics   telemetry.Metrics
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithCache attaches a result cache; without one, every call hits live
// providers.
func WithCache(c ResultCache) OrchestratorOption { return func(o *Orchestrator) { o.cache = c } }

// WithRateLimiters attaches per-provider rate limiting.
func WithRateLimiters(r *RateLimiters) OrchestratorOption {
	return func(o *Orchestrator) { o.limiters = r }
}

// WithOrchestratorTelemetry attaches a logger and metrics recorder.
func WithOrchestratorTelemetry(telem telemetry.Bundle) OrchestratorOption {
	return func(o *Orchestrator) { o.log = telem.Logger; o.metrics = telem.Metrics }
}

// NewOrchestrator builds an Orchestrator with no providers registered.
func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	noop := telemetry.NewNoop()
	o := &Orchestrator{
		providers: make(map[string]Provider),
		log:       noop.Logger,
		metrics:   noop.Metrics,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register adds or replaces a provider under its own Name().
func (o *Orchestrator) Register(p Provider) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.providers[p.Name()] = p
}

func (o *Orchestrator) lookup(name string) (Provider, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.providers[name]
	return p, ok
}

// Search resolves query against profile using strategy, consulting the
// cache first and populating it on a live lookup. maxResults bounds each
// individual provider call.
func (o *Orchestrator) Search(ctx context.Context, strategy Strategy, profile Profile, query string, maxResults int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.New(errs.KindInternal, "empty query")
	}
	if len(profile) == 0 {
		profile = defaultProfile
	}

	key := NewCacheKey(string(strategy), maxResults, profile, query)
	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, key); ok {
			o.metrics.IncCounter("search_cache_hit", 1)
			return cached, nil
		}
		o.metrics.IncCounter("search_cache_miss", 1)
	}

	var results []Result
	var err error
	switch strategy {
	case StrategyProfile:
		results, err = o.searchProfile(ctx, profile, query, maxResults)
	default:
		results, err = o.searchFallback(ctx, profile, query, maxResults)
	}
	if err != nil {
		return nil, err
	}

	results = DedupByURL(results)
	if o.cache != nil {
		o.cache.Set(ctx, key, results)
	}
	return results, nil
}

// searchFallback tries providers in order, returning the first non-empty
// result set. Matches original_source/tools/search/fallback_search.py's
// sequential try-until-nonempty behavior.
func (o *Orchestrator) searchFallback(ctx context.Context, profile Profile, query string, maxResults int) ([]Result, error) {
	var lastErr error
	for _, name := range profile {
		p, ok := o.lookup(name)
		if !ok || !p.IsAvailable() {
			continue
		}
		if o.limiters != nil {
			if err := o.limiters.Wait(ctx, name); err != nil {
				return nil, err
			}
		}
		results, err := p.Search(ctx, query, maxResults)
		if err != nil {
			lastErr = err
			o.log.Warn(ctx, "search provider failed", "provider", name, "error", SanitizeErrorMessage(err.Error()),
				"retryable", errs.IsRetryable(err))
			if wait := errs.RetryAfter(err); wait > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(wait):
				}
			}
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	if lastErr != nil {
		return nil, errs.Wrap(errs.KindProvider, lastErr, "all providers failed or empty")
	}
	return nil, nil
}

// searchProfile behaves exactly like searchFallback — sequential,
// first-provider-to-return-a-non-empty-result-set wins — but is
// additionally restricted to providers named in profile, warning once per
// name that doesn't resolve to a registered provider. Concurrent
// querying and cross-provider merging were dropped: a profile exists to
// pin a query to a specific, ordered set of providers, not to broaden the
// result pool, and merging silently hid which provider actually answered.
func (o *Orchestrator) searchProfile(ctx context.Context, profile Profile, query string, maxResults int) ([]Result, error) {
	var lastErr error
	for _, name := range profile {
		p, ok := o.lookup(name)
		if !ok {
			o.log.Warn(ctx, "search profile names unregistered provider", "provider", name)
			continue
		}
		if !p.IsAvailable() {
			continue
		}
		if o.limiters != nil {
			if err := o.limiters.Wait(ctx, name); err != nil {
				return nil, err
			}
		}
		results, err := p.Search(ctx, query, maxResults)
		if err != nil {
			lastErr = err
			o.log.Warn(ctx, "search provider failed", "provider", name, "error", SanitizeErrorMessage(err.Error()),
				"retryable", errs.IsRetryable(err))
			if wait := errs.RetryAfter(err); wait > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(wait):
				}
			}
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	if lastErr != nil {
		return nil, errs.Wrap(errs.KindProvider, lastErr, "all profile providers failed or empty")
	}
	return nil, nil
}
