package cancelctl

import (
	"context"
	"sync"
	"time"

	"github.com/deepresearch/core/telemetry"
)

// GlobalCancelCallback is invoked, after a token's own cleanups, whenever
// any token in the registry is cancelled.
type GlobalCancelCallback func(ctx context.Context, taskID, reason string)

// Registry owns the process-wide set of live cancellation tokens. Create
// and remove operations are guarded by a mutex; once a token handle has
// been acquired, reads against it are lock-free.
type Registry struct {
	mu       sync.Mutex
	tokens   map[string]*Token
	globals  []GlobalCancelCallback
	ttl      time.Duration
	telem    telemetry.Bundle
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRegistry constructs an empty token registry. ttl bounds how long a
// token is retained, counted from its CreatedAt and whatever its status,
// before the background janitor reaps it; zero disables the janitor's
// age-based eviction (janitor still needs StartJanitor to run at all).
func NewRegistry(ttl time.Duration, telem telemetry.Bundle) *Registry {
	return &Registry{
		tokens: make(map[string]*Token),
		ttl:    ttl,
		telem:  telem,
		stopCh: make(chan struct{}),
	}
}

// OnCancel registers a callback invoked after any token in the registry is
// cancelled, following that token's own cleanup callbacks.
func (r *Registry) OnCancel(cb GlobalCancelCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globals = append(r.globals, cb)
}

// CreateToken returns a live token for taskID. If a live token already
// exists for taskID, it is first cancelled with reason "replaced by new
// task" and its cleanups are awaited before the replacement is installed.
func (r *Registry) CreateToken(ctx context.Context, taskID string, metadata map[string]any) *Token {
	r.mu.Lock()
	existing, ok := r.tokens[taskID]
	r.mu.Unlock()

	if ok && !existing.IsCancelled() {
		r.Cancel(ctx, taskID, "replaced by new task")
	}

	tok := newToken(taskID, metadata, r.telem)
	r.mu.Lock()
	r.tokens[taskID] = tok
	r.mu.Unlock()
	return tok
}

// Get returns the live token for taskID, if any.
func (r *Registry) Get(taskID string) (*Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[taskID]
	return tok, ok
}

// Cancel cancels the token for taskID (if one exists) and, after its own
// cleanups complete, invokes every registered global cancel callback.
// Calling Cancel twice for the same task has the same observable effect
// as once.
func (r *Registry) Cancel(ctx context.Context, taskID, reason string) {
	r.mu.Lock()
	tok, ok := r.tokens[taskID]
	globals := make([]GlobalCancelCallback, len(r.globals))
	copy(globals, r.globals)
	r.mu.Unlock()
	if !ok {
		return
	}
	wasCancelled := tok.IsCancelled()
	tok.Cancel(ctx, reason)
	if wasCancelled {
		return
	}
	for _, cb := range globals {
		cb(ctx, taskID, reason)
	}
}

// Remove drops taskID from the registry without cancelling it.
func (r *Registry) Remove(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, taskID)
}

// StartJanitor launches a background goroutine that, every interval,
// removes tokens older than the registry's configured TTL. The goroutine
// stops when ctx is cancelled or Stop is called.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.sweep()
			}
		}
	}()
}

// Stop halts the background janitor.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, tok := range r.tokens {
		if tok.CreatedAt.Before(cutoff) {
			delete(r.tokens, id)
		}
	}
}
