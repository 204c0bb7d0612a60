package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateLimitersWaitAllowsBurst(t *testing.T) {
	limiters := NewRateLimiters(100, 2)
	ctx := context.Background()
	require.NoError(t, limiters.Wait(ctx, "tavily"))
	require.NoError(t, limiters.Wait(ctx, "tavily"))
}

func TestRateLimitersPerProviderIsolated(t *testing.T) {
	limiters := NewRateLimiters(1, 1)
	ctx := context.Background()
	require.NoError(t, limiters.Wait(ctx, "tavily"))
	// A different provider's bucket is untouched by tavily's consumption.
	require.NoError(t, limiters.Wait(ctx, "serper"))
}

func TestRateLimitersWaitRespectsCancellation(t *testing.T) {
	limiters := NewRateLimiters(0.001, 1)
	ctx := context.Background()
	require.NoError(t, limiters.Wait(ctx, "tavily")) // consumes the single burst token

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := limiters.Wait(cancelled, "tavily")
	require.Error(t, err)
}
