package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheGetSetRoundTrips(t *testing.T) {
	c := NewCache(2)
	ctx := context.Background()
	key := NewCacheKey("fallback", 5, Profile{"tavily"}, "golang generics")

	_, ok := c.Get(ctx, key)
	require.False(t, ok)

	c.Set(ctx, key, []Result{{Title: "a", URL: "https://a.example"}})
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].Title)
}

func TestCacheGetReturnsCopyNotAlias(t *testing.T) {
	c := NewCache(2)
	ctx := context.Background()
	key := NewCacheKey("fallback", 5, Profile{"tavily"}, "q")
	c.Set(ctx, key, []Result{{Title: "original"}})

	got, _ := c.Get(ctx, key)
	got[0].Title = "mutated"

	got2, _ := c.Get(ctx, key)
	require.Equal(t, "original", got2[0].Title)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	ctx := context.Background()
	k1 := NewCacheKey("fallback", 5, Profile{"tavily"}, "q1")
	k2 := NewCacheKey("fallback", 5, Profile{"tavily"}, "q2")
	k3 := NewCacheKey("fallback", 5, Profile{"tavily"}, "q3")

	c.Set(ctx, k1, []Result{{Title: "one"}})
	c.Set(ctx, k2, []Result{{Title: "two"}})
	c.Get(ctx, k1) // touch k1 so k2 becomes the LRU entry
	c.Set(ctx, k3, []Result{{Title: "three"}})

	_, ok := c.Get(ctx, k2)
	require.False(t, ok, "k2 should have been evicted as least recently used")

	_, ok = c.Get(ctx, k1)
	require.True(t, ok)
	require.Equal(t, 2, c.Len())
}

func TestCacheKeyStringIncludesAllFields(t *testing.T) {
	key := NewCacheKey("profile", 10, Profile{"tavily", "serper"}, "rust async")
	require.Equal(t, "profile|10|tavily,serper|rust async", key.String())
}
