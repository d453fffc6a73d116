package catalog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingroomapp/readingroom-server/internal/catalog"
)

func newTestCache(t *testing.T, ttl time.Duration) *catalog.Cache {
	t.Helper()
	cache, err := catalog.OpenCache(filepath.Join(t.TempDir(), "cache.db"), ttl, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCache_RoundTrip(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	stored := []catalog.Result{
		{ExternalID: "gb-1", Title: "Dune", Author: "Frank Herbert", Source: "googlebooks"},
		{ExternalID: "ol-1", Title: "Dune", Author: "Frank Herbert", Source: "openlibrary"},
	}
	require.NoError(t, cache.Put(ctx, "dune", stored))

	got, ok := cache.Get(ctx, "dune")
	require.True(t, ok)
	assert.Equal(t, stored, got)
}

func TestCache_MissOnUnknownQuery(t *testing.T) {
	cache := newTestCache(t, time.Hour)

	_, ok := cache.Get(context.Background(), "never cached")
	assert.False(t, ok)
}

func TestCache_KeyIsCaseFolded(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "Dune", []catalog.Result{{Title: "Dune"}}))

	got, ok := cache.Get(ctx, "  dune ")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Dune", got[0].Title)
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	cache := newTestCache(t, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "dune", []catalog.Result{{Title: "Dune"}}))
	time.Sleep(10 * time.Millisecond)

	_, ok := cache.Get(ctx, "dune")
	assert.False(t, ok)
}

func TestCache_PutOverwritesEntry(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "dune", []catalog.Result{{Title: "Old"}}))
	require.NoError(t, cache.Put(ctx, "dune", []catalog.Result{{Title: "New"}}))

	got, ok := cache.Get(ctx, "dune")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "New", got[0].Title)
}

func TestCache_PruneRemovesExpired(t *testing.T) {
	cache := newTestCache(t, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "stale one", []catalog.Result{{Title: "A"}}))
	require.NoError(t, cache.Put(ctx, "stale two", []catalog.Result{{Title: "B"}}))
	time.Sleep(10 * time.Millisecond)

	removed, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	removed, err = cache.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
