package catalog_test

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingroomapp/readingroom-server/internal/catalog"
)

// stubProvider returns canned results or a canned error.
type stubProvider struct {
	name    string
	results []catalog.Result
	err     error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(_ context.Context, _ string) ([]catalog.Result, error) {
	return s.results, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestAggregator_MergesProviders(t *testing.T) {
	agg := catalog.NewAggregator([]catalog.Provider{
		&stubProvider{name: "alpha", results: []catalog.Result{
			{ExternalID: "a-1", Title: "Dune", Source: "alpha"},
		}},
		&stubProvider{name: "beta", results: []catalog.Result{
			{ExternalID: "b-1", Title: "Dune Messiah", Source: "beta"},
		}},
	}, nil, testLogger())

	results, err := agg.Search(context.Background(), "dune")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestAggregator_DedupesByExternalID(t *testing.T) {
	agg := catalog.NewAggregator([]catalog.Provider{
		&stubProvider{name: "alpha", results: []catalog.Result{
			{ExternalID: "shared", Title: "Dune", Source: "alpha"},
			{ExternalID: "shared", Title: "Dune (reprint)", Source: "alpha"},
		}},
	}, nil, testLogger())

	results, err := agg.Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Dune", results[0].Title)
}

func TestAggregator_KeepsAllEmptyKeyResults(t *testing.T) {
	// Results without an external ID can never be proven duplicates,
	// so they all survive.
	agg := catalog.NewAggregator([]catalog.Provider{
		&stubProvider{name: "alpha", results: []catalog.Result{
			{Title: "Anonymous One"},
			{Title: "Anonymous Two"},
		}},
	}, nil, testLogger())

	results, err := agg.Search(context.Background(), "anonymous")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestAggregator_ProviderFailureIsolated(t *testing.T) {
	agg := catalog.NewAggregator([]catalog.Provider{
		&stubProvider{name: "broken", err: errors.New("upstream down")},
		&stubProvider{name: "healthy", results: []catalog.Result{
			{ExternalID: "h-1", Title: "Dune", Source: "healthy"},
		}},
	}, nil, testLogger())

	results, err := agg.Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "healthy", results[0].Source)
}

func TestAggregator_AllProvidersFailing(t *testing.T) {
	agg := catalog.NewAggregator([]catalog.Provider{
		&stubProvider{name: "broken-a", err: errors.New("down")},
		&stubProvider{name: "broken-b", err: errors.New("down")},
	}, nil, testLogger())

	results, err := agg.Search(context.Background(), "dune")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAggregator_EmptyQuery(t *testing.T) {
	called := false
	agg := catalog.NewAggregator([]catalog.Provider{
		&countingProvider{called: &called},
	}, nil, testLogger())

	results, err := agg.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.False(t, called, "providers should not be queried for blank input")
}

type countingProvider struct {
	called *bool
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Search(_ context.Context, _ string) ([]catalog.Result, error) {
	*p.called = true
	return nil, nil
}

func TestAggregator_CacheShortCircuits(t *testing.T) {
	cache, err := catalog.OpenCache(filepath.Join(t.TempDir(), "cache.db"), time.Hour, testLogger())
	require.NoError(t, err)
	defer cache.Close()

	calls := 0
	provider := &countingCallsProvider{calls: &calls, results: []catalog.Result{
		{ExternalID: "c-1", Title: "Dune", Source: "counting"},
	}}

	agg := catalog.NewAggregator([]catalog.Provider{provider}, cache, testLogger())

	first, err := agg.Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, calls)

	second, err := agg.Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Dune", second[0].Title)
	assert.Equal(t, 1, calls, "second search should be served from cache")

	// Same key after case folding, still cached.
	third, err := agg.Search(context.Background(), "  DUNE ")
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, 1, calls)
}

type countingCallsProvider struct {
	calls   *int
	results []catalog.Result
}

func (p *countingCallsProvider) Name() string { return "counting" }

func (p *countingCallsProvider) Search(_ context.Context, _ string) ([]catalog.Result, error) {
	*p.calls++
	return p.results, nil
}
