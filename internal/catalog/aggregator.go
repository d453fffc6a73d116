package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Aggregator fans a query out to every provider and merges the results.
// Provider failures are isolated: a catalog being down shrinks the result
// set, it never fails the search.
type Aggregator struct {
	providers []Provider
	cache     *Cache // optional
	logger    *slog.Logger
}

// NewAggregator creates an aggregator over the given providers.
// Cache may be nil to disable query caching.
func NewAggregator(providers []Provider, cache *Cache, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		providers: providers,
		cache:     cache,
		logger:    logger,
	}
}

// Search queries all providers concurrently and returns merged, deduplicated
// results. Results arrive in provider completion order; entries sharing a
// dedup key keep the first occurrence.
func (a *Aggregator) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, query); ok {
			a.logger.Debug("catalog cache hit", "query", query, "count", len(cached))
			return cached, nil
		}
	}

	var (
		mu     sync.Mutex
		merged []Result
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, provider := range a.providers {
		g.Go(func() error {
			results, err := provider.Search(gctx, query)
			if err != nil {
				// Failure-isolated: log and contribute nothing.
				a.logger.Warn("catalog provider search failed",
					"provider", provider.Name(),
					"query", query,
					"error", err,
				)
				return nil
			}

			mu.Lock()
			merged = append(merged, results...)
			mu.Unlock()
			return nil
		})
	}

	// Providers never return errors into the group, but the context can
	// still be canceled under it.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deduped := dedupe(merged)

	if a.cache != nil && len(deduped) > 0 {
		if err := a.cache.Put(ctx, query, deduped); err != nil {
			a.logger.Warn("catalog cache write failed", "query", query, "error", err)
		}
	}

	return deduped, nil
}

// dedupe drops later entries sharing a dedup key with an earlier one.
func dedupe(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		key := r.DedupKey()
		if key == "" || !seen[key] {
			if key != "" {
				seen[key] = true
			}
			out = append(out, r)
		}
	}
	return out
}
