package providers

import (
	"github.com/samber/do/v2"

	"github.com/readingroomapp/readingroom-server/internal/catalog"
	"github.com/readingroomapp/readingroom-server/internal/catalog/googlebooks"
	"github.com/readingroomapp/readingroom-server/internal/catalog/openlibrary"
	"github.com/readingroomapp/readingroom-server/internal/config"
	"github.com/readingroomapp/readingroom-server/internal/logger"
)

// CatalogHandle bundles the aggregator with the resources behind it.
type CatalogHandle struct {
	*catalog.Aggregator

	cache       *catalog.Cache
	googleBooks *googlebooks.Client
	openLibrary *openlibrary.Client
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	h.googleBooks.Close()
	h.openLibrary.Close()

	var err error
	if h.cache != nil {
		err = h.cache.Close()
	}
	return err
}

// ProvideCatalog provides the external catalog aggregator with its SQLite
// query cache. A cache that fails to open degrades to uncached searches.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	gb := googlebooks.New(log.Logger,
		googlebooks.WithAPIKey(cfg.Catalog.GoogleBooksAPIKey),
		googlebooks.WithTimeout(cfg.Catalog.RequestTimeout),
		googlebooks.WithRateLimit(cfg.Catalog.RequestsPerSecond, int(cfg.Catalog.RequestsPerSecond)+1),
	)
	ol := openlibrary.New(log.Logger,
		openlibrary.WithTimeout(cfg.Catalog.RequestTimeout),
		openlibrary.WithRateLimit(cfg.Catalog.RequestsPerSecond, int(cfg.Catalog.RequestsPerSecond)+1),
	)

	cache, err := catalog.OpenCache(cfg.CatalogCachePath(), cfg.Catalog.CacheTTL, log.Logger)
	if err != nil {
		log.Warn("catalog cache unavailable, searches will not be cached",
			"path", cfg.CatalogCachePath(),
			"error", err,
		)
		cache = nil
	}

	aggregator := catalog.NewAggregator([]catalog.Provider{gb, ol}, cache, log.Logger)

	log.Info("Catalog aggregator initialized",
		"providers", 2,
		"cached", cache != nil,
		"cache_ttl", cfg.Catalog.CacheTTL,
	)

	return &CatalogHandle{
		Aggregator:  aggregator,
		cache:       cache,
		googleBooks: gb,
		openLibrary: ol,
	}, nil
}
