// Package di provides dependency injection configuration for the ReadingRoom server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/readingroomapp/readingroom-server/internal/auth"
	"github.com/readingroomapp/readingroom-server/internal/config"
	"github.com/readingroomapp/readingroom-server/internal/di/providers"
	"github.com/readingroomapp/readingroom-server/internal/logger"
	"github.com/readingroomapp/readingroom-server/internal/media/images"
	"github.com/readingroomapp/readingroom-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvidePrefsStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// External catalog
	do.Provide(injector, providers.ProvideCatalog)

	// Uploads
	do.Provide(injector, providers.ProvideUploader)
	do.Provide(injector, providers.ProvideImageProcessor)
	do.Provide(injector, providers.ProvideCoverCache)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideSocialService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideProfileService)
	do.Provide(injector, providers.ProvideSettingsService)

	// Background maintenance
	do.Provide(injector, providers.ProvideMaintenance)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is running.
// This triggers lazy initialization of every provider in dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.PrefsStoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.CatalogHandle](injector)
	_ = do.MustInvoke[*providers.Uploader](injector)
	_ = do.MustInvoke[*images.Processor](injector)
	_ = do.MustInvoke[*providers.CoverCache](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*service.SocialService](injector)
	_ = do.MustInvoke[*service.StatsService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)
	_ = do.MustInvoke[*service.SettingsService](injector)

	// Background maintenance
	_ = do.MustInvoke[*providers.MaintenanceHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Backfill the search index if it is empty but books exist.
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
