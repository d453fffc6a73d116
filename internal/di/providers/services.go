package providers

import (
	"github.com/samber/do/v2"

	"github.com/readingroomapp/readingroom-server/internal/auth"
	"github.com/readingroomapp/readingroom-server/internal/logger"
	"github.com/readingroomapp/readingroom-server/internal/media/images"
	"github.com/readingroomapp/readingroom-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, log.Logger), nil
}

// ProvideLibraryService provides the book library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	up := do.MustInvoke[*Uploader](i)
	processor := do.MustInvoke[*images.Processor](i)
	coverCache := do.MustInvoke[*CoverCache](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(
		storeHandle.Store,
		catalogHandle.Aggregator,
		indexHandle.SearchIndex,
		up.Client,
		processor,
		coverCache.Downloader,
		log.Logger,
	), nil
}

// ProvideSocialService provides the friend graph service.
func ProvideSocialService(i do.Injector) (*service.SocialService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSocialService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideStatsService provides the reading statistics service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	prefsHandle := do.MustInvoke[*PrefsStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(storeHandle.Store, prefsHandle.Store, log.Logger), nil
}

// ProvideProfileService provides the user profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	up := do.MustInvoke[*Uploader](i)
	processor := do.MustInvoke[*images.Processor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, up.Client, processor, log.Logger), nil
}

// ProvideSettingsService provides the user preferences service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	prefsHandle := do.MustInvoke[*PrefsStoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSettingsService(prefsHandle.Store, sseHandle.Manager, log.Logger), nil
}
