package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/readingroomapp/readingroom-server/internal/config"
	"github.com/readingroomapp/readingroom-server/internal/logger"
	"github.com/readingroomapp/readingroom-server/internal/media/covers"
	"github.com/readingroomapp/readingroom-server/internal/media/images"
	"github.com/readingroomapp/readingroom-server/internal/uploader"
)

// Uploader holds the optional image upload client.
// Client is nil when no upload endpoint is configured; the services treat
// that as uploads disabled.
type Uploader struct {
	Client *uploader.Client
}

// ProvideUploader provides the image upload client.
func ProvideUploader(i do.Injector) (*Uploader, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.UploadsEnabled() {
		log.Info("Image uploads disabled: no upload endpoint configured")
		return &Uploader{}, nil
	}

	client := uploader.New(cfg.Uploads.ServiceURL, cfg.Uploads.Preset, log.Logger)
	log.Info("Image upload client initialized", "endpoint", cfg.Uploads.ServiceURL)

	return &Uploader{Client: client}, nil
}

// ProvideImageProcessor provides the upload image validator.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return images.NewProcessor(log.Logger), nil
}

// CoverCache bundles the local cover image store with its downloader.
type CoverCache struct {
	Storage    *images.Storage
	Downloader *covers.Downloader
}

// ProvideCoverCache provides the local cover cache. Covers fetched from
// external catalogs are mirrored here so they survive CDN changes.
func ProvideCoverCache(i do.Injector) (*CoverCache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.Data.BasePath, "covers")
	if err != nil {
		return nil, fmt.Errorf("open cover storage: %w", err)
	}

	return &CoverCache{
		Storage:    storage,
		Downloader: covers.NewDownloader(storage, log.Logger),
	}, nil
}
