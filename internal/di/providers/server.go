package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/readingroomapp/readingroom-server/internal/api"
	"github.com/readingroomapp/readingroom-server/internal/config"
	"github.com/readingroomapp/readingroom-server/internal/logger"
	"github.com/readingroomapp/readingroom-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	coverCache := do.MustInvoke[*CoverCache](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:     do.MustInvoke[*service.AuthService](i),
		Library:  do.MustInvoke[*service.LibraryService](i),
		Social:   do.MustInvoke[*service.SocialService](i),
		Stats:    do.MustInvoke[*service.StatsService](i),
		Profile:  do.MustInvoke[*service.ProfileService](i),
		Settings: do.MustInvoke[*service.SettingsService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, sseHandle.Manager, coverCache.Storage, log.Logger)

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     handler,
		ReadTimeout: cfg.Server.ReadTimeout,
		// No write timeout: SSE connections stay open indefinitely.
		WriteTimeout: 0,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
