package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/readingroomapp/readingroom-server/internal/config"
	"github.com/readingroomapp/readingroom-server/internal/logger"
	"github.com/readingroomapp/readingroom-server/internal/prefs"
	"github.com/readingroomapp/readingroom-server/internal/sse"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the Badger document store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	db, err := store.New(cfg.StorePath(), log.Logger, sseHandle.Manager)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.StorePath())

	return &StoreHandle{Store: db}, nil
}

// PrefsStoreHandle wraps the preferences store with shutdown capability.
type PrefsStoreHandle struct {
	*prefs.Store
}

// Shutdown implements do.Shutdownable.
func (h *PrefsStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvidePrefsStore provides the file-backed preferences store.
func ProvidePrefsStore(i do.Injector) (*PrefsStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	pr, err := prefs.NewStore(cfg.PreferencesPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Preferences store initialized", "path", cfg.PreferencesPath())

	return &PrefsStoreHandle{Store: pr}, nil
}
