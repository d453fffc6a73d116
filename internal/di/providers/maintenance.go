package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/readingroomapp/readingroom-server/internal/catalog"
	"github.com/readingroomapp/readingroom-server/internal/logger"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

// maintenanceInterval is how often the background sweep runs.
const maintenanceInterval = time.Hour

// sweeper runs the periodic housekeeping pass: expired sessions are
// deleted from the store and stale catalog cache rows are pruned. Each
// task logs and continues on failure so one broken resource does not
// starve the others.
type sweeper struct {
	store  *store.Store
	cache  *catalog.Cache
	logger *slog.Logger
}

func (sw *sweeper) sweep(ctx context.Context) {
	pruned, err := sw.store.PruneExpiredSessions(ctx, time.Now())
	if err != nil {
		sw.logger.Error("session prune failed", "error", err)
	} else if pruned > 0 {
		sw.logger.Info("pruned expired sessions", "count", pruned)
	}

	if sw.cache == nil {
		return
	}
	rows, err := sw.cache.Prune(ctx)
	if err != nil {
		sw.logger.Error("catalog cache prune failed", "error", err)
	} else if rows > 0 {
		sw.logger.Info("pruned catalog cache", "rows", rows)
	}
}

func (sw *sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sw.sweep(ctx)
		}
	}
}

// MaintenanceHandle owns the background maintenance loop.
type MaintenanceHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *MaintenanceHandle) Shutdown() error {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(shutdownTimeout):
	}
	return nil
}

// ProvideMaintenance starts the hourly housekeeping loop.
func ProvideMaintenance(i do.Injector) (*MaintenanceHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)

	sw := &sweeper{
		store:  storeHandle.Store,
		cache:  catalogHandle.cache,
		logger: log.Logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sw.run(ctx)
	}()

	log.Info("Maintenance loop started", "interval", maintenanceInterval)

	return &MaintenanceHandle{cancel: cancel, done: done}, nil
}
