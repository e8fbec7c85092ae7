package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forkmarkets/relayd/internal/fixedpoint"
	"github.com/forkmarkets/relayd/internal/server"
	"github.com/forkmarkets/relayd/internal/server/handler"
	"github.com/forkmarkets/relayd/internal/server/ws"
	"github.com/forkmarkets/relayd/internal/service"
)

// ServerMode starts the HTTP API, the WebSocket hub, and the cron-triggered
// reconciliation endpoint. Sync runs only when the external scheduler calls
// the job endpoint; there is no internal timer in this mode.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// SyncMode runs the reconciliation job on an internal timer with no HTTP
// surface. Useful for deployments where the API and the background worker are
// separate processes.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sync mode",
		slog.Duration("interval", a.cfg.Sync.Interval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)
	a.startSyncLoop(ctx, g, deps)
	return g.Wait()
}

// ArchiveMode runs the terminal-order archival job on an internal timer.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode",
		slog.Duration("interval", a.cfg.Archive.Interval.Duration),
		slog.Int("retention_days", a.cfg.Archive.RetentionDays),
	)

	g, ctx := errgroup.WithContext(ctx)
	a.startArchiveLoop(ctx, g, deps)
	return g.Wait()
}

// FullMode runs everything in one process: the HTTP API, the internal sync
// timer, and (when enabled) the archival timer.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startSyncLoop(ctx, g, deps)
	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		a.startArchiveLoop(ctx, g, deps)
	}
	a.startHTTPServer(ctx, g, deps)

	return g.Wait()
}

// buildOrderService assembles the submission pipeline from wired dependencies.
func (a *App) buildOrderService(deps *Dependencies) *service.OrderService {
	return service.NewOrderService(
		deps.OrderStore,
		deps.SettingsStore,
		deps.SettingsCache,
		deps.ReferralStore,
		deps.RateLimiter,
		deps.SignalBus,
		deps.RelayClient,
		deps.Notifier,
		service.OrderServiceConfig{
			RateLimit:  a.cfg.Orders.RateLimit,
			RateWindow: a.cfg.Orders.RateWindow.Duration,
			Bounds: fixedpoint.Bounds{
				CapMicro:   int64(a.cfg.Orders.PriceCapCents) * 10_000,
				FloorMicro: int64(a.cfg.Orders.PriceFloorCents) * 10_000,
			},
		},
		a.logger,
	)
}

func (a *App) buildSyncService(deps *Dependencies) *service.SyncService {
	return service.NewSyncService(
		deps.OrderStore,
		deps.RelayClient,
		nil, // default policy
		service.SyncServiceConfig{
			BatchSize:  a.cfg.Sync.BatchSize,
			TimeBudget: a.cfg.Sync.TimeBudget.Duration,
		},
		a.logger,
	)
}

// startHTTPServer adds the HTTP server and the WebSocket hub to the errgroup
// and arranges graceful shutdown when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	orderSvc := a.buildOrderService(deps)
	syncSvc := a.buildSyncService(deps)

	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(
		server.Config{
			Port:         a.cfg.Server.Port,
			CORSOrigins:  a.cfg.Server.CORSOrigins,
			APIKey:       a.cfg.Server.APIKey,
			IPRateLimit:  a.cfg.Server.IPRateLimit,
			IPRateWindow: a.cfg.Server.IPRateWindow.Duration,
		},
		server.Handlers{
			Health: handler.NewHealthHandler(a.logger),
			Orders: handler.NewOrderHandler(orderSvc, a.logger),
			Sync: handler.NewSyncHandler(syncSvc, handler.SyncHandlerConfig{
				Secret:       a.cfg.Sync.CronSecret,
				DefaultLimit: a.cfg.Sync.DefaultLimit,
				MaxLimit:     a.cfg.Sync.MaxLimit,
			}, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.InfoContext(ctx, "HTTP server shutting down")
		return srv.Shutdown(shutCtx)
	})
}

// startSyncLoop runs the reconciliation job on the configured interval until
// the context is cancelled. One pass runs immediately on startup so a crashed
// process catches up without waiting a full interval.
func (a *App) startSyncLoop(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	syncSvc := a.buildSyncService(deps)
	interval := a.cfg.Sync.Interval.Duration
	if interval <= 0 {
		interval = time.Minute
	}
	limit := a.cfg.Sync.DefaultLimit

	g.Go(func() error {
		runOnce := func() {
			if _, err := syncSvc.Run(ctx, limit); err != nil {
				a.logger.ErrorContext(ctx, "sync loop: run failed",
					slog.String("error", err.Error()),
				)
			}
		}

		runOnce()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				runOnce()
			}
		}
	})
}

// startArchiveLoop periodically moves terminal orders older than the
// retention window to object storage.
func (a *App) startArchiveLoop(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	interval := a.cfg.Archive.Interval.Duration
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour

	g.Go(func() error {
		runOnce := func() {
			cutoff := time.Now().UTC().Add(-retention)
			count, err := deps.Archiver.ArchiveOrders(ctx, cutoff)
			if err != nil {
				a.logger.ErrorContext(ctx, "archive loop: run failed",
					slog.String("error", err.Error()),
				)
				return
			}
			if count > 0 {
				a.logger.InfoContext(ctx, "archive loop: archived terminal orders",
					slog.Int64("count", count),
					slog.Time("cutoff", cutoff),
				)
			}
		}

		runOnce()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				runOnce()
			}
		}
	})
}
