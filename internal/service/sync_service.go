package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/platform/clob"
)

// StatusFetcher queries the authoritative state of a batch of orders.
type StatusFetcher interface {
	GetOrders(ctx context.Context, ids []string) ([]domain.RemoteOrder, error)
}

// SyncServiceConfig carries the reconciliation tunables.
type SyncServiceConfig struct {
	// BatchSize is the number of orders per status query.
	BatchSize int

	// TimeBudget is the wall-clock limit for one run. The budget is checked
	// before each batch, never mid-batch, so a run ends on a batch boundary.
	TimeBudget time.Duration
}

// SyncService reconciles live ledger rows against the matching engine.
type SyncService struct {
	orders  domain.OrderStore
	fetcher StatusFetcher
	policy  domain.SyncPolicy
	cfg     SyncServiceConfig
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewSyncService creates a SyncService. policy may be nil, in which case
// DefaultSyncPolicy is used.
func NewSyncService(
	orders domain.OrderStore,
	fetcher StatusFetcher,
	policy domain.SyncPolicy,
	cfg SyncServiceConfig,
	logger *slog.Logger,
) *SyncService {
	if policy == nil {
		policy = DefaultSyncPolicy
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = 25 * time.Second
	}
	return &SyncService{
		orders:  orders,
		fetcher: fetcher,
		policy:  policy,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "sync_service")),
		now:     time.Now,
	}
}

// Run performs one reconciliation pass over up to limit live orders, oldest
// updated first. Per-item failures are collected into the summary; only a
// failure to load the work set at all is returned as an error.
func (s *SyncService) Run(ctx context.Context, limit int) (domain.SyncSummary, error) {
	started := s.now()
	deadline := started.Add(s.cfg.TimeBudget)

	summary := domain.SyncSummary{Errors: []domain.SyncError{}}

	live, err := s.orders.ListLive(ctx, limit)
	if err != nil {
		return summary, fmt.Errorf("sync_service: load live orders: %w", err)
	}
	summary.Scanned = len(live)

	for start := 0; start < len(live); start += s.cfg.BatchSize {
		if !s.now().Before(deadline) {
			summary.TimeLimitReached = true
			break
		}

		end := start + s.cfg.BatchSize
		if end > len(live) {
			end = len(live)
		}
		s.syncBatch(ctx, live[start:end], &summary)
	}

	s.logger.InfoContext(ctx, "sync run finished",
		slog.Int("scanned", summary.Scanned),
		slog.Int("updated", summary.Updated),
		slog.Int("skipped_live", summary.SkippedLive),
		slog.Int("marked_unmatched", summary.MarkedUnmatched),
		slog.Int("errors", len(summary.Errors)),
		slog.Bool("time_limit_reached", summary.TimeLimitReached),
		slog.Duration("elapsed", s.now().Sub(started)),
	)

	return summary, nil
}

func (s *SyncService) syncBatch(ctx context.Context, batch []domain.Order, summary *domain.SyncSummary) {
	ids := make([]string, 0, len(batch))
	for _, o := range batch {
		if o.ClobOrderID == "" {
			summary.Errors = append(summary.Errors, domain.SyncError{
				Context: "order " + o.ID,
				Error:   "no clob order id",
			})
			continue
		}
		ids = append(ids, o.ClobOrderID)
	}
	if len(ids) == 0 {
		return
	}

	remote, err := s.fetcher.GetOrders(ctx, ids)
	if err != nil {
		// The whole batch failed; record one error per order so the summary
		// accounts for every scanned row.
		for _, o := range batch {
			if o.ClobOrderID == "" {
				continue
			}
			summary.Errors = append(summary.Errors, domain.SyncError{
				Context: "order " + o.ID,
				Error:   err.Error(),
			})
		}
		return
	}

	byID := make(map[string]domain.RemoteOrder, len(remote))
	for _, r := range remote {
		byID[r.ID] = r
	}

	for _, o := range batch {
		if o.ClobOrderID == "" {
			continue
		}

		r, found := byID[o.ClobOrderID]
		if !found {
			// Absent from the authoritative response means the engine no
			// longer knows the order.
			if err := s.orders.ApplySync(ctx, o.ID, domain.OrderStatusUnmatched, o.SizeMatched); err != nil {
				summary.Errors = append(summary.Errors, domain.SyncError{
					Context: "order " + o.ID,
					Error:   err.Error(),
				})
				continue
			}
			summary.MarkedUnmatched++
			summary.Updated++
			continue
		}

		decision := s.policy(o, r)
		if decision.Action == domain.SyncSkip {
			summary.SkippedLive++
			continue
		}

		if err := s.orders.ApplySync(ctx, o.ID, decision.Status, decision.SizeMatched); err != nil {
			summary.Errors = append(summary.Errors, domain.SyncError{
				Context: "order " + o.ID,
				Error:   err.Error(),
			})
			continue
		}
		summary.Updated++
	}
}

// DefaultSyncPolicy skips rows the engine still reports live with an
// unchanged fill, and rewrites everything else from remote state.
func DefaultSyncPolicy(local domain.Order, remote domain.RemoteOrder) domain.SyncDecision {
	status := mapRemoteStatus(remote.Status)
	if status == domain.OrderStatusLive && remote.SizeMatched == local.SizeMatched {
		return domain.SyncDecision{Action: domain.SyncSkip}
	}
	return domain.SyncDecision{
		Action:      domain.SyncUpdate,
		Status:      status,
		SizeMatched: remote.SizeMatched,
	}
}

// mapRemoteStatus translates the engine's status vocabulary into ledger
// terms. Unknown statuses are treated as still live so the next run looks at
// the order again.
func mapRemoteStatus(s string) domain.OrderStatus {
	switch strings.ToUpper(s) {
	case clob.RemoteStatusLive:
		return domain.OrderStatusLive
	case "MATCHED", "FILLED":
		return domain.OrderStatusMatched
	case "CANCELED", "CANCELLED":
		return domain.OrderStatusCancelled
	case "UNMATCHED":
		return domain.OrderStatusUnmatched
	default:
		return domain.OrderStatusLive
	}
}
