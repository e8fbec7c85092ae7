package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// OrderStore persists the local order ledger.
type OrderStore interface {
	Create(ctx context.Context, order Order) error
	GetByID(ctx context.Context, id string) (Order, error)
	ListByUser(ctx context.Context, userID string, opts ListOpts) ([]Order, error)

	// ListLive returns up to limit rows in "live" status, oldest-updated
	// first, so reconciliation always revisits the stalest rows.
	ListLive(ctx context.Context, limit int) ([]Order, error)

	// ApplySync overwrites status and size_matched with the latest known
	// remote state. It is an idempotent last-write-wins update; overlapping
	// sync runs are safe because the remote service is authoritative.
	ApplySync(ctx context.Context, id string, status OrderStatus, sizeMatched float64) error

	// ListTerminalBefore returns matched/unmatched/cancelled rows whose last
	// update is strictly before the cutoff, for cold-storage archival.
	ListTerminalBefore(ctx context.Context, before time.Time) ([]Order, error)
}

// SettingsStore reads the platform fee schedule.
type SettingsStore interface {
	Get(ctx context.Context) (Settings, error)
}

// SettingsCache is a short-TTL cache in front of SettingsStore so every
// submission does not hit the database for an almost-static row.
type SettingsCache interface {
	Get(ctx context.Context) (Settings, error)
	Set(ctx context.Context, s Settings) error
}

// ReferralStore resolves affiliate attribution for a user. ResolveAffiliate
// returns the affiliate user id, or "" when the user has no stored referrer
// and no active referral record.
type ReferralStore interface {
	ResolveAffiliate(ctx context.Context, userID string) (string, error)
}

// RateLimiter bounds the submission rate per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus is a lightweight pub/sub channel for order lifecycle events,
// consumed by the WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
