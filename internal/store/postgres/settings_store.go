package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forkmarkets/relayd/internal/domain"
)

// SettingsStore reads the platform fee schedule. The table holds a single
// row; a missing row falls back to compiled-in defaults so a fresh database
// still serves orders.
type SettingsStore struct {
	pool *pgxpool.Pool
}

// NewSettingsStore creates a new SettingsStore backed by the given pool.
func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

// DefaultSettings is used when the platform_settings row has never been
// written.
var DefaultSettings = domain.Settings{
	TradeFeeBps:       100,
	AffiliateShareBps: 4000,
}

// Get returns the current fee schedule.
func (s *SettingsStore) Get(ctx context.Context) (domain.Settings, error) {
	var out domain.Settings
	err := s.pool.QueryRow(ctx,
		`SELECT trade_fee_bps, affiliate_share_bps, default_fee_recipient, updated_at
		 FROM platform_settings
		 ORDER BY updated_at DESC
		 LIMIT 1`,
	).Scan(&out.TradeFeeBps, &out.AffiliateShareBps, &out.DefaultFeeRecipient, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultSettings, nil
		}
		return domain.Settings{}, fmt.Errorf("postgres: get settings: %w", err)
	}
	return out, nil
}
