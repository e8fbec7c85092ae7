package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferralStore resolves affiliate attribution using PostgreSQL.
type ReferralStore struct {
	pool *pgxpool.Pool
}

// NewReferralStore creates a new ReferralStore backed by the given pool.
func NewReferralStore(pool *pgxpool.Pool) *ReferralStore {
	return &ReferralStore{pool: pool}
}

// ResolveAffiliate returns the affiliate user id for a trader. The user's own
// stored referrer takes precedence; an active row in the referrals table is
// the fallback. No attribution at all returns "".
func (s *ReferralStore) ResolveAffiliate(ctx context.Context, userID string) (string, error) {
	var referrer *string
	err := s.pool.QueryRow(ctx,
		`SELECT referrer_user_id FROM users WHERE id = $1`, userID,
	).Scan(&referrer)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("postgres: resolve referrer for %s: %w", userID, err)
	}
	if referrer != nil && *referrer != "" && *referrer != userID {
		return *referrer, nil
	}

	var affiliate string
	err = s.pool.QueryRow(ctx,
		`SELECT affiliate_user_id FROM referrals
		 WHERE referred_user_id = $1 AND status = 'active'
		 ORDER BY created_at DESC
		 LIMIT 1`, userID,
	).Scan(&affiliate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("postgres: resolve affiliate for %s: %w", userID, err)
	}
	if affiliate == userID {
		return "", nil
	}
	return affiliate, nil
}
