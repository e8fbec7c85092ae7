package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forkmarkets/relayd/internal/domain"
)

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore creates a new OrderStore backed by the given connection pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Create inserts a new ledger row. The row is written exactly once, after the
// relay call succeeded, so created_at and updated_at start equal.
func (s *OrderStore) Create(ctx context.Context, o domain.Order) error {
	const query = `
		INSERT INTO orders (
			id, user_id, condition_id, token_id, side, order_type,
			amount, price, status, clob_order_id, size_matched,
			trade_fee_bps, affiliate_share_bps, affiliate_user_id,
			fork_fee_amount, affiliate_fee_amount,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14,
			$15, $16,
			NOW(), NOW()
		)`

	_, err := s.pool.Exec(ctx, query,
		o.ID, o.UserID, o.ConditionID, o.TokenID,
		string(o.Side), string(o.Class),
		o.Amount, o.Price, string(o.Status),
		o.ClobOrderID, o.SizeMatched,
		o.TradeFeeBps, o.AffiliateShareBps, o.AffiliateUserID,
		o.ForkFeeAmount, o.AffiliateFeeAmount,
	)
	if err != nil {
		return fmt.Errorf("postgres: create order %s: %w", o.ID, err)
	}
	return nil
}

const orderSelectCols = `id, user_id, condition_id, token_id, side, order_type,
	amount, price, status, clob_order_id, size_matched,
	trade_fee_bps, affiliate_share_bps, affiliate_user_id,
	fork_fee_amount, affiliate_fee_amount,
	created_at, updated_at`

func scanOrderFromRow(
	scanner interface{ Scan(dest ...any) error },
) (domain.Order, error) {
	var o domain.Order
	var side, class, status string

	err := scanner.Scan(
		&o.ID, &o.UserID, &o.ConditionID, &o.TokenID,
		&side, &class,
		&o.Amount, &o.Price, &status,
		&o.ClobOrderID, &o.SizeMatched,
		&o.TradeFeeBps, &o.AffiliateShareBps, &o.AffiliateUserID,
		&o.ForkFeeAmount, &o.AffiliateFeeAmount,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}

	o.Side = domain.OrderSide(side)
	o.Class = domain.OrderClass(class)
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func scanOrderRows(rows pgx.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrderFromRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetByID retrieves a single order by ID.
func (s *OrderStore) GetByID(ctx context.Context, id string) (domain.Order, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderSelectCols+` FROM orders WHERE id = $1`, id)

	o, err := scanOrderFromRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("postgres: get order %s: %w", id, err)
	}
	return o, nil
}

// ListByUser returns a user's orders, newest first, with pagination.
func (s *OrderStore) ListByUser(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Order, error) {
	query := `SELECT ` + orderSelectCols + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	args := []any{userID}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	orders, err := scanOrderRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// ListLive returns up to limit live orders, oldest-updated first, so each
// reconciliation pass works on the rows that have waited the longest.
func (s *OrderStore) ListLive(ctx context.Context, limit int) ([]domain.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderSelectCols+` FROM orders
		 WHERE status = 'live'
		 ORDER BY updated_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list live orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrderRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan live orders: %w", err)
	}
	return orders, nil
}

// ApplySync overwrites status and size_matched with the latest remote state.
// Last write wins; the remote matching engine is authoritative.
func (s *OrderStore) ApplySync(ctx context.Context, id string, status domain.OrderStatus, sizeMatched float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET status = $1, size_matched = $2, updated_at = NOW() WHERE id = $3`,
		string(status), sizeMatched, id)
	if err != nil {
		return fmt.Errorf("postgres: sync order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListTerminalBefore returns terminal-status rows last updated strictly
// before the cutoff, oldest first, for cold-storage archival.
func (s *OrderStore) ListTerminalBefore(ctx context.Context, before time.Time) ([]domain.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderSelectCols+` FROM orders
		 WHERE status IN ('matched', 'unmatched', 'cancelled') AND updated_at < $1
		 ORDER BY updated_at ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list terminal orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrderRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan terminal orders: %w", err)
	}
	return orders, nil
}
