// Package service implements the submission and reconciliation flows on top
// of the domain store interfaces.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/fixedpoint"
	"github.com/forkmarkets/relayd/internal/payload"
	"github.com/forkmarkets/relayd/internal/platform/clob"
)

// Relay submits assembled orders to the external matching engine.
type Relay interface {
	SubmitOrder(ctx context.Context, order payload.Order, owner string) (clob.SubmitResult, error)
}

// Alerter pushes operator alerts. Satisfied by notify.Notifier.
type Alerter interface {
	NotifyAll(ctx context.Context, title, message string) error
}

// OrderServiceConfig carries the submission-path tunables.
type OrderServiceConfig struct {
	// RateLimit / RateWindow bound per-user submissions.
	RateLimit  int
	RateWindow time.Duration

	// Bounds are the market-order price assumptions.
	Bounds fixedpoint.Bounds
}

// SubmitParams is one authenticated submission request.
type SubmitParams struct {
	UserID      string
	UserAddress string
	ConditionID string
	TokenID     string
	Intent      domain.OrderIntent
	Expiration  float64
}

// OrderService coordinates one order submission end to end: validate, price,
// relay, record.
type OrderService struct {
	orders    domain.OrderStore
	settings  domain.SettingsStore
	cache     domain.SettingsCache
	referrals domain.ReferralStore
	limiter   domain.RateLimiter
	bus       domain.SignalBus
	relay     Relay
	alerter   Alerter
	cfg       OrderServiceConfig
	logger    *slog.Logger
}

// NewOrderService creates an OrderService with all required dependencies.
// cache and alerter may be nil; the service degrades to direct settings reads
// and log-only alerts.
func NewOrderService(
	orders domain.OrderStore,
	settings domain.SettingsStore,
	cache domain.SettingsCache,
	referrals domain.ReferralStore,
	limiter domain.RateLimiter,
	bus domain.SignalBus,
	relay Relay,
	alerter Alerter,
	cfg OrderServiceConfig,
	logger *slog.Logger,
) *OrderService {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Second
	}
	if cfg.Bounds.CapMicro == 0 && cfg.Bounds.FloorMicro == 0 {
		cfg.Bounds = fixedpoint.DefaultBounds
	}
	return &OrderService{
		orders:    orders,
		settings:  settings,
		cache:     cache,
		referrals: referrals,
		limiter:   limiter,
		bus:       bus,
		relay:     relay,
		alerter:   alerter,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "order_service")),
	}
}

// SubmitOrder runs the full submission pipeline. The relay call is the point
// of no return: once the matching engine accepts the order, the caller gets a
// success response even if the local ledger write fails afterwards. A lost
// ledger row is an operator problem, not a user-facing one, and the
// reconciliation jobs cannot fix what was never accepted remotely.
func (s *OrderService) SubmitOrder(ctx context.Context, p SubmitParams) (domain.SubmitResult, error) {
	if p.UserID == "" || p.UserAddress == "" {
		return domain.SubmitResult{}, fmt.Errorf("order_service: %w: missing user identity", domain.ErrUnauthenticated)
	}
	if p.ConditionID == "" || p.TokenID == "" {
		return domain.SubmitResult{}, fmt.Errorf("order_service: %w: market is required", domain.ErrValidation)
	}
	if err := validateIntent(p.Intent); err != nil {
		return domain.SubmitResult{}, fmt.Errorf("order_service: %w", err)
	}

	allowed, err := s.limiter.Allow(ctx, "orders:"+p.UserID, s.cfg.RateLimit, s.cfg.RateWindow)
	if err != nil {
		// A broken limiter must not take order submission down with it.
		s.logger.WarnContext(ctx, "rate limiter unavailable, allowing request",
			slog.String("user_id", p.UserID),
			slog.String("error", err.Error()),
		)
	} else if !allowed {
		return domain.SubmitResult{}, fmt.Errorf("order_service: %w: too many orders", domain.ErrRateLimited)
	}

	settings := s.currentSettings(ctx)

	affiliateID := s.resolveAffiliate(ctx, p.UserID)

	order := payload.Build(payload.BuildParams{
		UserAddress:           p.UserAddress,
		TokenID:               p.TokenID,
		Side:                  p.Intent.Side,
		Class:                 p.Intent.Class,
		Amount:                p.Intent.Amount,
		LimitPrice:            p.Intent.LimitPrice,
		LimitShares:           p.Intent.LimitShares,
		AffiliateAddress:      affiliateID,
		AffiliateSharePercent: float64(settings.AffiliateShareBps) / 100,
		FeeRateBps:            float64(settings.TradeFeeBps),
		Expiration:            p.Expiration,
		DefaultFeeRecipient:   settings.DefaultFeeRecipient,
		Bounds:                s.cfg.Bounds,
	})

	// The calculator signals degenerate numeric input with zero amounts.
	if order.MakerAmount.Sign() <= 0 || order.TakerAmount.Sign() <= 0 {
		return domain.SubmitResult{}, fmt.Errorf("order_service: %w: order amounts resolve to zero", domain.ErrValidation)
	}

	relayRes, err := s.relay.SubmitOrder(ctx, order, p.UserID)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("order_service: submit: %w", err)
	}

	amount, price := orderNotional(p.Intent)
	hasAffiliate := affiliateID != ""
	split := ComputeFeeSplit(amount, settings.TradeFeeBps, settings.AffiliateShareBps, hasAffiliate)

	// An acceptance without a remote id cannot be reconciled yet; the row
	// stays pending until a later submission response or manual lookup fills
	// the id in. Pending rows are not scanned by the sync job.
	status := domain.OrderStatusLive
	if relayRes.OrderID == "" {
		status = domain.OrderStatusPending
	}

	row := domain.Order{
		ID:                 uuid.NewString(),
		UserID:             p.UserID,
		ConditionID:        p.ConditionID,
		TokenID:            p.TokenID,
		Side:               p.Intent.Side,
		Class:              p.Intent.Class,
		Amount:             amount,
		Price:              price,
		Status:             status,
		ClobOrderID:        relayRes.OrderID,
		TradeFeeBps:        settings.TradeFeeBps,
		ForkFeeAmount:      split.ForkFee,
		AffiliateFeeAmount: split.AffiliateFee,
	}
	if hasAffiliate {
		row.AffiliateShareBps = settings.AffiliateShareBps
		row.AffiliateUserID = &affiliateID
	}

	if err := s.orders.Create(ctx, row); err != nil {
		// The order is live remotely but missing locally. Raise the alarm
		// and still report success to the user.
		s.logger.ErrorContext(ctx, "ledger write failed after relay accept",
			slog.String("order_id", row.ID),
			slog.String("clob_order_id", relayRes.OrderID),
			slog.String("user_id", p.UserID),
			slog.String("error", err.Error()),
		)
		if s.alerter != nil {
			_ = s.alerter.NotifyAll(ctx, "Order ledger write failed",
				fmt.Sprintf("CLOB order %s for user %s accepted but not recorded: %v",
					relayRes.OrderID, p.UserID, err))
		}
	} else {
		s.publishEvent(ctx, "order_submitted", row)
	}

	s.logger.InfoContext(ctx, "order submitted",
		slog.String("order_id", row.ID),
		slog.String("clob_order_id", relayRes.OrderID),
		slog.String("user_id", p.UserID),
		slog.String("side", string(row.Side)),
		slog.String("type", string(row.Class)),
	)

	return domain.SubmitResult{
		OrderID:     row.ID,
		ClobOrderID: relayRes.OrderID,
		Status:      status,
		TxHash:      relayRes.TxHash,
	}, nil
}

// GetOrder retrieves a single ledger row, scoped to its owner.
func (s *OrderService) GetOrder(ctx context.Context, userID, id string) (domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order_service: get order %q: %w", id, err)
	}
	if order.UserID != userID {
		return domain.Order{}, fmt.Errorf("order_service: get order %q: %w", id, domain.ErrNotFound)
	}
	return order, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("order_service: list orders for %q: %w", userID, err)
	}
	return orders, nil
}

// currentSettings reads the fee schedule through the cache. Cache misses fall
// through to the store; store failures fall back to defaults rather than
// blocking submission.
func (s *OrderService) currentSettings(ctx context.Context) domain.Settings {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx); err == nil {
			return cached
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "settings cache read failed",
				slog.String("error", err.Error()))
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "settings read failed, using defaults",
			slog.String("error", err.Error()))
		return domain.Settings{TradeFeeBps: 100, AffiliateShareBps: 4000}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, settings); err != nil {
			s.logger.WarnContext(ctx, "settings cache write failed",
				slog.String("error", err.Error()))
		}
	}
	return settings
}

// resolveAffiliate looks up affiliate attribution. Lookup failures are logged
// and treated as no attribution; an order must not fail because the referral
// tables were unreachable.
func (s *OrderService) resolveAffiliate(ctx context.Context, userID string) string {
	if s.referrals == nil {
		return ""
	}
	affiliate, err := s.referrals.ResolveAffiliate(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "affiliate resolution failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return affiliate
}

func (s *OrderService) publishEvent(ctx context.Context, event string, o domain.Order) {
	if s.bus == nil {
		return
	}
	evt, _ := json.Marshal(map[string]string{
		"event":    event,
		"order_id": o.ID,
		"user_id":  o.UserID,
		"side":     string(o.Side),
		"type":     string(o.Class),
		"status":   string(o.Status),
	})
	if err := s.bus.Publish(ctx, "orders", evt); err != nil {
		s.logger.WarnContext(ctx, "publish event failed",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}
}

// validateIntent rejects malformed intents, reporting the first failure only.
func validateIntent(in domain.OrderIntent) error {
	switch in.Side {
	case domain.OrderSideBuy, domain.OrderSideSell:
	default:
		return fmt.Errorf("%w: side must be buy or sell", domain.ErrValidation)
	}

	switch in.Class {
	case domain.OrderClassMarket:
		if _, ok := parsePositive(in.Amount); !ok {
			return fmt.Errorf("%w: amount must be a positive number", domain.ErrValidation)
		}
	case domain.OrderClassLimit:
		price, ok := parsePositive(in.LimitPrice)
		if !ok || price > 100 {
			return fmt.Errorf("%w: limit price must be between 0 and 100", domain.ErrValidation)
		}
		if _, ok := parsePositive(in.LimitShares); !ok {
			return fmt.Errorf("%w: shares must be a positive number", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: type must be market or limit", domain.ErrValidation)
	}

	return nil
}

// parsePositive parses a decimal string, accepting only finite positives.
func parsePositive(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// orderNotional derives the ledger's dollar amount and unit price from the
// intent. Limit orders store the normalized 0-1 price; market orders store
// the spend amount with no price.
func orderNotional(in domain.OrderIntent) (amount, price float64) {
	if in.Class == domain.OrderClassLimit {
		p, _ := parsePositive(in.LimitPrice)
		shares, _ := parsePositive(in.LimitShares)
		price = p / 100
		amount = round6(price * shares)
		return amount, price
	}
	amount, _ = parsePositive(in.Amount)
	return amount, 0
}
