package domain

import (
	"time"
)

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderClass distinguishes market orders (spend a dollar amount at a
// protected price assumption) from limit orders (explicit price and shares).
type OrderClass string

const (
	OrderClassMarket OrderClass = "market"
	OrderClassLimit  OrderClass = "limit"
)

// OrderStatus tracks the local ledger lifecycle. The ledger mirrors the
// remote matching engine: "live" rows are the ones the sync jobs reconcile,
// "unmatched" marks orders the remote service no longer reports.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusLive      OrderStatus = "live"
	OrderStatusMatched   OrderStatus = "matched"
	OrderStatusUnmatched OrderStatus = "unmatched"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether the status can no longer change through
// reconciliation.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusMatched, OrderStatusUnmatched, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderIntent is the ephemeral user input for one submission. It is consumed
// once and never persisted as-is; the durable record is the Order row.
//
// Amount is used by market orders (a dollar amount). LimitPrice (0-100,
// cents-style) and LimitShares are used by limit orders. All three are
// decimal strings exactly as received from the client.
type OrderIntent struct {
	Side        OrderSide  `json:"side"`
	Class       OrderClass `json:"type"`
	Amount      string     `json:"amount"`
	LimitPrice  string     `json:"limit_price"`
	LimitShares string     `json:"limit_shares"`
}

// Order is a row in the local order ledger. It is created by the submission
// path immediately after a successful relay call and mutated only by the
// reconciliation sync jobs afterwards.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	ConditionID string      `json:"condition_id"`
	TokenID     string      `json:"token_id"`
	Side        OrderSide   `json:"side"`
	Class       OrderClass  `json:"type"`
	Amount      float64     `json:"amount"`
	Price       float64     `json:"price"`
	Status      OrderStatus `json:"status"`

	// ClobOrderID is the remote matching engine's identifier, used as the
	// reconciliation key.
	ClobOrderID string  `json:"clob_order_id"`
	SizeMatched float64 `json:"size_matched"`

	// Fee snapshot taken at submission time. AffiliateUserID is nil when no
	// affiliate was attributed, in which case AffiliateFeeAmount and
	// AffiliateShareBps are both zero.
	TradeFeeBps        int     `json:"trade_fee_bps"`
	AffiliateShareBps  int     `json:"affiliate_share_bps"`
	AffiliateUserID    *string `json:"affiliate_user_id,omitempty"`
	ForkFeeAmount      float64 `json:"fork_fee_amount"`
	AffiliateFeeAmount float64 `json:"affiliate_fee_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeeSplit is the derived fee breakdown for one order. ForkFee absorbs the
// rounding remainder so ForkFee + AffiliateFee always reconciles to TotalFee
// at 6 decimal places.
type FeeSplit struct {
	TotalFee     float64
	ForkFee      float64
	AffiliateFee float64
}

// SubmitResult is returned to the caller after a submission attempt.
type SubmitResult struct {
	OrderID     string      `json:"order_id"`
	ClobOrderID string      `json:"clob_order_id"`
	Status      OrderStatus `json:"status"`
	TxHash      string      `json:"tx_hash,omitempty"`
}
