package domain

import "time"

// Settings is the platform-wide fee schedule. The submission path reads it
// once per order and passes the values by value into the fee computation:
// the fetched bps are an immutable snapshot, never a live reference.
type Settings struct {
	// TradeFeeBps is the total trading fee in basis points (100 = 1%).
	TradeFeeBps int `json:"trade_fee_bps"`

	// AffiliateShareBps is the affiliate's share of the trading fee in basis
	// points of the fee itself (4000 = 40% of the fee).
	AffiliateShareBps int `json:"affiliate_share_bps"`

	// DefaultFeeRecipient is the address credited with the protocol fee when
	// an order carries no valid referrer.
	DefaultFeeRecipient string `json:"default_fee_recipient"`

	UpdatedAt time.Time `json:"updated_at"`
}
