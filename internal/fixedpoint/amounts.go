package fixedpoint

import (
	"math/big"

	"github.com/forkmarkets/relayd/internal/domain"
)

// Bounds are the protocol's market-order price assumptions in micro units.
// Cap protects a buyer from an unbounded slippage assumption; Floor protects
// a seller. They are protocol constants carried in configuration, not
// computed here.
type Bounds struct {
	CapMicro   int64
	FloorMicro int64
}

// DefaultBounds matches the protocol defaults: $0.99 cap, $0.01 floor.
var DefaultBounds = Bounds{CapMicro: 990_000, FloorMicro: 10_000}

// AmountParams are the pre-validated inputs to the amount computation.
// Amount applies to market orders; LimitPrice (0-100 cents scale) and
// LimitShares apply to limit orders.
type AmountParams struct {
	Class       domain.OrderClass
	Side        domain.OrderSide
	Amount      string
	LimitPrice  string
	LimitShares string
}

// OrderAmounts derives the maker and taker amounts in micro units. The two
// values are always produced by this one deterministic formula; callers must
// never set them independently.
//
// All multiply-then-rescale steps run in big.Int arithmetic with truncating
// division, never floats, so repeated runs produce identical amounts with no
// penny-level drift.
//
// The calculator assumes the caller already rejected non-positive or
// non-finite inputs. If that contract is violated it returns zero amounts
// rather than failing, so downstream code can detect a degenerate order.
func OrderAmounts(p AmountParams, b Bounds) (maker, taker *big.Int) {
	switch p.Class {
	case domain.OrderClassLimit:
		return limitAmounts(p)
	default:
		return marketAmounts(p, b)
	}
}

func limitAmounts(p AmountParams) (maker, taker *big.Int) {
	// LimitPrice arrives on a 0-100 cents scale; normalize to a 0-1
	// probability before converting to micro units.
	price := ToMicro(p.LimitPrice)
	price.Quo(price, big.NewInt(100))
	shares := ToMicro(p.LimitShares)

	if price.Sign() <= 0 || shares.Sign() <= 0 {
		return new(big.Int), new(big.Int)
	}

	// notional = price * shares / 1e6, floor division.
	notional := new(big.Int).Mul(price, shares)
	notional.Quo(notional, bigScale)

	if p.Side == domain.OrderSideSell {
		return shares, notional
	}
	return notional, shares
}

func marketAmounts(p AmountParams, b Bounds) (maker, taker *big.Int) {
	maker = ToMicro(p.Amount)
	if maker.Sign() <= 0 || b.CapMicro <= 0 {
		return new(big.Int), new(big.Int)
	}

	if p.Side == domain.OrderSideSell {
		// Assume the price floor: taker = floor * maker / 1e6.
		taker = new(big.Int).Mul(big.NewInt(b.FloorMicro), maker)
		taker.Quo(taker, bigScale)
		return maker, taker
	}

	// Assume the price cap: taker = maker * 1e6 / cap.
	taker = new(big.Int).Mul(maker, bigScale)
	taker.Quo(taker, big.NewInt(b.CapMicro))
	return maker, taker
}
