package fixedpoint

import (
	"testing"

	"github.com/forkmarkets/relayd/internal/domain"
)

func TestLimitOrderAmountSymmetry(t *testing.T) {
	buy := AmountParams{
		Class:       domain.OrderClassLimit,
		Side:        domain.OrderSideBuy,
		LimitPrice:  "40",
		LimitShares: "10",
	}
	maker, taker := OrderAmounts(buy, DefaultBounds)
	if maker.Int64() != 4_000_000 || taker.Int64() != 10_000_000 {
		t.Fatalf("buy limit: maker=%s taker=%s, want 4000000/10000000", maker, taker)
	}

	sell := buy
	sell.Side = domain.OrderSideSell
	maker, taker = OrderAmounts(sell, DefaultBounds)
	if maker.Int64() != 10_000_000 || taker.Int64() != 4_000_000 {
		t.Fatalf("sell limit: maker=%s taker=%s, want 10000000/4000000", maker, taker)
	}
}

func TestLimitOrderFloorsNotional(t *testing.T) {
	// 33.3 cents x 3.33 shares: 333000 * 3330000 / 1e6 = 1108890 exactly,
	// but 33.33 x 0.01 shows truncation: 333300 * 10000 / 1e6 = 3333.
	p := AmountParams{
		Class:       domain.OrderClassLimit,
		Side:        domain.OrderSideBuy,
		LimitPrice:  "33.33",
		LimitShares: "0.01",
	}
	maker, taker := OrderAmounts(p, DefaultBounds)
	if maker.Int64() != 3333 {
		t.Fatalf("maker = %s, want 3333", maker)
	}
	if taker.Int64() != 10_000 {
		t.Fatalf("taker = %s, want 10000", taker)
	}
}

func TestMarketOrderBounds(t *testing.T) {
	buy := AmountParams{
		Class:  domain.OrderClassMarket,
		Side:   domain.OrderSideBuy,
		Amount: "5",
	}
	b := Bounds{CapMicro: 990_000, FloorMicro: 10_000}

	// 5_000_000 * 1_000_000 / 990_000 floor-divides to 5050505.
	maker, taker := OrderAmounts(buy, b)
	if maker.Int64() != 5_000_000 {
		t.Fatalf("buy maker = %s, want 5000000", maker)
	}
	if taker.Int64() != 5_050_505 {
		t.Fatalf("buy taker = %s, want 5050505", taker)
	}

	// Deterministic across runs.
	maker2, taker2 := OrderAmounts(buy, b)
	if maker2.Cmp(maker) != 0 || taker2.Cmp(taker) != 0 {
		t.Fatalf("amounts not reproducible: %s/%s vs %s/%s", maker, taker, maker2, taker2)
	}

	sell := buy
	sell.Side = domain.OrderSideSell
	maker, taker = OrderAmounts(sell, b)
	if maker.Int64() != 5_000_000 {
		t.Fatalf("sell maker = %s, want 5000000", maker)
	}
	// 10_000 * 5_000_000 / 1_000_000 = 50_000.
	if taker.Int64() != 50_000 {
		t.Fatalf("sell taker = %s, want 50000", taker)
	}
}

func TestDegenerateInputsYieldZeroAmounts(t *testing.T) {
	cases := []AmountParams{
		{Class: domain.OrderClassMarket, Side: domain.OrderSideBuy, Amount: "0"},
		{Class: domain.OrderClassMarket, Side: domain.OrderSideBuy, Amount: "-5"},
		{Class: domain.OrderClassMarket, Side: domain.OrderSideSell, Amount: "junk"},
		{Class: domain.OrderClassLimit, Side: domain.OrderSideBuy, LimitPrice: "0", LimitShares: "10"},
		{Class: domain.OrderClassLimit, Side: domain.OrderSideSell, LimitPrice: "40", LimitShares: "-1"},
		{Class: domain.OrderClassLimit, Side: domain.OrderSideBuy, LimitPrice: "NaN", LimitShares: "10"},
	}
	for i, p := range cases {
		maker, taker := OrderAmounts(p, DefaultBounds)
		if maker.Sign() != 0 || taker.Sign() != 0 {
			t.Fatalf("case %d: maker=%s taker=%s, want zeros", i, maker, taker)
		}
	}
}
