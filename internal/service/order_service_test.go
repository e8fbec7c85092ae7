package service

import (
	"context"
	"errors"
	"testing"

	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/platform/clob"
)

const (
	testUser      = "0x1111111111111111111111111111111111111111"
	testAffiliate = "0x2222222222222222222222222222222222222222"
)

func newTestOrderService(store *memOrderStore, relay *fakeRelay, opts ...func(*testDeps)) (*OrderService, *testDeps) {
	deps := &testDeps{
		settings: &memSettingsStore{settings: domain.Settings{
			TradeFeeBps:       100,
			AffiliateShareBps: 4000,
		}},
		referrals: &memReferrals{},
		limiter:   &allowAllLimiter{},
		bus:       &memBus{},
		alerter:   &memAlerter{},
	}
	for _, o := range opts {
		o(deps)
	}
	svc := NewOrderService(
		store, deps.settings, nil, deps.referrals, deps.limiter, deps.bus,
		relay, deps.alerter, OrderServiceConfig{}, discardLogger(),
	)
	return svc, deps
}

type testDeps struct {
	settings  *memSettingsStore
	referrals *memReferrals
	limiter   *allowAllLimiter
	bus       *memBus
	alerter   *memAlerter
}

func marketBuyParams(amount string) SubmitParams {
	return SubmitParams{
		UserID:      testUser,
		UserAddress: testUser,
		ConditionID: "cond-1",
		TokenID:     "12345",
		Intent: domain.OrderIntent{
			Side:   domain.OrderSideBuy,
			Class:  domain.OrderClassMarket,
			Amount: amount,
		},
	}
}

func TestSubmitOrderHappyPath(t *testing.T) {
	store := newMemOrderStore()
	relay := &fakeRelay{result: clob.SubmitResult{OrderID: "clob-1", Status: "LIVE"}}
	svc, deps := newTestOrderService(store, relay)

	res, err := svc.SubmitOrder(context.Background(), marketBuyParams("100"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.ClobOrderID != "clob-1" || res.Status != domain.OrderStatusLive {
		t.Fatalf("result = %+v", res)
	}

	row, err := store.GetByID(context.Background(), res.OrderID)
	if err != nil {
		t.Fatalf("ledger row missing: %v", err)
	}
	if row.Amount != 100 || row.TradeFeeBps != 100 {
		t.Fatalf("row = %+v", row)
	}
	// No affiliate attributed: both affiliate fields must stay zero even
	// though the global share setting is nonzero.
	if row.AffiliateFeeAmount != 0 || row.AffiliateShareBps != 0 || row.AffiliateUserID != nil {
		t.Fatalf("affiliate fields set without attribution: %+v", row)
	}
	if row.ForkFeeAmount != 1.00 {
		t.Fatalf("fork fee = %v, want 1.00", row.ForkFeeAmount)
	}
	if len(deps.bus.messages) != 1 {
		t.Fatalf("published %d events, want 1", len(deps.bus.messages))
	}
}

func TestSubmitOrderWithAffiliateSplitsFee(t *testing.T) {
	store := newMemOrderStore()
	relay := &fakeRelay{result: clob.SubmitResult{OrderID: "clob-2"}}
	svc, _ := newTestOrderService(store, relay, func(d *testDeps) {
		d.referrals = &memReferrals{affiliate: testAffiliate}
	})

	res, err := svc.SubmitOrder(context.Background(), marketBuyParams("100"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	row, _ := store.GetByID(context.Background(), res.OrderID)
	if row.AffiliateUserID == nil || *row.AffiliateUserID != testAffiliate {
		t.Fatalf("affiliate user = %v", row.AffiliateUserID)
	}
	if row.AffiliateFeeAmount != 0.40 || row.ForkFeeAmount != 0.60 {
		t.Fatalf("split = fork %v / affiliate %v", row.ForkFeeAmount, row.AffiliateFeeAmount)
	}
	if relay.last.AffiliatePercentage != 40 {
		t.Fatalf("payload affiliate pct = %d, want 40", relay.last.AffiliatePercentage)
	}
}

func TestSubmitOrderValidation(t *testing.T) {
	store := newMemOrderStore()
	relay := &fakeRelay{}
	svc, _ := newTestOrderService(store, relay)

	cases := []struct {
		name   string
		mutate func(*SubmitParams)
	}{
		{"bad side", func(p *SubmitParams) { p.Intent.Side = "hold" }},
		{"bad type", func(p *SubmitParams) { p.Intent.Class = "stop" }},
		{"zero amount", func(p *SubmitParams) { p.Intent.Amount = "0" }},
		{"negative amount", func(p *SubmitParams) { p.Intent.Amount = "-5" }},
		{"non-numeric amount", func(p *SubmitParams) { p.Intent.Amount = "abc" }},
		{"infinite amount", func(p *SubmitParams) { p.Intent.Amount = "Inf" }},
		{"missing market", func(p *SubmitParams) { p.ConditionID = "" }},
	}
	for _, tc := range cases {
		p := marketBuyParams("100")
		tc.mutate(&p)
		_, err := svc.SubmitOrder(context.Background(), p)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: err = %v, want ErrValidation", tc.name, err)
		}
	}
	if relay.calls != 0 {
		t.Fatalf("relay called %d times for invalid input", relay.calls)
	}
}

func TestSubmitOrderLimitPriceRange(t *testing.T) {
	svc, _ := newTestOrderService(newMemOrderStore(), &fakeRelay{})

	p := marketBuyParams("")
	p.Intent.Class = domain.OrderClassLimit
	p.Intent.LimitPrice = "150"
	p.Intent.LimitShares = "10"

	_, err := svc.SubmitOrder(context.Background(), p)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestSubmitOrderUnauthenticated(t *testing.T) {
	svc, _ := newTestOrderService(newMemOrderStore(), &fakeRelay{})

	p := marketBuyParams("100")
	p.UserID = ""
	p.UserAddress = ""

	_, err := svc.SubmitOrder(context.Background(), p)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestSubmitOrderRateLimited(t *testing.T) {
	relay := &fakeRelay{}
	svc, _ := newTestOrderService(newMemOrderStore(), relay, func(d *testDeps) {
		d.limiter = &allowAllLimiter{denied: true}
	})

	_, err := svc.SubmitOrder(context.Background(), marketBuyParams("100"))
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if relay.calls != 0 {
		t.Fatal("relay called for rate-limited request")
	}
}

func TestSubmitOrderRelayRejected(t *testing.T) {
	store := newMemOrderStore()
	relay := &fakeRelay{err: domain.ErrRelayRejected}
	svc, _ := newTestOrderService(store, relay)

	_, err := svc.SubmitOrder(context.Background(), marketBuyParams("100"))
	if !errors.Is(err, domain.ErrRelayRejected) {
		t.Fatalf("err = %v, want ErrRelayRejected", err)
	}
	if len(store.orders) != 0 {
		t.Fatal("ledger row written for rejected order")
	}
}

func TestSubmitOrderWithoutRemoteIDPersistsPending(t *testing.T) {
	store := newMemOrderStore()
	// Relay accepted but the response carried no order id.
	relay := &fakeRelay{result: clob.SubmitResult{}}
	svc, _ := newTestOrderService(store, relay)

	res, err := svc.SubmitOrder(context.Background(), marketBuyParams("100"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != domain.OrderStatusPending {
		t.Fatalf("result status = %q, want pending", res.Status)
	}

	row, err := store.GetByID(context.Background(), res.OrderID)
	if err != nil {
		t.Fatalf("ledger row missing: %v", err)
	}
	if row.Status != domain.OrderStatusPending || row.ClobOrderID != "" {
		t.Fatalf("row = %+v, want pending with empty clob id", row)
	}

	// A pending row has no remote id to reconcile, so the sync scan must
	// not pick it up.
	live, err := store.ListLive(context.Background(), 10)
	if err != nil {
		t.Fatalf("list live: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("pending row leaked into the live scan: %+v", live)
	}
}

func TestSubmitOrderPersistFailureStillSucceeds(t *testing.T) {
	store := newMemOrderStore()
	store.createErr = errors.New("connection refused")
	relay := &fakeRelay{result: clob.SubmitResult{OrderID: "clob-3"}}
	svc, deps := newTestOrderService(store, relay)

	res, err := svc.SubmitOrder(context.Background(), marketBuyParams("100"))
	if err != nil {
		t.Fatalf("submit should succeed once the relay accepted: %v", err)
	}
	if res.ClobOrderID != "clob-3" {
		t.Fatalf("result = %+v", res)
	}
	if len(deps.alerter.alerts) != 1 {
		t.Fatalf("alerts = %v, want 1 alert", deps.alerter.alerts)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	store := newMemOrderStore()
	store.orders["o1"] = domain.Order{ID: "o1", UserID: testUser}
	svc, _ := newTestOrderService(store, &fakeRelay{})

	if _, err := svc.GetOrder(context.Background(), testUser, "o1"); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.GetOrder(context.Background(), "someone-else", "o1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign read err = %v, want ErrNotFound", err)
	}
}
