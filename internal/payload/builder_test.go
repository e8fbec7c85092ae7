package payload

import (
	"math"
	"testing"

	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/fixedpoint"
)

const (
	testUser      = "0x1111111111111111111111111111111111111111"
	testRecipient = "0x2222222222222222222222222222222222222222"
	testAffiliate = "0x3333333333333333333333333333333333333333"
)

func baseParams() BuildParams {
	return BuildParams{
		UserAddress:         testUser,
		TokenID:             "123456789",
		Side:                domain.OrderSideBuy,
		Class:               domain.OrderClassLimit,
		LimitPrice:          "40",
		LimitShares:         "10",
		FeeRateBps:          200,
		DefaultFeeRecipient: testRecipient,
		Bounds:              fixedpoint.DefaultBounds,
	}
}

func TestBuildWellFormedOrder(t *testing.T) {
	o := Build(baseParams())

	if o.Salt == nil || o.Salt.Sign() == 0 {
		t.Fatalf("salt must be non-zero, got %v", o.Salt)
	}
	if o.Taker != ZeroAddress {
		t.Fatalf("taker = %s, want zero address (open order)", o.Taker)
	}
	if o.SignatureType != 0 {
		t.Fatalf("signature type = %d, want 0", o.SignatureType)
	}
	if o.MakerAmount.Int64() != 4_000_000 || o.TakerAmount.Int64() != 10_000_000 {
		t.Fatalf("amounts = %s/%s, want 4000000/10000000", o.MakerAmount, o.TakerAmount)
	}
	if o.TokenID.String() != "123456789" {
		t.Fatalf("token id = %s", o.TokenID)
	}
}

func TestBuildReferrerDefaulting(t *testing.T) {
	p := baseParams()
	p.ReferrerAddress = "not-an-address"
	o := Build(p)
	if o.Referrer != testRecipient {
		t.Fatalf("referrer = %s, want configured default %s", o.Referrer, testRecipient)
	}

	p.ReferrerAddress = ""
	p.DefaultFeeRecipient = ""
	o = Build(p)
	if o.Referrer != ZeroAddress {
		t.Fatalf("referrer = %s, want zero address when no default configured", o.Referrer)
	}
}

func TestBuildAffiliateZeroPercentageInvariant(t *testing.T) {
	for _, addr := range []string{"", "0xnope", ZeroAddress} {
		p := baseParams()
		p.AffiliateAddress = addr
		p.AffiliateSharePercent = 40
		o := Build(p)
		if o.AffiliatePercentage != 0 {
			t.Fatalf("affiliate %q: percentage = %d, want 0", addr, o.AffiliatePercentage)
		}
	}

	p := baseParams()
	p.AffiliateAddress = testAffiliate
	p.AffiliateSharePercent = 40.9
	o := Build(p)
	if o.AffiliatePercentage != 40 {
		t.Fatalf("valid affiliate: percentage = %d, want floor(40.9) = 40", o.AffiliatePercentage)
	}
}

func TestBuildClampsFeeAndExpiration(t *testing.T) {
	p := baseParams()
	p.FeeRateBps = math.NaN()
	if o := Build(p); o.FeeRateBps != defaultFeeRateBps {
		t.Fatalf("NaN fee rate -> %d, want default %d", o.FeeRateBps, defaultFeeRateBps)
	}

	p.FeeRateBps = -50
	if o := Build(p); o.FeeRateBps != 0 {
		t.Fatalf("negative fee rate -> %d, want 0", Build(p).FeeRateBps)
	}

	p.FeeRateBps = 123.9
	if o := Build(p); o.FeeRateBps != 123 {
		t.Fatalf("fractional fee rate -> %d, want 123", o.FeeRateBps)
	}

	p.Expiration = -10
	if o := Build(p); o.Expiration != 0 {
		t.Fatalf("negative expiration -> %d, want 0", o.Expiration)
	}

	p.Expiration = 1_700_000_000.7
	if o := Build(p); o.Expiration != 1_700_000_000 {
		t.Fatalf("fractional expiration -> %d, want truncation", o.Expiration)
	}
}

func TestNewSaltUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		s := NewSalt()
		if s.Sign() == 0 {
			t.Fatal("zero salt")
		}
		if seen[s.String()] {
			t.Fatalf("duplicate salt after %d draws", i)
		}
		seen[s.String()] = true
	}
}
