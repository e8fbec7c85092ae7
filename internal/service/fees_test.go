package service

import "testing"

func TestComputeFeeSplitWithAffiliate(t *testing.T) {
	split := ComputeFeeSplit(100, 100, 4000, true)

	if split.TotalFee != 1.00 {
		t.Fatalf("total = %v, want 1.00", split.TotalFee)
	}
	if split.AffiliateFee != 0.40 {
		t.Fatalf("affiliate = %v, want 0.40", split.AffiliateFee)
	}
	if split.ForkFee != 0.60 {
		t.Fatalf("fork = %v, want 0.60", split.ForkFee)
	}
	if round6(split.ForkFee+split.AffiliateFee) != split.TotalFee {
		t.Fatalf("legs %v + %v do not reconcile to %v",
			split.ForkFee, split.AffiliateFee, split.TotalFee)
	}
}

func TestComputeFeeSplitNoAffiliate(t *testing.T) {
	split := ComputeFeeSplit(100, 100, 4000, false)

	if split.AffiliateFee != 0 {
		t.Fatalf("affiliate = %v, want 0", split.AffiliateFee)
	}
	if split.ForkFee != split.TotalFee {
		t.Fatalf("fork = %v, want full fee %v", split.ForkFee, split.TotalFee)
	}
}

func TestComputeFeeSplitRoundingReconciles(t *testing.T) {
	// Amounts chosen so the affiliate leg rounds; the fork leg must absorb
	// the remainder.
	cases := []struct {
		amount   float64
		feeBps   int
		shareBps int
	}{
		{33.333333, 100, 4000},
		{0.000001, 100, 4000},
		{1234.567891, 175, 3333},
		{99.999999, 250, 5000},
	}
	for _, tc := range cases {
		split := ComputeFeeSplit(tc.amount, tc.feeBps, tc.shareBps, true)
		if got := round6(split.ForkFee + split.AffiliateFee); got != split.TotalFee {
			t.Fatalf("amount=%v fee=%d share=%d: %v + %v = %v, want %v",
				tc.amount, tc.feeBps, tc.shareBps,
				split.ForkFee, split.AffiliateFee, got, split.TotalFee)
		}
		if split.ForkFee < 0 || split.AffiliateFee < 0 {
			t.Fatalf("negative leg: %+v", split)
		}
	}
}

func TestComputeFeeSplitDegenerateInputs(t *testing.T) {
	for _, split := range []struct {
		name string
		got  float64
	}{
		{"zero amount", ComputeFeeSplit(0, 100, 4000, true).TotalFee},
		{"negative amount", ComputeFeeSplit(-5, 100, 4000, true).TotalFee},
		{"zero fee", ComputeFeeSplit(100, 0, 4000, true).TotalFee},
	} {
		if split.got != 0 {
			t.Fatalf("%s: total = %v, want 0", split.name, split.got)
		}
	}
}
