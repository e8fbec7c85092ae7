package fixedpoint

import (
	"fmt"
	"testing"
)

func TestToMicro(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.5", "1500000"},
		{"0", "0"},
		{"0.1", "100000"},
		{"100", "100000000"},
		{"0.0000005", "1"}, // rounds to nearest
		{"-2.5", "-2500000"},
		{"not-a-number", "0"},
		{"", "0"},
		{"NaN", "0"},
		{"Inf", "0"},
	}
	for _, tc := range cases {
		got := ToMicro(tc.in)
		if got.String() != tc.want {
			t.Fatalf("ToMicro(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFromMicroString(t *testing.T) {
	cases := []struct {
		in        string
		precision int
		want      string
	}{
		{"1500000", 1, "1.5"},
		{"1500000", 2, "1.50"},
		{"0", 1, "0.0"},
		{"123456", 6, "0.123456"},
		{"garbage", 1, "0.0"},
		{"garbage", 3, "0.000"},
	}
	for _, tc := range cases {
		got := FromMicroString(tc.in, tc.precision)
		if got != tc.want {
			t.Fatalf("FromMicroString(%q, %d) = %q, want %q", tc.in, tc.precision, got, tc.want)
		}
	}
}

func TestMicroRoundTrip(t *testing.T) {
	// Every value with one fractional digit must survive the round trip at
	// 1-decimal precision.
	for i := -500; i <= 500; i++ {
		in := fmt.Sprintf("%.1f", float64(i)/10)
		got := FromMicro(ToMicro(in), 1)
		if got != in {
			t.Fatalf("round trip %q -> %q", in, got)
		}
	}
}
