// Package fixedpoint converts between user-facing decimal amounts and the
// integer micro units (1e6 scale) used for every monetary and share-count
// field in orders and the ledger. All order math happens in micro integers;
// floats only appear at the formatting boundary.
package fixedpoint

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Scale is the micro-unit scale factor: 1.0 == 1,000,000 micro units.
const Scale = 1_000_000

var bigScale = big.NewInt(Scale)

// ToMicro converts a decimal string to micro units, rounding to the nearest
// integer. Unparseable or non-finite input yields zero rather than an error
// so downstream code sees a degenerate (zero-amount) order instead of a
// panic path.
func ToMicro(amount string) *big.Int {
	f, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return new(big.Int)
	}
	return ToMicroFloat(f)
}

// ToMicroFloat converts a float64 amount to micro units, rounding to the
// nearest integer. NaN and infinities yield zero.
func ToMicroFloat(f float64) *big.Int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return new(big.Int)
	}
	return big.NewInt(int64(math.Round(f * Scale)))
}

// FromMicro formats a micro-unit value as a decimal string with the given
// number of fractional digits. A nil value formats as zero.
func FromMicro(v *big.Int, precision int) string {
	if precision < 0 {
		precision = 0
	}
	if v == nil {
		return strconv.FormatFloat(0, 'f', precision, 64)
	}
	f := new(big.Rat).SetFrac(v, bigScale)
	return f.FloatString(precision)
}

// FromMicroString parses a micro-unit integer string and formats it like
// FromMicro. Unparseable input formats as zero.
func FromMicroString(v string, precision int) string {
	n, ok := new(big.Int).SetString(strings.TrimSpace(v), 10)
	if !ok {
		n = nil
	}
	return FromMicro(n, precision)
}
