// Package payload assembles the blockchain-style order record relayed to
// the external matching engine. Every field is validated and defaulted here
// so the output is always well-formed: addresses fall back to configured
// defaults or the zero address, fee and expiration values are clamped, and
// amounts come from the fixed-point calculator only.
package payload

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/fixedpoint"
)

// ZeroAddress is the open-order taker and the fallback for invalid
// affiliate addresses.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

const (
	// defaultFeeRateBps is applied when the caller passes a NaN fee rate.
	defaultFeeRateBps = 200

	// sideBuy / sideSell are the wire encoding of the order side.
	sideBuy  = 0
	sideSell = 1
)

// Order is the immutable order record sent to the matching engine. Integer
// fields use big.Int to match the uint256 wire domain; they serialize as
// decimal strings at the transport boundary.
type Order struct {
	Salt                *big.Int
	Maker               string
	Signer              string
	Taker               string
	Referrer            string
	Affiliate           string
	TokenID             *big.Int
	MakerAmount         *big.Int
	TakerAmount         *big.Int
	Expiration          int64
	Nonce               int64
	FeeRateBps          int
	AffiliatePercentage int
	Side                int
	SignatureType       int
}

// BuildParams are the submission-time inputs to the builder. Referrer,
// affiliate, fee rate, and expiration are untrusted and normalized here;
// UserAddress and TokenID are expected to be pre-validated by
// the caller.
type BuildParams struct {
	UserAddress           string
	TokenID               string
	Side                  domain.OrderSide
	Class                 domain.OrderClass
	Amount                string
	LimitPrice            string
	LimitShares           string
	ReferrerAddress       string
	AffiliateAddress      string
	AffiliateSharePercent float64
	FeeRateBps            float64
	Expiration            float64

	// DefaultFeeRecipient receives the protocol fee when the referrer is
	// missing or invalid. It may itself be empty, in which case the zero
	// address is used.
	DefaultFeeRecipient string

	Bounds fixedpoint.Bounds
}

// Build assembles a fully defaulted order. It never produces an order with
// an invalid-format address, negative amount, or out-of-range fee.
func Build(p BuildParams) Order {
	referrer := normalizeAddress(p.ReferrerAddress, normalizeAddress(p.DefaultFeeRecipient, ZeroAddress))
	affiliate := normalizeAddress(p.AffiliateAddress, ZeroAddress)

	// The affiliate only earns a share when a real affiliate address is
	// attached; otherwise the percentage is forced to zero no matter what
	// the caller passed.
	affiliatePct := 0
	if affiliate != ZeroAddress {
		affiliatePct = clampPercent(p.AffiliateSharePercent)
	}

	maker, taker := fixedpoint.OrderAmounts(fixedpoint.AmountParams{
		Class:       p.Class,
		Side:        p.Side,
		Amount:      p.Amount,
		LimitPrice:  p.LimitPrice,
		LimitShares: p.LimitShares,
	}, p.Bounds)

	side := sideBuy
	if p.Side == domain.OrderSideSell {
		side = sideSell
	}

	tokenID, ok := new(big.Int).SetString(p.TokenID, 10)
	if !ok || tokenID.Sign() < 0 {
		tokenID = new(big.Int)
	}

	return Order{
		Salt:                NewSalt(),
		Maker:               normalizeAddress(p.UserAddress, ZeroAddress),
		Signer:              normalizeAddress(p.UserAddress, ZeroAddress),
		Taker:               ZeroAddress, // open order, fillable by anyone
		Referrer:            referrer,
		Affiliate:           affiliate,
		TokenID:             tokenID,
		MakerAmount:         maker,
		TakerAmount:         taker,
		Expiration:          clampUnixSeconds(p.Expiration),
		Nonce:               0,
		FeeRateBps:          clampFeeRateBps(p.FeeRateBps),
		AffiliatePercentage: affiliatePct,
		Side:                side,
		SignatureType:       0,
	}
}

// normalizeAddress returns the checksummed form of addr when it is a valid
// 20-byte hex address, and fallback otherwise.
func normalizeAddress(addr, fallback string) string {
	if common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return fallback
}

// clampPercent truncates to an integer and floors negatives at zero.
func clampPercent(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Floor(v))
}

// clampFeeRateBps normalizes the fee rate: NaN falls back to the protocol
// default, negatives clamp to zero, fractions truncate.
func clampFeeRateBps(v float64) int {
	if math.IsNaN(v) {
		return defaultFeeRateBps
	}
	if v < 0 {
		return 0
	}
	if v > 10_000 {
		return 10_000
	}
	return int(math.Trunc(v))
}

// clampUnixSeconds normalizes an expiration timestamp: negatives and NaN
// clamp to zero (never expires), fractions truncate.
func clampUnixSeconds(v float64) int64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return int64(math.Trunc(v))
}
