package clob

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/payload"
)

// wireOrder is the transport form of an order. Every uint256-domain field is
// serialized as a decimal string; JSON numbers cannot carry them safely.
type wireOrder struct {
	Salt                string `json:"salt"`
	Maker               string `json:"maker"`
	Signer              string `json:"signer"`
	Taker               string `json:"taker"`
	Referrer            string `json:"referrer"`
	Affiliate           string `json:"affiliate"`
	TokenID             string `json:"tokenId"`
	MakerAmount         string `json:"makerAmount"`
	TakerAmount         string `json:"takerAmount"`
	Expiration          string `json:"expiration"`
	Nonce               string `json:"nonce"`
	FeeRateBps          string `json:"feeRateBps"`
	AffiliatePercentage string `json:"affiliatePercentage"`
	Side                int    `json:"side"`
	SignatureType       int    `json:"signatureType"`
}

func toWireOrder(o payload.Order) wireOrder {
	bigStr := func(v *big.Int) string {
		if v == nil {
			return "0"
		}
		return v.String()
	}
	return wireOrder{
		Salt:                bigStr(o.Salt),
		Maker:               o.Maker,
		Signer:              o.Signer,
		Taker:               o.Taker,
		Referrer:            o.Referrer,
		Affiliate:           o.Affiliate,
		TokenID:             bigStr(o.TokenID),
		MakerAmount:         bigStr(o.MakerAmount),
		TakerAmount:         bigStr(o.TakerAmount),
		Expiration:          strconv.FormatInt(o.Expiration, 10),
		Nonce:               strconv.FormatInt(o.Nonce, 10),
		FeeRateBps:          strconv.Itoa(o.FeeRateBps),
		AffiliatePercentage: strconv.Itoa(o.AffiliatePercentage),
		Side:                o.Side,
		SignatureType:       o.SignatureType,
	}
}

// submitRequest is the body of POST /order.
type submitRequest struct {
	Order wireOrder `json:"order"`
	Owner string    `json:"owner"`
}

// submitResponse is the loosely parsed relay response. Unknown or
// missing fields are tolerated; error text may arrive under either "error"
// or "message".
type submitResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderId"`
	Status   string `json:"status"`
	TxHash   string `json:"txHash"`
	ErrorMsg string `json:"error"`
	Message  string `json:"message"`
}

// errMessage extracts the relay's own failure description, if any.
func (r *submitResponse) errMessage() string {
	if r == nil {
		return ""
	}
	if strings.TrimSpace(r.ErrorMsg) != "" {
		return r.ErrorMsg
	}
	return strings.TrimSpace(r.Message)
}

// SubmitResult reports relay acceptance back to the service layer.
type SubmitResult struct {
	OrderID string
	Status  string
	TxHash  string
}

// orderQuery is one element of the POST /data/orders request body.
type orderQuery struct {
	OrderID string `json:"orderId"`
}

// remoteRecord wraps one entry of the batch-status response.
type remoteRecord struct {
	Order struct {
		ID          string      `json:"id"`
		Status      string      `json:"status"`
		SizeMatched json.Number `json:"sizeMatched"`
	} `json:"order"`
}

func (r remoteRecord) toDomain() domain.RemoteOrder {
	size, _ := r.Order.SizeMatched.Float64()
	return domain.RemoteOrder{
		ID:          r.Order.ID,
		Status:      r.Order.Status,
		SizeMatched: size,
	}
}

// RemoteStatusLive is the matching engine's "still on the book" status as
// used by the default sync policy.
const RemoteStatusLive = "LIVE"
