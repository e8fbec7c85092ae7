package clob

import (
	"context"
	"encoding/base64"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forkmarkets/relayd/internal/crypto"
	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/payload"
)

func testOrder() payload.Order {
	return payload.Order{
		Salt:        big.NewInt(42),
		Maker:       "0x1111111111111111111111111111111111111111",
		Signer:      "0x1111111111111111111111111111111111111111",
		Taker:       payload.ZeroAddress,
		Referrer:    payload.ZeroAddress,
		Affiliate:   payload.ZeroAddress,
		TokenID:     big.NewInt(7),
		MakerAmount: big.NewInt(4_000_000),
		TakerAmount: big.NewInt(10_000_000),
		FeeRateBps:  200,
	}
}

func newTestClient(url string) *Client {
	return New(url, &crypto.RelayAuth{
		Address:    "0x1111111111111111111111111111111111111111",
		Key:        "k",
		Secret:     base64.StdEncoding.EncodeToString([]byte("s")),
		Passphrase: "p",
	})
}

func TestSubmitOrderSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/order" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if r.Header.Get(crypto.HeaderSignature) == "" || r.Header.Get(crypto.HeaderTimestamp) == "" {
			t.Fatal("missing auth headers")
		}
		w.Write([]byte(`{"success":true,"orderId":"clob-1","status":"LIVE","txHash":"0xabc"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).SubmitOrder(context.Background(), testOrder(), "user-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.OrderID != "clob-1" || res.Status != "LIVE" || res.TxHash != "0xabc" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSubmitOrderRejectedExtractsMessage(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"error":"insufficient balance"}`, "insufficient balance"},
		{`{"message":"market closed"}`, "market closed"},
		{`not json at all`, "order relay failed (HTTP 400)"},
		{``, "order relay failed (HTTP 400)"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(tc.body))
		}))

		_, err := newTestClient(srv.URL).SubmitOrder(context.Background(), testOrder(), "user-1")
		srv.Close()

		if !errors.Is(err, domain.ErrRelayRejected) {
			t.Fatalf("body %q: err = %v, want ErrRelayRejected", tc.body, err)
		}
		if got := err.Error(); !strings.Contains(got, tc.want) {
			t.Fatalf("body %q: message %q does not contain %q", tc.body, got, tc.want)
		}
	}
}

func TestSubmitOrderTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := newTestClient(srv.URL).SubmitOrder(context.Background(), testOrder(), "user-1")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestGetOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/orders" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"order":{"id":"a","status":"LIVE","sizeMatched":0}},
			{"order":{"id":"b","status":"MATCHED","sizeMatched":"12.5"}}
		]`))
	}))
	defer srv.Close()

	remote, err := newTestClient(srv.URL).GetOrders(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("get orders: %v", err)
	}
	if len(remote) != 2 {
		t.Fatalf("got %d records, want 2", len(remote))
	}
	if remote[1].ID != "b" || remote[1].Status != "MATCHED" || remote[1].SizeMatched != 12.5 {
		t.Fatalf("record = %+v", remote[1])
	}
}

func TestGetOrdersMalformedBodyIsTransportError(t *testing.T) {
	// A 2xx with a non-JSON body (proxy error page) must not look like an
	// authoritative empty result, or reconciliation would mark every id in
	// the batch unmatched.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway hiccup</html>`))
	}))
	defer srv.Close()

	remote, err := newTestClient(srv.URL).GetOrders(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if remote != nil {
		t.Fatalf("got records %+v from a malformed body", remote)
	}
}

func TestGetOrdersEmptyInput(t *testing.T) {
	c := newTestClient("http://unreachable.invalid")
	remote, err := c.GetOrders(context.Background(), nil)
	if err != nil || remote != nil {
		t.Fatalf("empty input should short-circuit, got %v / %v", remote, err)
	}
}
