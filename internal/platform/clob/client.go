// Package clob is the REST client for the external central-limit-order-book
// service. It relays signed orders and answers batch status queries; the
// remote service is the source of truth for matching, so this client never
// interprets order state beyond transporting it.
package clob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forkmarkets/relayd/internal/crypto"
	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/payload"
)

// Per-endpoint client-side timeouts. The primary order endpoint is kept
// tight so a stuck relay fails fast; auxiliary relayer operations are given
// more room.
const (
	orderTimeout   = 5 * time.Second
	dataTimeout    = 10 * time.Second
	relayerTimeout = 15 * time.Second
)

const (
	orderPath  = "/order"
	ordersPath = "/data/orders"
)

// Client talks to the CLOB REST API with HMAC-authenticated requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       *crypto.RelayAuth
}

// New creates a CLOB client. baseURL is the API root, e.g.
// "https://clob.forkmarkets.com". Timeouts are applied per call, not on the
// shared http.Client.
func New(baseURL string, auth *crypto.RelayAuth) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		auth:       auth,
	}
}

// SubmitOrder relays one order to the matching engine. It returns
// domain.ErrTransport when no response was received (network error or
// timeout) and domain.ErrRelayRejected when the service answered non-OK; in
// both cases the caller must not write any local state.
func (c *Client) SubmitOrder(ctx context.Context, order payload.Order, owner string) (SubmitResult, error) {
	req := submitRequest{
		Order: toWireOrder(order),
		Owner: owner,
	}

	status, parsed, err := c.post(ctx, orderPath, req, orderTimeout)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("clob: submit order: %w: %v", domain.ErrTransport, err)
	}

	if status < 200 || status >= 300 {
		msg := parsed.errMessage()
		if msg == "" {
			msg = fmt.Sprintf("order relay failed (HTTP %d)", status)
		}
		return SubmitResult{}, fmt.Errorf("clob: submit order: %w: %s", domain.ErrRelayRejected, msg)
	}

	res := SubmitResult{Status: RemoteStatusLive}
	if parsed != nil {
		if parsed.OrderID != "" {
			res.OrderID = parsed.OrderID
		}
		if parsed.Status != "" {
			res.Status = parsed.Status
		}
		res.TxHash = parsed.TxHash
	}
	return res, nil
}

// GetOrders queries the authoritative status of every id in one call. Ids
// the remote service no longer recognizes are simply absent from the result;
// the reconciliation job treats absence as "unmatched".
func (c *Client) GetOrders(ctx context.Context, ids []string) ([]domain.RemoteOrder, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	queries := make([]orderQuery, 0, len(ids))
	for _, id := range ids {
		queries = append(queries, orderQuery{OrderID: id})
	}

	body, err := json.Marshal(queries)
	if err != nil {
		return nil, fmt.Errorf("clob: marshal order query: %w", err)
	}

	respBody, status, err := c.do(ctx, http.MethodPost, ordersPath, body, dataTimeout)
	if err != nil {
		return nil, fmt.Errorf("clob: query orders: %w: %v", domain.ErrTransport, err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("clob: query orders: %w: HTTP %d", domain.ErrRelayRejected, status)
	}

	var records []remoteRecord
	if err := json.Unmarshal(respBody, &records); err != nil {
		// A 2xx with an unparseable body is not an authoritative answer.
		// Reconciliation marks absent ids unmatched, so an empty result here
		// would tombstone the whole batch on a garbled proxy page.
		return nil, fmt.Errorf("clob: query orders: %w: decode response: %v", domain.ErrTransport, err)
	}

	remote := make([]domain.RemoteOrder, 0, len(records))
	for _, r := range records {
		if r.Order.ID == "" {
			continue
		}
		remote = append(remote, r.toDomain())
	}
	return remote, nil
}

// post marshals v, sends it to path, and best-effort parses the response as
// a submitResponse. A non-JSON or empty response body yields a nil parsed
// payload, never an error: callers decide based on the HTTP status.
func (c *Client) post(ctx context.Context, path string, v any, timeout time.Duration) (int, *submitResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request body: %w", err)
	}

	respBody, status, err := c.do(ctx, http.MethodPost, path, body, timeout)
	if err != nil {
		return 0, nil, err
	}

	var parsed submitResponse
	if json.Unmarshal(respBody, &parsed) != nil {
		return status, nil, nil
	}
	return status, &parsed, nil
}

// do signs and executes one HTTP request under a per-call timeout and
// returns the raw body and status.
func (c *Client) do(ctx context.Context, method, path string, body []byte, timeout time.Duration) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.auth != nil {
		for k, v := range c.auth.Headers(method, path, string(body)) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	return respBody, resp.StatusCode, nil
}
