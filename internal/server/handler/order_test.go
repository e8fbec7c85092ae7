package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubOrderService struct {
	submitResult domain.SubmitResult
	submitErr    error
	submitted    *service.SubmitParams

	order  domain.Order
	getErr error

	list    []domain.Order
	listErr error
}

func (s *stubOrderService) SubmitOrder(_ context.Context, p service.SubmitParams) (domain.SubmitResult, error) {
	s.submitted = &p
	if s.submitErr != nil {
		return domain.SubmitResult{}, s.submitErr
	}
	return s.submitResult, nil
}

func (s *stubOrderService) GetOrder(context.Context, string, string) (domain.Order, error) {
	return s.order, s.getErr
}

func (s *stubOrderService) ListOrders(context.Context, string, domain.ListOpts) ([]domain.Order, error) {
	return s.list, s.listErr
}

func submitBody() string {
	return `{
		"condition_id": "cond-1",
		"token_id": "12345",
		"order": {"side": "buy", "type": "market", "amount": "100"}
	}`
}

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("X-User-Id", "user-1")
	r.Header.Set("X-User-Address", "0x1111111111111111111111111111111111111111")
	return r
}

func TestSubmitOrderCreated(t *testing.T) {
	svc := &stubOrderService{submitResult: domain.SubmitResult{
		OrderID:     "o1",
		ClobOrderID: "c1",
		Status:      domain.OrderStatusLive,
	}}
	h := NewOrderHandler(svc, testLogger())

	rec := httptest.NewRecorder()
	h.SubmitOrder(rec, authedRequest(http.MethodPost, "/api/orders", submitBody()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res domain.SubmitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.OrderID != "o1" || res.ClobOrderID != "c1" {
		t.Fatalf("result = %+v", res)
	}
	if svc.submitted.UserID != "user-1" || svc.submitted.Intent.Amount != "100" {
		t.Fatalf("params = %+v", svc.submitted)
	}
}

func TestSubmitOrderMissingIdentity(t *testing.T) {
	svc := &stubOrderService{}
	h := NewOrderHandler(svc, testLogger())

	rec := httptest.NewRecorder()
	h.SubmitOrder(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(submitBody())))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if svc.submitted != nil {
		t.Fatal("service called without identity")
	}
}

func TestSubmitOrderErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrRelayRejected, http.StatusBadGateway},
		{domain.ErrTransport, http.StatusGatewayTimeout},
		{domain.ErrPersistence, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := NewOrderHandler(&stubOrderService{submitErr: tc.err}, testLogger())
		rec := httptest.NewRecorder()
		h.SubmitOrder(rec, authedRequest(http.MethodPost, "/api/orders", submitBody()))
		if rec.Code != tc.want {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestSubmitOrderBadBody(t *testing.T) {
	h := NewOrderHandler(&stubOrderService{}, testLogger())

	rec := httptest.NewRecorder()
	h.SubmitOrder(rec, authedRequest(http.MethodPost, "/api/orders", "{not json"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListOrdersEmptySliceNotNull(t *testing.T) {
	h := NewOrderHandler(&stubOrderService{}, testLogger())

	rec := httptest.NewRecorder()
	h.ListOrders(rec, authedRequest(http.MethodGet, "/api/orders", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"orders":[]`) {
		t.Fatalf("body = %s, want empty array", rec.Body.String())
	}
}
