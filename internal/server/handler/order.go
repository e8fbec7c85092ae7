package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/forkmarkets/relayd/internal/domain"
	"github.com/forkmarkets/relayd/internal/service"
)

// OrderService defines the methods that the order handler requires from the
// service layer.
type OrderService interface {
	SubmitOrder(ctx context.Context, p service.SubmitParams) (domain.SubmitResult, error)
	GetOrder(ctx context.Context, userID, id string) (domain.Order, error)
	ListOrders(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Order, error)
}

// OrderHandler serves the order submission and ledger endpoints.
type OrderHandler struct {
	orders OrderService
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler with the given service and logger.
func NewOrderHandler(orders OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logHandler(logger, "orders"),
	}
}

// submitRequest is the POST /api/orders body.
type submitRequest struct {
	ConditionID string             `json:"condition_id"`
	TokenID     string             `json:"token_id"`
	Intent      domain.OrderIntent `json:"order"`
	Expiration  float64            `json:"expiration,omitempty"`
}

// SubmitOrder relays one order to the matching engine and records it.
// POST /api/orders
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	userID, userAddress := identity(r)
	if userID == "" || userAddress == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.orders.SubmitOrder(r.Context(), service.SubmitParams{
		UserID:      userID,
		UserAddress: userAddress,
		ConditionID: req.ConditionID,
		TokenID:     req.TokenID,
		Intent:      req.Intent,
		Expiration:  req.Expiration,
	})
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "submit order failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			writeError(w, status, "order submission failed")
			return
		}
		writeError(w, status, userFacingMessage(err))
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ListOrders returns the caller's ledger rows, newest first.
// GET /api/orders?limit=50&offset=0
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), userID, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list orders failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// GetOrder returns one ledger row owned by the caller.
// GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get order failed",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// userFacingMessage strips the internal wrapping prefixes from a taxonomy
// error so the client sees only the reason.
func userFacingMessage(err error) string {
	msg := err.Error()
	// Wrapped errors look like "order_service: <sentinel>: reason"; keep the
	// sentinel and reason, drop the package prefix.
	const prefix = "order_service: "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
