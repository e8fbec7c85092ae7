package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/forkmarkets/relayd/internal/domain"
)

// headerCronSecret authenticates the external scheduler.
const headerCronSecret = "X-Cron-Secret"

// SyncRunner runs one reconciliation pass.
type SyncRunner interface {
	Run(ctx context.Context, limit int) (domain.SyncSummary, error)
}

// SyncHandlerConfig bounds the per-run work set.
type SyncHandlerConfig struct {
	// Secret is the shared cron secret. An empty secret disables the
	// endpoint entirely rather than leaving it open.
	Secret string

	// DefaultLimit / MaxLimit clamp the ?limit query parameter.
	DefaultLimit int
	MaxLimit     int
}

// SyncHandler exposes the reconciliation job to the external scheduler.
type SyncHandler struct {
	sync   SyncRunner
	cfg    SyncHandlerConfig
	logger *slog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(sync SyncRunner, cfg SyncHandlerConfig, logger *slog.Logger) *SyncHandler {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 200
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 500
	}
	return &SyncHandler{
		sync:   sync,
		cfg:    cfg,
		logger: logHandler(logger, "order-sync"),
	}
}

// Run triggers one reconciliation pass and returns its summary.
// GET /api/jobs/order-sync?limit=200
//
// The secret check happens before anything else; an unauthorized call must
// not touch the database.
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := h.cfg.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > h.cfg.MaxLimit {
		limit = h.cfg.MaxLimit
	}

	summary, err := h.sync.Run(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "sync run failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "sync run failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *SyncHandler) authorized(r *http.Request) bool {
	if h.cfg.Secret == "" {
		return false
	}

	secret := r.Header.Get(headerCronSecret)
	if secret == "" {
		if auth := r.Header.Get("Authorization"); auth != "" {
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				secret = strings.TrimSpace(parts[1])
			}
		}
	}
	if secret == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.Secret)) == 1
}
