package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/visiongate/visiongate/internal/billing"
	"github.com/visiongate/visiongate/internal/metrics"
	"github.com/visiongate/visiongate/internal/model"
)

// UsageService is the metering surface the checkout endpoint needs.
type UsageService interface {
	UsageFor(ctx context.Context, userID string) (model.Usage, error)
	Cost(usage model.Usage) int64
}

// CheckoutHandler creates payment sessions for accumulated usage.
type CheckoutHandler struct {
	logger   *slog.Logger
	usage    UsageService
	checkout billing.CheckoutClient
	metrics  metrics.Recorder
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(logger *slog.Logger, usage UsageService, checkout billing.CheckoutClient, recorder metrics.Recorder) *CheckoutHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CheckoutHandler{
		logger:   logger,
		usage:    usage,
		checkout: checkout,
		metrics:  recorder,
	}
}

// CreateCheckoutSession handles POST /checkout/.
// Loads the user's accumulated usage, prices it in cents and opens a
// payment session for that amount.
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}

	usage, err := h.usage.UsageFor(ctx, req.UserID)
	if err != nil {
		h.logger.Error("failed to load usage",
			slog.String("error", err.Error()),
			slog.String("user_id", req.UserID),
		)
		writeDetail(w, http.StatusInternalServerError, "Failed to load usage")
		return
	}

	cost := h.usage.Cost(usage)

	sessionID, err := h.checkout.CreateCheckoutSession(ctx, cost)
	if err != nil {
		h.metrics.IncCheckoutSession("error")
		h.logger.Error("failed to create checkout session",
			slog.String("error", err.Error()),
			slog.String("user_id", req.UserID),
			slog.Int64("amount_cents", cost),
		)
		writeDetail(w, http.StatusBadGateway, "Payment provider error")
		return
	}

	h.metrics.IncCheckoutSession("ok")
	h.logger.Info("checkout session created",
		slog.String("user_id", req.UserID),
		slog.Int64("amount_cents", cost),
	)

	writeJSON(w, http.StatusOK, model.CheckoutResponse{ID: sessionID})
}
