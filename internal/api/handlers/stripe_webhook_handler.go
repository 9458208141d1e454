package handlers

import (
	"encoding/json"
	goerrors "errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"rentr/internal/engine/billing"
	"rentr/internal/pkg/errors"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

// StripeWebhookHandler receives provider events. The body must stay raw
// until signature verification; parsing happens inside the reconciler.
type StripeWebhookHandler struct {
	reconciler *billing.Reconciler
}

func NewStripeWebhookHandler(reconciler *billing.Reconciler) *StripeWebhookHandler {
	return &StripeWebhookHandler{reconciler: reconciler}
}

func (h *StripeWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Failed to read request body", nil)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing Stripe signature", nil)
		return
	}

	if err := h.reconciler.Process(payload, sigHeader); err != nil {
		if goerrors.Is(err, billing.ErrInvalidSignature) {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeUnauthorized, "Invalid webhook signature", nil)
			return
		}
		// A 5xx makes the provider redeliver; the failed attempt is already
		// recorded in the audit log.
		log.Error().Err(err).Msg("webhook processing failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Webhook processing failed", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}
