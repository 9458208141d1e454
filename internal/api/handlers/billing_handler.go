package handlers

import (
	"encoding/json"
	goerrors "errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	apiContext "rentr/internal/api/context"
	"rentr/internal/api/middleware"
	"rentr/internal/engine/billing"
	"rentr/internal/pkg/errors"
	"rentr/internal/platform/repositories"
)

type BillingHandler struct {
	checkout      *billing.CheckoutService
	catalog       *billing.CatalogService
	subscriptions *billing.SubscriptionService
	eventRepo     *repositories.BillingEventRepository
}

func NewBillingHandler(checkout *billing.CheckoutService, catalog *billing.CatalogService, subscriptions *billing.SubscriptionService, eventRepo *repositories.BillingEventRepository) *BillingHandler {
	return &BillingHandler{
		checkout:      checkout,
		catalog:       catalog,
		subscriptions: subscriptions,
		eventRepo:     eventRepo,
	}
}

type CheckoutRequest struct {
	PlanKey    string `json:"plan_key"`
	SeatCount  int    `json:"seat_count"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type SessionResponse struct {
	URL string `json:"url"`
}

func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.PlanKey == "" || req.SuccessURL == "" || req.CancelURL == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "plan_key, success_url and cancel_url are required", nil)
		return
	}
	if req.SeatCount == 0 {
		req.SeatCount = tenant.Org.SeatCount
	}
	if req.SeatCount < 1 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "seat_count must be at least 1", nil)
		return
	}

	url, err := h.checkout.CreateCheckoutSession(tenant.OrgID, req.PlanKey, req.SeatCount, req.SuccessURL, req.CancelURL)
	if err != nil {
		if goerrors.Is(err, errors.ErrNotFound) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Plan not found", nil)
			return
		}
		log.Error().Err(err).Str("org_id", tenant.OrgID).Str("plan_key", req.PlanKey).Msg("checkout session creation failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create checkout session", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SessionResponse{URL: url})
}

type PortalRequest struct {
	ReturnURL string `json:"return_url"`
}

func (h *BillingHandler) CreatePortal(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req PortalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.ReturnURL == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "return_url is required", nil)
		return
	}

	url, err := h.checkout.CreatePortalSession(tenant.OrgID, req.ReturnURL)
	if err != nil {
		if goerrors.Is(err, errors.ErrConflict) {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Organization has never subscribed", nil)
			return
		}
		log.Error().Err(err).Str("org_id", tenant.OrgID).Msg("portal session creation failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create portal session", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SessionResponse{URL: url})
}

func (h *BillingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.catalog.FindActive()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plans)
}

func (h *BillingHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	events, err := h.eventRepo.ListByOrganization(tenant.OrgID, limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// CancelSubscription takes effect immediately and is terminal.
func (h *BillingHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	if err := h.subscriptions.Cancel(tenant.OrgID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to cancel subscription", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
