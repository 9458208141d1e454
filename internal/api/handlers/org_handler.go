package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "rentr/internal/api/context"
	"rentr/internal/api/middleware"
	"rentr/internal/engine/billing"
	"rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

type OrgHandler struct {
	orgRepo       *repositories.OrganizationRepository
	subscriptions *billing.SubscriptionService
}

func NewOrgHandler(orgRepo *repositories.OrganizationRepository, subscriptions *billing.SubscriptionService) *OrgHandler {
	return &OrgHandler{orgRepo: orgRepo, subscriptions: subscriptions}
}

// GetCurrent reads through the status gate so an expired billing period
// surfaces as suspended on this very response.
func (h *OrgHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	state, err := h.subscriptions.IsActive(tenant.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state.Organization)
}

type UpdateOrgRequest struct {
	Name string `json:"name"`
}

func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req UpdateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "name is required", nil)
		return
	}

	org := tenant.Org
	org.Name = req.Name
	if err := h.orgRepo.UpdateName(org.ID, req.Name); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update organization", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(org)
}

// Reactivate is the explicit suspended→active transition, available to the
// owner after settling payment out of band.
func (h *OrgHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	if tenant.Org.Status == models.OrgStatusCancelled {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Cancelled organizations cannot be reactivated", nil)
		return
	}

	if err := h.subscriptions.Reactivate(tenant.OrgID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to reactivate organization", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
