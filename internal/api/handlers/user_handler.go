package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "rentr/internal/api/context"
	"rentr/internal/api/middleware"
	"rentr/internal/engine/billing"
	"rentr/internal/pkg/errors"
	"rentr/internal/platform/repositories"
)

type UserHandler struct {
	userRepo *repositories.UserRepository
	quota    *billing.QuotaService
}

func NewUserHandler(userRepo *repositories.UserRepository, quota *billing.QuotaService) *UserHandler {
	return &UserHandler{userRepo: userRepo, quota: quota}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	users, err := h.userRepo.ListByOrganization(tenant.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	for _, u := range users {
		u.PasswordHash = ""
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// Remove soft-deletes the member and releases their seat. Removing yourself
// is rejected so an org cannot end up with zero admins by accident.
func (h *UserHandler) Remove(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := claimsFrom(r)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	userID := params.ByName("user_id")

	if userID == claims.UserID {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Cannot remove your own account", nil)
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.OrganizationID != tenant.OrgID {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	if err := h.userRepo.SoftDelete(userID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to remove user", nil)
		return
	}

	if err := h.quota.DecrementSeats(tenant.OrgID, 1); err != nil {
		// The member is already gone; the seat counter is now one too high
		// until an operator corrects it.
		log.Error().Err(err).Str("org_id", tenant.OrgID).Str("user_id", userID).
			Msg("seat release after member removal failed")
	}

	w.WriteHeader(http.StatusNoContent)
}
