package handlers

import (
	"encoding/json"
	goerrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"

	apiContext "rentr/internal/api/context"
	"rentr/internal/api/middleware"
	"rentr/internal/engine/billing"
	"rentr/internal/pkg/errors"
	"rentr/internal/pkg/validator"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

type InviteHandler struct {
	inviteRepo *repositories.InviteRepository
	userRepo   *repositories.UserRepository
	quota      *billing.QuotaService
}

func NewInviteHandler(inviteRepo *repositories.InviteRepository, userRepo *repositories.UserRepository, quota *billing.QuotaService) *InviteHandler {
	return &InviteHandler{inviteRepo: inviteRepo, userRepo: userRepo, quota: quota}
}

type CreateInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Create checks seat headroom before issuing the invite so the inviter gets
// an upgrade prompt up front. The seat itself is only consumed on
// acceptance, where the limit is re-checked.
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := claimsFrom(r)

	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}
	// Email is optional on the invite; the code alone is enough to join.
	if req.Email != "" {
		if err := validator.ValidateEmail(req.Email); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
			return
		}
	}

	ok, err := h.quota.CanAddSeat(tenant.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Quota check failed", nil)
		return
	}
	if !ok {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodePlanLimitReached, "Seat limit reached for current plan",
			map[string]interface{}{"resource": billing.ResourceSeats})
		return
	}

	now := time.Now().Unix()
	invite := &models.Invite{
		ID:             "inv_" + uuid.NewString(),
		OrganizationID: tenant.OrgID,
		Code:           strings.ReplaceAll(uuid.NewString(), "-", ""),
		Email:          req.Email,
		Role:           req.Role,
		InvitedBy:      claims.UserID,
		Status:         "pending",
		ExpiresAt:      now + 7*24*3600,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.inviteRepo.Create(invite); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create invite", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(invite)
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	invites, err := h.inviteRepo.ListByOrganization(tenant.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invites)
}

type AcceptInviteRequest struct {
	Code     string `json:"code"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Accept consumes a seat: increment first, create the member, and give the
// seat back if the member insert fails. The increment re-checks the plan
// limit regardless of what Create saw earlier.
func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Code == "" || req.Email == "" || req.Password == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "code, email and password are required", nil)
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	invite, err := h.inviteRepo.GetByCode(req.Code)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if invite == nil || invite.Status != "pending" || invite.ExpiresAt < time.Now().Unix() {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Invite not found or expired", nil)
		return
	}

	if err := h.quota.IncrementSeats(invite.OrganizationID, 1); err != nil {
		var quotaErr *errors.QuotaError
		if goerrors.As(err, &quotaErr) {
			errors.WriteError(w, http.StatusForbidden, quotaErr.Code(), quotaErr.Error(),
				map[string]interface{}{"resource": quotaErr.Resource, "limit": quotaErr.Limit})
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Quota check failed", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.quota.DecrementSeats(invite.OrganizationID, 1)
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	now := time.Now().Unix()
	user := &models.User{
		ID:             "usr_" + uuid.NewString(),
		OrganizationID: invite.OrganizationID,
		Email:          req.Email,
		PasswordHash:   string(hashedPassword),
		FullName:       req.FullName,
		Role:           invite.Role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.userRepo.Create(user); err != nil {
		// Compensate the reserved seat.
		h.quota.DecrementSeats(invite.OrganizationID, 1)
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create user", nil)
		return
	}

	h.inviteRepo.UpdateStatus(invite.ID, "accepted")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	inviteID := params.ByName("invite_id")

	if err := h.inviteRepo.UpdateStatus(inviteID, "revoked"); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to revoke invite", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
