package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rentr/internal/pkg/errors"
	"rentr/internal/pkg/validator"
	"rentr/internal/platform/auth"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

type AuthHandler struct {
	orgRepo     *repositories.OrganizationRepository
	userRepo    *repositories.UserRepository
	tokenSvc    *auth.TokenService
	freePlanKey string
	tenantBase  string
}

func NewAuthHandler(orgRepo *repositories.OrganizationRepository, userRepo *repositories.UserRepository, tokenSvc *auth.TokenService, freePlanKey, tenantBase string) *AuthHandler {
	return &AuthHandler{
		orgRepo:     orgRepo,
		userRepo:    userRepo,
		tokenSvc:    tokenSvc,
		freePlanKey: freePlanKey,
		tenantBase:  tenantBase,
	}
}

type RegisterRequest struct {
	OrgName  string `json:"org_name"`
	Slug     string `json:"slug"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type RegisterResponse struct {
	Organization *models.Organization `json:"organization"`
	User         *models.User         `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register creates a fresh organization on the free plan with its owner
// seat. A cancelled organization is never revived; its owner registers anew.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.OrgName == "" || req.Slug == "" || req.Email == "" || req.Password == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "org_name, slug, email and password are required", nil)
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	existing, err := h.orgRepo.GetBySlug(req.Slug)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Slug already in use", nil)
		return
	}

	now := time.Now().Unix()
	org := &models.Organization{
		ID:         "org_" + uuid.NewString(),
		Slug:       req.Slug,
		Name:       req.OrgName,
		DBFilePath: h.tenantBase + "/" + req.Slug + ".db",
		Status:     models.OrgStatusActive,
		PlanKey:    h.freePlanKey,
		SeatCount:  1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	user := &models.User{
		ID:             "usr_" + uuid.NewString(),
		OrganizationID: org.ID,
		Email:          req.Email,
		PasswordHash:   string(hashedPassword),
		FullName:       req.FullName,
		Role:           "owner",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := h.orgRepo.BeginTx()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if err := h.orgRepo.CreateTx(tx, org); err != nil {
		tx.Rollback()
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create organization", nil)
		return
	}
	if err := h.userRepo.CreateTx(tx, user); err != nil {
		tx.Rollback()
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create user", nil)
		return
	}
	if err := tx.Commit(); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, org.ID, user.Role, user.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}
	refreshToken, _ := h.tokenSvc.GenerateRefreshToken(user.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(RegisterResponse{
		Organization: org,
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	user, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.DeletedAt != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, user.OrganizationID, user.Role, user.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}
	refreshToken, _ := h.tokenSvc.GenerateRefreshToken(user.ID)

	h.userRepo.UpdateLastLogin(user.ID, time.Now().Unix())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}
