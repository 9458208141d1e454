package middleware

import (
	"context"
	"database/sql"
	"net/http"

	apiContext "rentr/internal/api/context"
	"rentr/internal/pkg/errors"
	"rentr/internal/platform/auth"
	"rentr/internal/platform/database"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

// TenantContext carries the resolved organization and its tenant database
// connection for the duration of a request.
type TenantContext struct {
	OrgID   string
	OrgSlug string
	Org     *models.Organization
	DB      *sql.DB
}

type TenantMiddleware struct {
	orgRepo *repositories.OrganizationRepository
	pool    *database.TenantDBPool
}

func NewTenantMiddleware(orgRepo *repositories.OrganizationRepository, pool *database.TenantDBPool) *TenantMiddleware {
	return &TenantMiddleware{orgRepo: orgRepo, pool: pool}
}

func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok || claims.OrganizationID == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing organization context", nil)
			return
		}

		org, err := m.orgRepo.GetByID(claims.OrganizationID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		if org == nil || org.DeletedAt != nil {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
			return
		}

		db, err := m.pool.Get(org.ID, org.DBFilePath)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Tenant database unavailable", nil)
			return
		}

		tenant := &TenantContext{
			OrgID:   org.ID,
			OrgSlug: org.Slug,
			Org:     org,
			DB:      db,
		}
		ctx := context.WithValue(r.Context(), apiContext.Tenant, tenant)
		next(w, r.WithContext(ctx))
	}
}
