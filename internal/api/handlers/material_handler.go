package handlers

import (
	"encoding/json"
	goerrors "errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	apiContext "rentr/internal/api/context"
	"rentr/internal/api/middleware"
	"rentr/internal/engine/billing"
	"rentr/internal/engine/rentals"
	"rentr/internal/pkg/errors"
)

type MaterialHandler struct {
	quota *billing.QuotaService
}

func NewMaterialHandler(quota *billing.QuotaService) *MaterialHandler {
	return &MaterialHandler{quota: quota}
}

// service builds a per-request rentals service bound to the tenant database
// resolved by the middleware chain.
func (h *MaterialHandler) service(r *http.Request) (*rentals.Service, *middleware.TenantContext) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	repo := rentals.NewRepository(tenant.DB)
	return rentals.NewService(repo, h.quota, tenant.OrgID), tenant
}

func (h *MaterialHandler) Create(w http.ResponseWriter, r *http.Request) {
	svc, _ := h.service(r)

	var req rentals.Material
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	claims := claimsFrom(r)
	if claims != nil {
		req.CreatedBy = claims.UserID
	}

	material, err := svc.CreateMaterial(&req)
	if err != nil {
		var quotaErr *errors.QuotaError
		if goerrors.As(err, &quotaErr) {
			errors.WriteError(w, http.StatusForbidden, quotaErr.Code(), quotaErr.Error(),
				map[string]interface{}{"resource": quotaErr.Resource, "limit": quotaErr.Limit})
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(material)
}

func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	svc, _ := h.service(r)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	materials, err := svc.ListMaterials(limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(materials)
}

func (h *MaterialHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, _ := h.service(r)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	material, err := svc.GetMaterial(params.ByName("material_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if material == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Material not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(material)
}

func (h *MaterialHandler) Update(w http.ResponseWriter, r *http.Request) {
	svc, _ := h.service(r)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req rentals.Material
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	material, err := svc.UpdateMaterial(params.ByName("material_id"), &req)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if material == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Material not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(material)
}

func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	svc, _ := h.service(r)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	if err := svc.DeleteMaterial(params.ByName("material_id")); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete material", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
