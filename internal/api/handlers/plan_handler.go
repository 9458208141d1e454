package handlers

import (
	"encoding/json"
	goerrors "errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "rentr/internal/api/context"
	"rentr/internal/engine/billing"
	"rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
)

// PlanHandler is the platform-operator surface over the plan catalog.
type PlanHandler struct {
	catalog *billing.CatalogService
}

func NewPlanHandler(catalog *billing.CatalogService) *PlanHandler {
	return &PlanHandler{catalog: catalog}
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var plan models.PlanDefinition
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := h.catalog.Create(&plan); err != nil {
		if goerrors.Is(err, errors.ErrConflict) {
			errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Plan key already exists", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(plan)
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	planKey := params.ByName("plan_key")

	var update billing.PlanUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	plan, err := h.catalog.Update(planKey, &update)
	if err != nil {
		if goerrors.Is(err, errors.ErrNotFound) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Plan not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update plan", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plan)
}

func (h *PlanHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	planKey := params.ByName("plan_key")

	if err := h.catalog.Deactivate(planKey); err != nil {
		if goerrors.Is(err, errors.ErrNotFound) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Plan not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to deactivate plan", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
