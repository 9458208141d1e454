package billing

import (
	"fmt"
	"regexp"
	"time"

	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

var planKeyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// CatalogService owns the durable plan definitions. Every mutation
// invalidates the limits cache before returning.
type CatalogService struct {
	planRepo *repositories.PlanRepository
	cache    *LimitsCache
}

func NewCatalogService(planRepo *repositories.PlanRepository, cache *LimitsCache) *CatalogService {
	return &CatalogService{planRepo: planRepo, cache: cache}
}

func (s *CatalogService) Create(plan *models.PlanDefinition) error {
	if !planKeyPattern.MatchString(plan.PlanKey) {
		return fmt.Errorf("invalid plan key %q: must be lowercase alphanumeric or underscore", plan.PlanKey)
	}
	if plan.BillingModel != models.BillingModelFixed && plan.BillingModel != models.BillingModelDynamic {
		return fmt.Errorf("invalid billing model %q", plan.BillingModel)
	}
	if plan.BaseCostCents < 0 || plan.SeatCostCents < 0 {
		return fmt.Errorf("plan costs must not be negative")
	}
	if plan.MaxSeats < models.Unlimited || plan.MaxMaterials < models.Unlimited {
		return fmt.Errorf("plan limits must be -1 (unlimited) or non-negative")
	}

	existing, err := s.planRepo.GetByKey(plan.PlanKey)
	if err != nil {
		return err
	}
	if existing != nil {
		return pkgerrors.ErrConflict
	}

	now := time.Now().Unix()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.Status == "" {
		plan.Status = models.PlanStatusActive
	}

	if err := s.planRepo.Create(plan); err != nil {
		return err
	}

	s.cache.Invalidate()
	return nil
}

// PlanUpdate carries the mutable plan fields. The plan key itself is
// immutable after creation.
type PlanUpdate struct {
	DisplayName   *string
	Description   *string
	BaseCostCents *int64
	SeatCostCents *int64
	MaxSeats      *int
	MaxMaterials  *int
	Features      []string
	SortOrder     *int
	Status        *string
}

func (s *CatalogService) Update(planKey string, update *PlanUpdate) (*models.PlanDefinition, error) {
	plan, err := s.planRepo.GetByKey(planKey)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, pkgerrors.ErrNotFound
	}

	if update.DisplayName != nil {
		plan.DisplayName = *update.DisplayName
	}
	if update.Description != nil {
		plan.Description = *update.Description
	}
	if update.BaseCostCents != nil {
		plan.BaseCostCents = *update.BaseCostCents
	}
	if update.SeatCostCents != nil {
		plan.SeatCostCents = *update.SeatCostCents
	}
	if update.MaxSeats != nil {
		plan.MaxSeats = *update.MaxSeats
	}
	if update.MaxMaterials != nil {
		plan.MaxMaterials = *update.MaxMaterials
	}
	if update.Features != nil {
		plan.Features = update.Features
	}
	if update.SortOrder != nil {
		plan.SortOrder = *update.SortOrder
	}
	if update.Status != nil {
		plan.Status = *update.Status
	}

	if err := s.planRepo.Update(plan); err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	return plan, nil
}

// Deactivate flips the plan to inactive. Idempotent on an already-inactive
// plan; NotFound only if the key never existed.
func (s *CatalogService) Deactivate(planKey string) error {
	plan, err := s.planRepo.GetByKey(planKey)
	if err != nil {
		return err
	}
	if plan == nil {
		return pkgerrors.ErrNotFound
	}
	if plan.Status == models.PlanStatusInactive {
		return nil
	}

	if err := s.planRepo.UpdateStatus(planKey, models.PlanStatusInactive); err != nil {
		return err
	}

	s.cache.Invalidate()
	return nil
}

func (s *CatalogService) FindActive() ([]*models.PlanDefinition, error) {
	return s.planRepo.FindActive()
}

func (s *CatalogService) GetByKey(planKey string) (*models.PlanDefinition, error) {
	plan, err := s.planRepo.GetByKey(planKey)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return plan, nil
}
