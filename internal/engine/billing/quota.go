package billing

import (
	"fmt"

	"github.com/rs/zerolog/log"
	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

// Quota resource names, carried on QuotaError so callers can render an
// upgrade prompt for the right resource.
const (
	ResourceSeats     = "seats"
	ResourceMaterials = "materials"
)

// QuotaService enforces plan limits on the seat and catalog-item counters.
// Increments re-validate against the limit and then apply an atomic
// counter update at the storage layer; two concurrent increments can both
// pass their pre-check, so the limit is soft under races. Callers that
// increment as part of a larger operation must decrement on any later
// failure path.
type QuotaService struct {
	orgRepo *repositories.OrganizationRepository
	cache   *LimitsCache
}

func NewQuotaService(orgRepo *repositories.OrganizationRepository, cache *LimitsCache) *QuotaService {
	return &QuotaService{orgRepo: orgRepo, cache: cache}
}

func (s *QuotaService) loadOrg(orgID string) (*models.Organization, PlanLimits, error) {
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return nil, PlanLimits{}, err
	}
	if org == nil {
		return nil, PlanLimits{}, pkgerrors.ErrNotFound
	}
	limits, err := s.cache.GetLimits(org.PlanKey)
	if err != nil {
		return nil, PlanLimits{}, fmt.Errorf("limits for plan %q: %w", org.PlanKey, err)
	}
	return org, limits, nil
}

func (s *QuotaService) CanAddSeat(orgID string) (bool, error) {
	org, limits, err := s.loadOrg(orgID)
	if err != nil {
		return false, err
	}
	return Allows(limits.MaxSeats, org.SeatCount), nil
}

func (s *QuotaService) CanAddMaterial(orgID string) (bool, error) {
	org, limits, err := s.loadOrg(orgID)
	if err != nil {
		return false, err
	}
	return Allows(limits.MaxMaterials, org.MaterialCount), nil
}

// IncrementSeats re-checks the limit and then bumps the counter. The
// re-check never trusts a prior CanAddSeat result.
func (s *QuotaService) IncrementSeats(orgID string, delta int) error {
	if delta <= 0 {
		return fmt.Errorf("increment delta must be positive")
	}
	org, limits, err := s.loadOrg(orgID)
	if err != nil {
		return err
	}
	if limits.MaxSeats != models.Unlimited && org.SeatCount+delta > limits.MaxSeats {
		return &pkgerrors.QuotaError{Resource: ResourceSeats, Limit: limits.MaxSeats}
	}
	return s.orgRepo.AddSeats(orgID, delta)
}

func (s *QuotaService) IncrementMaterials(orgID string, delta int) error {
	if delta <= 0 {
		return fmt.Errorf("increment delta must be positive")
	}
	org, limits, err := s.loadOrg(orgID)
	if err != nil {
		return err
	}
	if limits.MaxMaterials != models.Unlimited && org.MaterialCount+delta > limits.MaxMaterials {
		return &pkgerrors.QuotaError{Resource: ResourceMaterials, Limit: limits.MaxMaterials}
	}
	return s.orgRepo.AddMaterials(orgID, delta)
}

// DecrementSeats lowers the counter, clamped at zero by the storage layer.
// An attempted underflow is logged as an anomaly rather than failed: the
// caller is compensating and must not be blocked.
func (s *QuotaService) DecrementSeats(orgID string, delta int) error {
	if delta <= 0 {
		return fmt.Errorf("decrement delta must be positive")
	}
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return err
	}
	if org == nil {
		return pkgerrors.ErrNotFound
	}
	if org.SeatCount-delta < 0 {
		log.Warn().Str("org_id", orgID).Int("seat_count", org.SeatCount).Int("delta", delta).
			Msg("seat decrement past zero, clamping")
	}
	return s.orgRepo.AddSeats(orgID, -delta)
}

func (s *QuotaService) DecrementMaterials(orgID string, delta int) error {
	if delta <= 0 {
		return fmt.Errorf("decrement delta must be positive")
	}
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return err
	}
	if org == nil {
		return pkgerrors.ErrNotFound
	}
	if org.MaterialCount-delta < 0 {
		log.Warn().Str("org_id", orgID).Int("material_count", org.MaterialCount).Int("delta", delta).
			Msg("material decrement past zero, clamping")
	}
	return s.orgRepo.AddMaterials(orgID, -delta)
}
