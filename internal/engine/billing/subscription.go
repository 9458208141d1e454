package billing

import (
	"time"

	"github.com/rs/zerolog/log"
	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

// SubscriptionService exposes the organization status gate consumed before
// every mutating action, plus explicit cancellation and reactivation.
type SubscriptionService struct {
	orgRepo *repositories.OrganizationRepository
}

func NewSubscriptionService(orgRepo *repositories.OrganizationRepository) *SubscriptionService {
	return &SubscriptionService{orgRepo: orgRepo}
}

// SubscriptionState is the read model returned by IsActive.
type SubscriptionState struct {
	Status       string
	Organization *models.Organization
}

// IsActive reports the organization's effective status. An active
// organization whose billing period has already ended is opportunistically
// moved to suspended as a side effect of the read; this lazy sweep replaces
// a background scheduler. The lazy path only ever moves active→suspended,
// so it cannot overwrite a more specific state written by the reconciler.
func (s *SubscriptionService) IsActive(orgID string) (*SubscriptionState, error) {
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, pkgerrors.ErrNotFound
	}

	if org.Status == models.OrgStatusActive && org.CurrentPeriodEnd > 0 && org.CurrentPeriodEnd < time.Now().Unix() {
		if err := s.orgRepo.UpdateStatus(org.ID, models.OrgStatusSuspended); err != nil {
			return nil, err
		}
		log.Info().Str("org_id", org.ID).Int64("period_end", org.CurrentPeriodEnd).
			Msg("billing period expired, organization suspended")
		org.Status = models.OrgStatusSuspended
	}

	return &SubscriptionState{Status: org.Status, Organization: org}, nil
}

// Cancel takes effect immediately. Cancelled is terminal.
func (s *SubscriptionService) Cancel(orgID string) error {
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return err
	}
	if org == nil {
		return pkgerrors.ErrNotFound
	}
	return s.orgRepo.UpdateStatus(orgID, models.OrgStatusCancelled)
}

// Reactivate moves a suspended organization back to active.
func (s *SubscriptionService) Reactivate(orgID string) error {
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return err
	}
	if org == nil {
		return pkgerrors.ErrNotFound
	}
	if org.Status != models.OrgStatusSuspended {
		return nil
	}
	return s.orgRepo.UpdateStatus(orgID, models.OrgStatusActive)
}
