package billing

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

// CheckoutService issues provider-hosted checkout and portal session URLs,
// lazily provisioning Stripe price references and the organization's
// customer reference on first need.
type CheckoutService struct {
	provider    Provider
	planRepo    *repositories.PlanRepository
	orgRepo     *repositories.OrganizationRepository
	freePlanKey string
}

func NewCheckoutService(provider Provider, planRepo *repositories.PlanRepository, orgRepo *repositories.OrganizationRepository, freePlanKey string) *CheckoutService {
	return &CheckoutService{
		provider:    provider,
		planRepo:    planRepo,
		orgRepo:     orgRepo,
		freePlanKey: freePlanKey,
	}
}

// CreateCheckoutSession returns the hosted checkout URL for the given plan
// and seat count. The organization id, plan key and seat count travel as
// opaque metadata and come back verbatim on checkout.session.completed.
func (s *CheckoutService) CreateCheckoutSession(orgID, planKey string, seatCount int, successURL, cancelURL string) (string, error) {
	if planKey == s.freePlanKey {
		return "", fmt.Errorf("plan %q does not require checkout", planKey)
	}
	if seatCount < 1 {
		return "", fmt.Errorf("seat count must be at least 1")
	}

	plan, err := s.planRepo.GetByKey(planKey)
	if err != nil {
		return "", err
	}
	if plan == nil || plan.Status != models.PlanStatusActive {
		return "", pkgerrors.ErrNotFound
	}

	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return "", err
	}
	if org == nil {
		return "", pkgerrors.ErrNotFound
	}

	basePriceID, seatPriceID, err := s.getOrCreatePriceRefs(plan)
	if err != nil {
		return "", err
	}

	customerID, err := s.getOrCreateCustomer(org)
	if err != nil {
		return "", err
	}

	req := &CheckoutSessionRequest{
		CustomerID:  customerID,
		BasePriceID: basePriceID,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
		Metadata: map[string]string{
			"organization_id": org.ID,
			"plan_key":        plan.PlanKey,
			"seat_count":      strconv.Itoa(seatCount),
		},
	}
	if plan.BillingModel == models.BillingModelDynamic {
		req.SeatPriceID = seatPriceID
		req.SeatQuantity = int64(seatCount)
	}

	return s.provider.CreateCheckoutSession(req)
}

// CreatePortalSession returns the hosted management-portal URL. Fails if the
// organization never subscribed.
func (s *CheckoutService) CreatePortalSession(orgID, returnURL string) (string, error) {
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return "", err
	}
	if org == nil {
		return "", pkgerrors.ErrNotFound
	}
	if org.StripeCustomerID == "" {
		return "", fmt.Errorf("organization has no billing customer: %w", pkgerrors.ErrConflict)
	}
	return s.provider.CreatePortalSession(org.StripeCustomerID, returnURL)
}

// getOrCreatePriceRefs resolves the plan's Stripe price references, creating
// whichever of base/seat is missing and persisting the new id. The
// check-then-create is not atomic against concurrent callers; the repository
// guard keeps the first persisted id, and cmd/seedprices exists to provision
// out-of-band before production traffic.
func (s *CheckoutService) getOrCreatePriceRefs(plan *models.PlanDefinition) (string, string, error) {
	basePriceID := ""
	if plan.StripeBasePriceID != nil {
		basePriceID = *plan.StripeBasePriceID
	}
	if basePriceID == "" {
		id, err := s.provider.CreateRecurringPrice(plan.DisplayName, plan.BaseCostCents, map[string]string{
			"plan_key":   plan.PlanKey,
			"price_kind": "base",
		})
		if err != nil {
			return "", "", err
		}
		if err := s.planRepo.SetBasePriceID(plan.PlanKey, id); err != nil {
			// Lost a provisioning race; keep the persisted reference.
			log.Warn().Str("plan_key", plan.PlanKey).Str("price_id", id).
				Msg("base price already provisioned, discarding duplicate")
			fresh, ferr := s.planRepo.GetByKey(plan.PlanKey)
			if ferr != nil || fresh == nil || fresh.StripeBasePriceID == nil {
				return "", "", err
			}
			id = *fresh.StripeBasePriceID
		}
		basePriceID = id
	}

	seatPriceID := ""
	if plan.BillingModel == models.BillingModelDynamic {
		if plan.StripeSeatPriceID != nil {
			seatPriceID = *plan.StripeSeatPriceID
		}
		if seatPriceID == "" {
			id, err := s.provider.CreateRecurringPrice(plan.DisplayName+" (per seat)", plan.SeatCostCents, map[string]string{
				"plan_key":   plan.PlanKey,
				"price_kind": "seat",
			})
			if err != nil {
				return "", "", err
			}
			if err := s.planRepo.SetSeatPriceID(plan.PlanKey, id); err != nil {
				log.Warn().Str("plan_key", plan.PlanKey).Str("price_id", id).
					Msg("seat price already provisioned, discarding duplicate")
				fresh, ferr := s.planRepo.GetByKey(plan.PlanKey)
				if ferr != nil || fresh == nil || fresh.StripeSeatPriceID == nil {
					return "", "", err
				}
				id = *fresh.StripeSeatPriceID
			}
			seatPriceID = id
		}
	}

	return basePriceID, seatPriceID, nil
}

func (s *CheckoutService) getOrCreateCustomer(org *models.Organization) (string, error) {
	if org.StripeCustomerID != "" {
		return org.StripeCustomerID, nil
	}
	customerID, err := s.provider.CreateCustomer(org.ID, org.Name, "")
	if err != nil {
		return "", err
	}
	if err := s.orgRepo.SetStripeCustomerID(org.ID, customerID); err != nil {
		return "", err
	}
	return customerID, nil
}
