package billing

import (
	"errors"
	"strings"
	"testing"

	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

func newCheckoutFixture(t *testing.T) (*CheckoutService, *MockProvider, *repositories.PlanRepository, *repositories.OrganizationRepository) {
	t.Helper()
	db := setupGlobalDB(t)
	planRepo := repositories.NewPlanRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	provider := NewMockProvider()
	svc := NewCheckoutService(provider, planRepo, orgRepo, "free")
	return svc, provider, planRepo, orgRepo
}

func TestCheckoutService_FreePlanRejected(t *testing.T) {
	svc, _, _, _ := newCheckoutFixture(t)

	if _, err := svc.CreateCheckoutSession("org_1", "free", 1, "https://app/ok", "https://app/no"); err == nil {
		t.Error("Expected error for free plan checkout, got nil")
	}
}

func TestCheckoutService_LazyPriceProvisioning(t *testing.T) {
	svc, provider, planRepo, orgRepo := newCheckoutFixture(t)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:       "pro",
		DisplayName:   "Pro",
		BillingModel:  models.BillingModelDynamic,
		BaseCostCents: 4900,
		SeatCostCents: 900,
		MaxSeats:      models.Unlimited,
		MaxMaterials:  500,
	})
	seedOrg(t, orgRepo, &models.Organization{
		ID:      "org_1",
		Slug:    "acme",
		Name:    "Acme",
		PlanKey: "free",
	})

	url, err := svc.CreateCheckoutSession("org_1", "pro", 4, "https://app/ok", "https://app/no")
	if err != nil {
		t.Fatalf("CreateCheckoutSession failed: %v", err)
	}
	if !strings.HasPrefix(url, "https://checkout.mock/") {
		t.Errorf("Unexpected session URL %s", url)
	}

	// First checkout provisions base and seat prices and a customer.
	if len(provider.Prices) != 2 {
		t.Fatalf("Expected 2 prices created, got %d", len(provider.Prices))
	}
	plan, _ := planRepo.GetByKey("pro")
	if plan.StripeBasePriceID == nil || plan.StripeSeatPriceID == nil {
		t.Fatal("Price references not persisted")
	}
	org, _ := orgRepo.GetByID("org_1")
	if org.StripeCustomerID == "" {
		t.Fatal("Customer reference not persisted")
	}

	// Second checkout reuses everything.
	if _, err := svc.CreateCheckoutSession("org_1", "pro", 2, "https://app/ok", "https://app/no"); err != nil {
		t.Fatalf("Second checkout failed: %v", err)
	}
	if len(provider.Prices) != 2 {
		t.Errorf("Expected no new prices on second checkout, got %d", len(provider.Prices))
	}
	if len(provider.Customers) != 1 {
		t.Errorf("Expected single customer, got %d", len(provider.Customers))
	}

	// The session carries the org identity and requested seats as metadata.
	req := provider.CheckoutRequests[0]
	if req.Metadata["organization_id"] != "org_1" || req.Metadata["plan_key"] != "pro" || req.Metadata["seat_count"] != "4" {
		t.Errorf("Bad session metadata: %v", req.Metadata)
	}
	if req.SeatQuantity != 4 {
		t.Errorf("Expected seat quantity 4, got %d", req.SeatQuantity)
	}
}

func TestCheckoutService_FixedPlanHasNoSeatLine(t *testing.T) {
	svc, provider, planRepo, orgRepo := newCheckoutFixture(t)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:       "starter",
		DisplayName:   "Starter",
		BillingModel:  models.BillingModelFixed,
		BaseCostCents: 1900,
		MaxSeats:      3,
		MaxMaterials:  30,
	})
	seedOrg(t, orgRepo, &models.Organization{
		ID:      "org_1",
		Slug:    "acme",
		Name:    "Acme",
		PlanKey: "free",
	})

	if _, err := svc.CreateCheckoutSession("org_1", "starter", 1, "https://app/ok", "https://app/no"); err != nil {
		t.Fatalf("CreateCheckoutSession failed: %v", err)
	}

	if len(provider.Prices) != 1 {
		t.Errorf("Fixed plan should create only the base price, got %d", len(provider.Prices))
	}
	req := provider.CheckoutRequests[0]
	if req.SeatPriceID != "" || req.SeatQuantity != 0 {
		t.Errorf("Fixed plan carried a seat line: %+v", req)
	}
}

func TestCheckoutService_InactivePlanRejected(t *testing.T) {
	svc, _, planRepo, orgRepo := newCheckoutFixture(t)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "legacy",
		DisplayName:  "Legacy",
		BillingModel: models.BillingModelFixed,
		Status:       models.PlanStatusInactive,
	})
	seedOrg(t, orgRepo, &models.Organization{
		ID:      "org_1",
		Slug:    "acme",
		Name:    "Acme",
		PlanKey: "free",
	})

	if _, err := svc.CreateCheckoutSession("org_1", "legacy", 1, "https://app/ok", "https://app/no"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for inactive plan, got %v", err)
	}
}

func TestCheckoutService_PortalRequiresCustomer(t *testing.T) {
	svc, _, _, orgRepo := newCheckoutFixture(t)
	seedOrg(t, orgRepo, &models.Organization{
		ID:      "org_1",
		Slug:    "acme",
		Name:    "Acme",
		PlanKey: "free",
	})

	if _, err := svc.CreatePortalSession("org_1", "https://app/billing"); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Errorf("Expected ErrConflict for org without customer, got %v", err)
	}

	if err := orgRepo.SetStripeCustomerID("org_1", "cus_existing"); err != nil {
		t.Fatalf("SetStripeCustomerID failed: %v", err)
	}
	url, err := svc.CreatePortalSession("org_1", "https://app/billing")
	if err != nil {
		t.Fatalf("CreatePortalSession failed: %v", err)
	}
	if url != "https://portal.mock/cus_existing" {
		t.Errorf("Unexpected portal URL %s", url)
	}
}
