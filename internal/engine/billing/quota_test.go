package billing

import (
	"errors"
	"testing"
	"time"

	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

func newQuotaFixture(t *testing.T) (*QuotaService, *repositories.OrganizationRepository, *repositories.PlanRepository) {
	t.Helper()
	db := setupGlobalDB(t)
	orgRepo := repositories.NewOrganizationRepository(db)
	planRepo := repositories.NewPlanRepository(db)
	cache := NewLimitsCache(planRepo, time.Minute)
	return NewQuotaService(orgRepo, cache), orgRepo, planRepo
}

func TestQuotaService_MaterialLimit(t *testing.T) {
	quota, orgRepo, planRepo := newQuotaFixture(t)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "starter",
		DisplayName:  "Starter",
		BillingModel: models.BillingModelFixed,
		MaxSeats:     2,
		MaxMaterials: 3,
	})
	seedOrg(t, orgRepo, &models.Organization{
		ID:            "org_1",
		Slug:          "acme",
		Name:          "Acme",
		PlanKey:       "starter",
		MaterialCount: 2,
	})

	// One slot left.
	ok, err := quota.CanAddMaterial("org_1")
	if err != nil || !ok {
		t.Fatalf("Expected headroom, got ok=%v err=%v", ok, err)
	}
	if err := quota.IncrementMaterials("org_1", 1); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	// At the ceiling now.
	err = quota.IncrementMaterials("org_1", 1)
	var quotaErr *pkgerrors.QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected QuotaError, got %v", err)
	}
	if quotaErr.Resource != ResourceMaterials || quotaErr.Limit != 3 {
		t.Errorf("QuotaError = {%s %d}, want {materials 3}", quotaErr.Resource, quotaErr.Limit)
	}
	if quotaErr.Code() != pkgerrors.ErrCodePlanLimitReached {
		t.Errorf("Expected code %s, got %s", pkgerrors.ErrCodePlanLimitReached, quotaErr.Code())
	}

	org, _ := orgRepo.GetByID("org_1")
	if org.MaterialCount != 3 {
		t.Errorf("Counter moved past limit: %d", org.MaterialCount)
	}
}

func TestQuotaService_SeatLimit(t *testing.T) {
	quota, orgRepo, planRepo := newQuotaFixture(t)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "starter",
		DisplayName:  "Starter",
		BillingModel: models.BillingModelFixed,
		MaxSeats:     2,
		MaxMaterials: 10,
	})
	seedOrg(t, orgRepo, &models.Organization{
		ID:        "org_1",
		Slug:      "acme",
		Name:      "Acme",
		PlanKey:   "starter",
		SeatCount: 2,
	})

	ok, err := quota.CanAddSeat("org_1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ok {
		t.Error("Expected no seat headroom at limit")
	}

	var quotaErr *pkgerrors.QuotaError
	if err := quota.IncrementSeats("org_1", 1); !errors.As(err, &quotaErr) {
		t.Errorf("Expected QuotaError, got %v", err)
	}
}

func TestQuotaService_Unlimited(t *testing.T) {
	quota, orgRepo, planRepo := newQuotaFixture(t)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "enterprise",
		DisplayName:  "Enterprise",
		BillingModel: models.BillingModelDynamic,
		MaxSeats:     models.Unlimited,
		MaxMaterials: models.Unlimited,
	})
	seedOrg(t, orgRepo, &models.Organization{
		ID:        "org_1",
		Slug:      "acme",
		Name:      "Acme",
		PlanKey:   "enterprise",
		SeatCount: 9999,
	})

	if err := quota.IncrementSeats("org_1", 5); err != nil {
		t.Errorf("Unlimited plan rejected increment: %v", err)
	}
	org, _ := orgRepo.GetByID("org_1")
	if org.SeatCount != 10004 {
		t.Errorf("Expected 10004 seats, got %d", org.SeatCount)
	}
}

func TestQuotaService_DecrementClampsAtZero(t *testing.T) {
	quota, orgRepo, planRepo := newQuotaFixture(t)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "starter",
		DisplayName:  "Starter",
		BillingModel: models.BillingModelFixed,
		MaxSeats:     5,
		MaxMaterials: 5,
	})
	seedOrg(t, orgRepo, &models.Organization{
		ID:            "org_1",
		Slug:          "acme",
		Name:          "Acme",
		PlanKey:       "starter",
		MaterialCount: 1,
	})

	if err := quota.DecrementMaterials("org_1", 1); err != nil {
		t.Fatalf("Decrement failed: %v", err)
	}
	// A second decrement is an anomaly but must not fail or go negative.
	if err := quota.DecrementMaterials("org_1", 1); err != nil {
		t.Fatalf("Underflow decrement should not error: %v", err)
	}

	org, _ := orgRepo.GetByID("org_1")
	if org.MaterialCount != 0 {
		t.Errorf("Expected counter clamped at 0, got %d", org.MaterialCount)
	}
}

func TestQuotaService_UnknownOrg(t *testing.T) {
	quota, _, _ := newQuotaFixture(t)
	if _, err := quota.CanAddSeat("org_missing"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
