package billing

import (
	"errors"
	"testing"
	"time"

	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

func newCatalog(t *testing.T) (*CatalogService, *repositories.PlanRepository) {
	t.Helper()
	db := setupGlobalDB(t)
	planRepo := repositories.NewPlanRepository(db)
	cache := NewLimitsCache(planRepo, time.Minute)
	return NewCatalogService(planRepo, cache), planRepo
}

func TestCatalogService_Create(t *testing.T) {
	catalog, _ := newCatalog(t)

	plan := &models.PlanDefinition{
		PlanKey:       "pro",
		DisplayName:   "Pro",
		BillingModel:  models.BillingModelDynamic,
		BaseCostCents: 4900,
		SeatCostCents: 900,
		MaxSeats:      models.Unlimited,
		MaxMaterials:  500,
	}
	if err := catalog.Create(plan); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if plan.Status != models.PlanStatusActive {
		t.Errorf("Expected status to default to active, got %s", plan.Status)
	}

	// Same key again is a conflict, not an upsert.
	dup := &models.PlanDefinition{
		PlanKey:      "pro",
		DisplayName:  "Pro Again",
		BillingModel: models.BillingModelFixed,
	}
	if err := catalog.Create(dup); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate key, got %v", err)
	}
}

func TestCatalogService_CreateValidation(t *testing.T) {
	catalog, _ := newCatalog(t)

	cases := []struct {
		name string
		plan models.PlanDefinition
	}{
		{"bad key", models.PlanDefinition{PlanKey: "Pro Plan!", BillingModel: models.BillingModelFixed}},
		{"bad billing model", models.PlanDefinition{PlanKey: "pro", BillingModel: "metered"}},
		{"negative cost", models.PlanDefinition{PlanKey: "pro", BillingModel: models.BillingModelFixed, BaseCostCents: -1}},
		{"bad limit", models.PlanDefinition{PlanKey: "pro", BillingModel: models.BillingModelFixed, MaxSeats: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := catalog.Create(&tc.plan); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestCatalogService_Update(t *testing.T) {
	catalog, planRepo := newCatalog(t)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "pro",
		DisplayName:  "Pro",
		BillingModel: models.BillingModelFixed,
		MaxSeats:     10,
		MaxMaterials: 100,
	})

	newSeats := 20
	name := "Pro Max"
	plan, err := catalog.Update("pro", &PlanUpdate{DisplayName: &name, MaxSeats: &newSeats})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if plan.DisplayName != "Pro Max" || plan.MaxSeats != 20 {
		t.Errorf("Update not applied: %s / %d", plan.DisplayName, plan.MaxSeats)
	}
	if plan.MaxMaterials != 100 {
		t.Errorf("Untouched field changed: %d", plan.MaxMaterials)
	}

	if _, err := catalog.Update("missing", &PlanUpdate{DisplayName: &name}); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCatalogService_DeactivateIdempotent(t *testing.T) {
	catalog, planRepo := newCatalog(t)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "legacy",
		DisplayName:  "Legacy",
		BillingModel: models.BillingModelFixed,
	})

	if err := catalog.Deactivate("legacy"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	// Second call is a no-op, not an error.
	if err := catalog.Deactivate("legacy"); err != nil {
		t.Errorf("Repeated deactivate should succeed, got %v", err)
	}
	if err := catalog.Deactivate("never_existed"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	plan, err := planRepo.GetByKey("legacy")
	if err != nil || plan == nil {
		t.Fatalf("Deactivated plan must still exist: %v", err)
	}
	if plan.Status != models.PlanStatusInactive {
		t.Errorf("Expected inactive, got %s", plan.Status)
	}

	// Deactivated plans drop out of the active listing.
	active, err := catalog.FindActive()
	if err != nil {
		t.Fatalf("FindActive failed: %v", err)
	}
	for _, p := range active {
		if p.PlanKey == "legacy" {
			t.Error("Deactivated plan listed as active")
		}
	}
}
