package billing

import (
	"errors"
	"testing"
	"time"

	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

func TestLimitsCache_GetLimits(t *testing.T) {
	db := setupGlobalDB(t)
	planRepo := repositories.NewPlanRepository(db)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "starter",
		DisplayName:  "Starter",
		BillingModel: models.BillingModelFixed,
		MaxSeats:     5,
		MaxMaterials: 50,
	})

	cache := NewLimitsCache(planRepo, time.Minute)

	limits, err := cache.GetLimits("starter")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if limits.MaxSeats != 5 || limits.MaxMaterials != 50 {
		t.Errorf("Expected limits 5/50, got %d/%d", limits.MaxSeats, limits.MaxMaterials)
	}

	_, err = cache.GetLimits("no_such_plan")
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown plan, got %v", err)
	}
}

func TestLimitsCache_InvalidateAfterMutation(t *testing.T) {
	db := setupGlobalDB(t)
	planRepo := repositories.NewPlanRepository(db)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "starter",
		DisplayName:  "Starter",
		BillingModel: models.BillingModelFixed,
		MaxSeats:     5,
		MaxMaterials: 50,
	})

	cache := NewLimitsCache(planRepo, time.Hour)
	catalog := NewCatalogService(planRepo, cache)

	// Warm the cache, then deactivate through the catalog.
	if _, err := cache.GetLimits("starter"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := catalog.Deactivate("starter"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	// The mutation must be visible immediately; an organization on the
	// deactivated plan no longer resolves limits.
	_, err := cache.GetLimits("starter")
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after deactivation, got %v", err)
	}
}

func TestLimitsCache_StaleRebuild(t *testing.T) {
	db := setupGlobalDB(t)
	planRepo := repositories.NewPlanRepository(db)
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "starter",
		DisplayName:  "Starter",
		BillingModel: models.BillingModelFixed,
		MaxSeats:     5,
		MaxMaterials: 50,
	})

	cache := NewLimitsCache(planRepo, time.Nanosecond)

	if _, err := cache.GetLimits("starter"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Write directly to storage, without an Invalidate call. Because the
	// freshness window has passed, the next read must rebuild and see it.
	seedPlan(t, planRepo, &models.PlanDefinition{
		PlanKey:      "pro",
		DisplayName:  "Pro",
		BillingModel: models.BillingModelDynamic,
		MaxSeats:     models.Unlimited,
		MaxMaterials: 500,
	})
	time.Sleep(time.Millisecond)

	limits, err := cache.GetLimits("pro")
	if err != nil {
		t.Fatalf("Expected stale cache to rebuild, got %v", err)
	}
	if limits.MaxSeats != models.Unlimited {
		t.Errorf("Expected unlimited seats, got %d", limits.MaxSeats)
	}
}

func TestAllows(t *testing.T) {
	cases := []struct {
		name    string
		max     int
		current int
		want    bool
	}{
		{"under limit", 5, 3, true},
		{"at limit", 5, 5, false},
		{"last slot", 5, 4, true},
		{"unlimited", models.Unlimited, 100000, true},
		{"zero ceiling", 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Allows(tc.max, tc.current); got != tc.want {
				t.Errorf("Allows(%d, %d) = %v, want %v", tc.max, tc.current, got, tc.want)
			}
		})
	}
}
