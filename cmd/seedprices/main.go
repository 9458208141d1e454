package main

import (
	"errors"
	"flag"
	"log"

	"rentr/internal/engine/billing"
	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/config"
	"rentr/internal/platform/database"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

// seedprices provisions Stripe prices for every active paid plan that does
// not have one yet. Running it is optional; the checkout flow creates
// missing prices on demand. It exists so an operator can front-load the
// Stripe catalog instead of paying the provisioning latency on a customer's
// first checkout.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatalf("Failed to connect to global DB: %v", err)
	}
	defer db.Close()

	planRepo := repositories.NewPlanRepository(db)
	provider := billing.NewStripeProvider(cfg.Stripe.APIKey)

	plans, err := planRepo.FindActive()
	if err != nil {
		log.Fatalf("Failed to load plans: %v", err)
	}

	for _, plan := range plans {
		if plan.PlanKey == cfg.Billing.FreePlanKey {
			continue
		}

		if plan.StripeBasePriceID == nil && plan.BaseCostCents > 0 {
			priceID, err := provider.CreateRecurringPrice(plan.DisplayName, plan.BaseCostCents,
				map[string]string{"plan_key": plan.PlanKey, "component": "base"})
			if err != nil {
				log.Fatalf("Failed to create base price for %s: %v", plan.PlanKey, err)
			}
			if err := planRepo.SetBasePriceID(plan.PlanKey, priceID); err != nil {
				// Another writer seeded this plan first; its price wins.
				if errors.Is(err, pkgerrors.ErrConflict) {
					log.Printf("Base price for %s already set, skipping", plan.PlanKey)
				} else {
					log.Fatalf("Failed to store base price for %s: %v", plan.PlanKey, err)
				}
			} else {
				log.Printf("Seeded base price %s for plan %s", priceID, plan.PlanKey)
			}
		}

		if plan.BillingModel == models.BillingModelDynamic && plan.StripeSeatPriceID == nil && plan.SeatCostCents > 0 {
			priceID, err := provider.CreateRecurringPrice(plan.DisplayName+" Seat", plan.SeatCostCents,
				map[string]string{"plan_key": plan.PlanKey, "component": "seat"})
			if err != nil {
				log.Fatalf("Failed to create seat price for %s: %v", plan.PlanKey, err)
			}
			if err := planRepo.SetSeatPriceID(plan.PlanKey, priceID); err != nil {
				if errors.Is(err, pkgerrors.ErrConflict) {
					log.Printf("Seat price for %s already set, skipping", plan.PlanKey)
				} else {
					log.Fatalf("Failed to store seat price for %s: %v", plan.PlanKey, err)
				}
			} else {
				log.Printf("Seeded seat price %s for plan %s", priceID, plan.PlanKey)
			}
		}
	}

	log.Println("Price seeding complete")
}
