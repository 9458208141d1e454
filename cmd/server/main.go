package main

import (
	"fmt"
	"log"
	"net/http"

	"rentr/internal/api"
	"rentr/internal/api/handlers"
	"rentr/internal/api/middleware"
	"rentr/internal/engine/billing"
	"rentr/internal/pkg/logger"
	"rentr/internal/platform/auth"
	"rentr/internal/platform/config"
	"rentr/internal/platform/database"
	"rentr/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	// Database Connections
	globalDB, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatalf("Failed to connect to global DB: %v", err)
	}
	defer globalDB.Close()

	// Wrapper for global DB injection
	globalDBWrapper := database.NewGlobalDBWrapper(globalDB)

	tenantDBPool := database.NewTenantDBPool(cfg.Database.Tenant)
	defer tenantDBPool.CloseAll()

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(globalDB)
	userRepo := repositories.NewUserRepository(globalDB)
	inviteRepo := repositories.NewInviteRepository(globalDB)
	planRepo := repositories.NewPlanRepository(globalDB)
	eventRepo := repositories.NewBillingEventRepository(globalDB)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	limitsCache := billing.NewLimitsCache(planRepo, cfg.Billing.LimitsCacheTTL)
	catalogSvc := billing.NewCatalogService(planRepo, limitsCache)
	quotaSvc := billing.NewQuotaService(orgRepo, limitsCache)
	subscriptionSvc := billing.NewSubscriptionService(orgRepo)
	stripeProvider := billing.NewStripeProvider(cfg.Stripe.APIKey)
	checkoutSvc := billing.NewCheckoutService(stripeProvider, planRepo, orgRepo, cfg.Billing.FreePlanKey)
	reconciler := billing.NewReconciler(orgRepo, eventRepo, cfg.Stripe.WebhookSecret, cfg.Billing.FreePlanKey)

	// Handlers
	authHandler := handlers.NewAuthHandler(orgRepo, userRepo, tokenSvc, cfg.Billing.FreePlanKey, cfg.Database.Tenant.BasePath)
	orgHandler := handlers.NewOrgHandler(orgRepo, subscriptionSvc)
	inviteHandler := handlers.NewInviteHandler(inviteRepo, userRepo, quotaSvc)
	userHandler := handlers.NewUserHandler(userRepo, quotaSvc)
	materialHandler := handlers.NewMaterialHandler(quotaSvc)
	billingHandler := handlers.NewBillingHandler(checkoutSvc, catalogSvc, subscriptionSvc, eventRepo)
	webhookHandler := handlers.NewStripeWebhookHandler(reconciler)
	planHandler := handlers.NewPlanHandler(catalogSvc)
	healthHandler := handlers.NewHealthHandler(globalDBWrapper)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	tenantMiddleware := middleware.NewTenantMiddleware(orgRepo, tenantDBPool)
	activeOrgMiddleware := middleware.NewActiveOrgMiddleware(subscriptionSvc)

	// Router
	deps := &api.Dependencies{
		AuthHandler:     authHandler,
		OrgHandler:      orgHandler,
		InviteHandler:   inviteHandler,
		UserHandler:     userHandler,
		MaterialHandler: materialHandler,
		BillingHandler:  billingHandler,
		WebhookHandler:  webhookHandler,
		PlanHandler:     planHandler,
		HealthHandler:   healthHandler,

		AuthMiddleware:      authMiddleware,
		TenantMiddleware:    tenantMiddleware,
		ActiveOrgMiddleware: activeOrgMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
