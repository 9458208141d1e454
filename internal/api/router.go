package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "rentr/internal/api/context"
	"rentr/internal/api/handlers"
	"rentr/internal/api/middleware"
	"rentr/internal/pkg/errors"
	"rentr/internal/platform/auth"
)

type Dependencies struct {
	AuthHandler     *handlers.AuthHandler
	OrgHandler      *handlers.OrgHandler
	InviteHandler   *handlers.InviteHandler
	UserHandler     *handlers.UserHandler
	MaterialHandler *handlers.MaterialHandler
	BillingHandler  *handlers.BillingHandler
	WebhookHandler  *handlers.StripeWebhookHandler
	PlanHandler     *handlers.PlanHandler
	HealthHandler   *handlers.HealthHandler

	AuthMiddleware      *middleware.AuthMiddleware
	TenantMiddleware    *middleware.TenantMiddleware
	ActiveOrgMiddleware *middleware.ActiveOrgMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Authentication routes
	router.POST("/api/v1/auth/register", wrap(deps.AuthHandler.Register))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))

	// Invite acceptance is public: the invitee has no account yet.
	router.POST("/api/v1/invites/accept", wrap(deps.InviteHandler.Accept))

	// Stripe delivers here; signature verification replaces auth.
	router.POST("/api/v1/billing/webhook", wrap(deps.WebhookHandler.Handle))

	// Middleware references
	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware
	activeMid := deps.ActiveOrgMiddleware

	// Organization management
	router.GET("/api/v1/organizations/current",
		chain(deps.OrgHandler.GetCurrent, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/organizations/current",
		chain(deps.OrgHandler.Update, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.POST("/api/v1/organizations/current/reactivate",
		chain(deps.OrgHandler.Reactivate, authMid.Handle, tenantMid.Handle, requireRole("owner")))

	// Billing stays reachable while suspended so the org can pay its way out.
	router.GET("/api/v1/billing/plans",
		chain(deps.BillingHandler.ListPlans, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/billing/checkout",
		chain(deps.BillingHandler.CreateCheckout, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.POST("/api/v1/billing/portal",
		chain(deps.BillingHandler.CreatePortal, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.GET("/api/v1/billing/events",
		chain(deps.BillingHandler.ListEvents, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.DELETE("/api/v1/billing/subscription",
		chain(deps.BillingHandler.CancelSubscription, authMid.Handle, tenantMid.Handle, requireRole("owner")))

	// Invite management
	router.POST("/api/v1/invites",
		chain(deps.InviteHandler.Create, authMid.Handle, tenantMid.Handle, activeMid.Handle, requireRole("admin", "owner")))
	router.GET("/api/v1/invites",
		chain(deps.InviteHandler.List, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.DELETE("/api/v1/invites/:invite_id",
		chain(deps.InviteHandler.Revoke, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))

	// User management
	router.GET("/api/v1/users",
		chain(deps.UserHandler.List, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.DELETE("/api/v1/users/:user_id",
		chain(deps.UserHandler.Remove, authMid.Handle, tenantMid.Handle, requireRole("owner")))

	// Material management, gated on an active subscription
	router.POST("/api/v1/materials",
		chain(deps.MaterialHandler.Create, authMid.Handle, tenantMid.Handle, activeMid.Handle))
	router.GET("/api/v1/materials",
		chain(deps.MaterialHandler.List, authMid.Handle, tenantMid.Handle, activeMid.Handle))
	router.GET("/api/v1/materials/:material_id",
		chain(deps.MaterialHandler.Get, authMid.Handle, tenantMid.Handle, activeMid.Handle))
	router.PATCH("/api/v1/materials/:material_id",
		chain(deps.MaterialHandler.Update, authMid.Handle, tenantMid.Handle, activeMid.Handle))
	router.DELETE("/api/v1/materials/:material_id",
		chain(deps.MaterialHandler.Delete, authMid.Handle, tenantMid.Handle, activeMid.Handle))

	// Plan catalog administration (platform operators only)
	router.POST("/api/v1/admin/plans",
		chain(deps.PlanHandler.Create, authMid.Handle, requireRole("platform_admin")))
	router.PATCH("/api/v1/admin/plans/:plan_key",
		chain(deps.PlanHandler.Update, authMid.Handle, requireRole("platform_admin")))
	router.DELETE("/api/v1/admin/plans/:plan_key",
		chain(deps.PlanHandler.Deactivate, authMid.Handle, requireRole("platform_admin")))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}

			if !allowed {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}
