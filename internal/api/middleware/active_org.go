package middleware

import (
	"net/http"

	apiContext "rentr/internal/api/context"
	"rentr/internal/engine/billing"
	"rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
)

// ActiveOrgMiddleware gates mutating routes on the organization status. The
// read goes through the subscription service so an expired billing period is
// swept to suspended as a side effect, without a background job.
type ActiveOrgMiddleware struct {
	subscriptions *billing.SubscriptionService
}

func NewActiveOrgMiddleware(subscriptions *billing.SubscriptionService) *ActiveOrgMiddleware {
	return &ActiveOrgMiddleware{subscriptions: subscriptions}
}

func (m *ActiveOrgMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := r.Context().Value(apiContext.Tenant).(*TenantContext)
		if !ok {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Tenant context missing", nil)
			return
		}

		state, err := m.subscriptions.IsActive(tenant.OrgID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Subscription check failed", nil)
			return
		}

		switch state.Status {
		case models.OrgStatusActive:
			next(w, r)
		case models.OrgStatusSuspended:
			errors.WriteError(w, http.StatusPaymentRequired, errors.ErrCodeForbidden, "Organization is suspended", nil)
		default:
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization is not active", nil)
		}
	}
}
