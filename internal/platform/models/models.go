package models

// Organization statuses. Cancelled is terminal; a fresh registration creates
// a new organization.
const (
	OrgStatusActive    = "active"
	OrgStatusSuspended = "suspended"
	OrgStatusCancelled = "cancelled"
)

type Organization struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	DBFilePath string `json:"db_file_path"`
	Status     string `json:"status"`

	// Subscription state. PlanKey defaults to the free plan and the Stripe
	// references stay empty until the organization first checks out. The
	// webhook reconciler is the sole writer of plan/period fields once a
	// subscription exists; counters move only through the quota service.
	PlanKey              string `json:"plan_key"`
	StripeCustomerID     string `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string `json:"stripe_subscription_id,omitempty"`
	CurrentPeriodStart   int64  `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     int64  `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool   `json:"cancel_at_period_end"`
	SeatCount            int    `json:"seat_count"`
	MaterialCount        int    `json:"material_count"`

	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

type User struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	PasswordHash   string `json:"-"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	LastLoginAt    *int64 `json:"last_login_at,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
	DeletedAt      *int64 `json:"deleted_at,omitempty"`

	Organization *Organization `json:"organization,omitempty"`
}

type Invite struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Code           string `json:"code"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role"`
	InvitedBy      string `json:"invited_by"`
	Status         string `json:"status"`
	ExpiresAt      int64  `json:"expires_at"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}
