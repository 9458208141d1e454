package models

// Billing models. Fixed plans carry a hard seat ceiling and a flat price;
// dynamic plans bill per seat and usually leave MaxSeats unlimited.
const (
	BillingModelFixed   = "fixed"
	BillingModelDynamic = "dynamic"
)

// Plan statuses. Deactivation is a status flip, never a delete: historical
// organizations may still reference the plan key.
const (
	PlanStatusActive     = "active"
	PlanStatusInactive   = "inactive"
	PlanStatusDeprecated = "deprecated"
)

// Unlimited marks a quota with no ceiling.
const Unlimited = -1

type PlanDefinition struct {
	PlanKey      string `json:"plan_key"`
	DisplayName  string `json:"display_name"`
	Description  string `json:"description"`
	BillingModel string `json:"billing_model"`

	BaseCostCents int64 `json:"base_cost_cents"`
	SeatCostCents int64 `json:"seat_cost_cents"`

	MaxSeats     int `json:"max_seats"`
	MaxMaterials int `json:"max_materials"`

	Features  []string `json:"features"`
	SortOrder int      `json:"sort_order"`

	// Stripe price references, nil until lazily provisioned on first
	// checkout or seeded by cmd/seedprices.
	StripeBasePriceID *string `json:"stripe_base_price_id,omitempty"`
	StripeSeatPriceID *string `json:"stripe_seat_price_id,omitempty"`

	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
