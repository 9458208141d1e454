package models

// Billing event types recorded in the audit log. Stripe-originated events
// carry the provider's event id; internally synthesized rows (payment
// succeeded/failed derived from invoices, seat changes) leave it empty.
const (
	BillingEventSubscriptionCreated   = "subscription_created"
	BillingEventSubscriptionUpdated   = "subscription_updated"
	BillingEventSubscriptionCancelled = "subscription_cancelled"
	BillingEventPaymentSucceeded      = "payment_succeeded"
	BillingEventPaymentFailed         = "payment_failed"
	BillingEventInvoicePaid           = "invoice_paid"
	BillingEventInvoicePaymentFailed  = "invoice_payment_failed"
	BillingEventSeatAdded             = "seat_added"
	BillingEventSeatRemoved           = "seat_removed"
	BillingEventPlanUpgraded          = "plan_upgraded"
	BillingEventPlanDowngraded        = "plan_downgraded"
)

type BillingEvent struct {
	ID             string `json:"id"`
	StripeEventID  string `json:"stripe_event_id,omitempty"`
	EventType      string `json:"event_type"`
	OrganizationID string `json:"organization_id"`

	AmountCents  *int64 `json:"amount_cents,omitempty"`
	Currency     string `json:"currency,omitempty"`
	PreviousPlan string `json:"previous_plan,omitempty"`
	NewPlan      string `json:"new_plan,omitempty"`

	// Processed stays false after a failed handler run so the event can be
	// retried by the provider or inspected by an operator.
	Processed   bool   `json:"processed"`
	ProcessedAt *int64 `json:"processed_at,omitempty"`
	ErrorText   string `json:"error_text,omitempty"`

	CreatedAt int64 `json:"created_at"`
}
