package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

// ErrInvalidSignature marks a payload that failed signature verification.
// Such payloads are rejected without an audit entry: an unverified body is
// not trusted enough to log as a real event.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Reconciler applies inbound provider events to organization subscription
// state. Processing is idempotent per provider event id and tolerates
// out-of-order, duplicated and delayed delivery.
type Reconciler struct {
	orgRepo       *repositories.OrganizationRepository
	eventRepo     *repositories.BillingEventRepository
	webhookSecret string
	freePlanKey   string
}

func NewReconciler(orgRepo *repositories.OrganizationRepository, eventRepo *repositories.BillingEventRepository, webhookSecret, freePlanKey string) *Reconciler {
	return &Reconciler{
		orgRepo:       orgRepo,
		eventRepo:     eventRepo,
		webhookSecret: webhookSecret,
		freePlanKey:   freePlanKey,
	}
}

// Process verifies and applies one raw webhook delivery. The event row is
// upserted whether the handler succeeds or fails, which is what makes the
// duplicate check sound under partial failure: a retried delivery finds the
// row and either short-circuits (processed) or reprocesses (failed).
func (r *Reconciler) Process(payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, r.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	existing, err := r.eventRepo.GetByStripeEventID(event.ID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Processed {
		log.Debug().Str("event_id", event.ID).Str("type", string(event.Type)).
			Msg("duplicate webhook delivery, already processed")
		return nil
	}

	row, handlerErr := r.dispatch(&event)
	if row == nil {
		row = &models.BillingEvent{EventType: string(event.Type)}
	}
	row.StripeEventID = event.ID

	if handlerErr != nil {
		row.Processed = false
		row.ErrorText = handlerErr.Error()
		if existing != nil {
			if err := r.eventRepo.MarkFailed(existing.ID, handlerErr.Error()); err != nil {
				log.Error().Err(err).Str("event_id", event.ID).Msg("record failed billing event")
			}
		} else if err := r.eventRepo.Create(row); err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("record failed billing event")
		}
		return handlerErr
	}

	now := time.Now().Unix()
	row.Processed = true
	row.ProcessedAt = &now
	row.ErrorText = ""
	if existing != nil {
		// A retried delivery reuses the failed row; rewrite it in full so
		// the audit entry carries what the handler resolved this time.
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		return r.eventRepo.Update(row)
	}
	return r.eventRepo.Create(row)
}

func (r *Reconciler) dispatch(event *stripe.Event) (*models.BillingEvent, error) {
	switch string(event.Type) {
	case "checkout.session.completed":
		return r.handleCheckoutCompleted(event)
	case "customer.subscription.created":
		return r.handleSubscriptionChange(event, models.BillingEventSubscriptionCreated)
	case "customer.subscription.updated":
		return r.handleSubscriptionChange(event, models.BillingEventSubscriptionUpdated)
	case "customer.subscription.deleted":
		return r.handleSubscriptionDeleted(event)
	case "invoice.paid":
		return r.handleInvoicePaid(event)
	case "invoice.payment_failed":
		return r.handleInvoicePaymentFailed(event)
	default:
		// Unrecognized types are recorded as processed no-ops so a future
		// provider addition does not wedge the retry queue.
		log.Info().Str("type", string(event.Type)).Str("event_id", event.ID).
			Msg("webhook ignored (unhandled type)")
		return &models.BillingEvent{EventType: string(event.Type)}, nil
	}
}

// checkoutSessionPayload is a minimal view of a checkout.session object.
type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// subscriptionPayload is a minimal view of a subscription object.
type subscriptionPayload struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
}

// invoicePayload is a minimal view of an invoice object.
type invoicePayload struct {
	ID         string `json:"id"`
	Customer   string `json:"customer"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
}

func (r *Reconciler) handleCheckoutCompleted(event *stripe.Event) (*models.BillingEvent, error) {
	var sess checkoutSessionPayload
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout.session: %w", err)
	}

	orgID := sess.Metadata["organization_id"]
	planKey := sess.Metadata["plan_key"]
	if orgID == "" || planKey == "" {
		return nil, fmt.Errorf("checkout session %s missing organization metadata", sess.ID)
	}
	seatCount, err := strconv.Atoi(sess.Metadata["seat_count"])
	if err != nil || seatCount < 1 {
		seatCount = 1
	}

	org, err := r.orgRepo.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("checkout session %s references unknown organization %s", sess.ID, orgID)
	}

	// The provider's echo of plan and seat count is the authoritative
	// initial value, so the seat counter is set directly here.
	if err := r.orgRepo.ApplyCheckout(orgID, planKey, sess.Subscription, seatCount); err != nil {
		return nil, err
	}
	if sess.Customer != "" && org.StripeCustomerID == "" {
		if err := r.orgRepo.SetStripeCustomerID(orgID, sess.Customer); err != nil {
			return nil, err
		}
	}

	log.Info().Str("org_id", orgID).Str("plan_key", planKey).Int("seats", seatCount).
		Msg("checkout completed, subscription recorded")

	return &models.BillingEvent{
		EventType:      models.BillingEventSubscriptionCreated,
		OrganizationID: orgID,
		PreviousPlan:   org.PlanKey,
		NewPlan:        planKey,
	}, nil
}

func (r *Reconciler) handleSubscriptionChange(event *stripe.Event, eventType string) (*models.BillingEvent, error) {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}

	org, err := r.findOrgForSubscription(&sub)
	if err != nil {
		return nil, err
	}

	if err := r.orgRepo.SetBillingPeriod(org.ID, sub.ID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd); err != nil {
		return nil, err
	}

	if sub.Status == "active" && org.Status == models.OrgStatusSuspended {
		if err := r.orgRepo.UpdateStatus(org.ID, models.OrgStatusActive); err != nil {
			return nil, err
		}
		log.Info().Str("org_id", org.ID).Msg("subscription active, organization reactivated")
	}

	return &models.BillingEvent{
		EventType:      eventType,
		OrganizationID: org.ID,
	}, nil
}

// handleSubscriptionDeleted downgrades to the free tier. The status is left
// untouched: suspension happens on the invoice-failure path, not here.
func (r *Reconciler) handleSubscriptionDeleted(event *stripe.Event) (*models.BillingEvent, error) {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}

	org, err := r.findOrgForSubscription(&sub)
	if err != nil {
		return nil, err
	}

	if err := r.orgRepo.SetPlan(org.ID, r.freePlanKey); err != nil {
		return nil, err
	}
	log.Info().Str("org_id", org.ID).Str("previous_plan", org.PlanKey).
		Msg("subscription deleted, organization downgraded to free plan")

	return &models.BillingEvent{
		EventType:      models.BillingEventSubscriptionCancelled,
		OrganizationID: org.ID,
		PreviousPlan:   org.PlanKey,
		NewPlan:        r.freePlanKey,
	}, nil
}

func (r *Reconciler) handleInvoicePaid(event *stripe.Event) (*models.BillingEvent, error) {
	var inv invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}

	org, err := r.findOrgByCustomer(inv.Customer)
	if err != nil {
		return nil, err
	}

	if org.Status == models.OrgStatusSuspended {
		if err := r.orgRepo.UpdateStatus(org.ID, models.OrgStatusActive); err != nil {
			return nil, err
		}
		log.Info().Str("org_id", org.ID).Msg("invoice paid, organization reactivated")
	}

	amount := inv.AmountPaid
	return &models.BillingEvent{
		EventType:      models.BillingEventPaymentSucceeded,
		OrganizationID: org.ID,
		AmountCents:    &amount,
		Currency:       inv.Currency,
	}, nil
}

func (r *Reconciler) handleInvoicePaymentFailed(event *stripe.Event) (*models.BillingEvent, error) {
	var inv invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}

	org, err := r.findOrgByCustomer(inv.Customer)
	if err != nil {
		return nil, err
	}

	if err := r.orgRepo.UpdateStatus(org.ID, models.OrgStatusSuspended); err != nil {
		return nil, err
	}
	log.Warn().Str("org_id", org.ID).Msg("invoice payment failed, organization suspended")

	amount := inv.AmountDue
	return &models.BillingEvent{
		EventType:      models.BillingEventPaymentFailed,
		OrganizationID: org.ID,
		AmountCents:    &amount,
		Currency:       inv.Currency,
	}, nil
}

func (r *Reconciler) findOrgForSubscription(sub *subscriptionPayload) (*models.Organization, error) {
	if orgID := sub.Metadata["organization_id"]; orgID != "" {
		org, err := r.orgRepo.GetByID(orgID)
		if err != nil {
			return nil, err
		}
		if org != nil {
			return org, nil
		}
	}
	return r.findOrgByCustomer(sub.Customer)
}

func (r *Reconciler) findOrgByCustomer(customerID string) (*models.Organization, error) {
	if customerID == "" {
		return nil, fmt.Errorf("event carries no customer reference: %w", pkgerrors.ErrNotFound)
	}
	org, err := r.orgRepo.GetByStripeCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("no organization for customer %s: %w", customerID, pkgerrors.ErrNotFound)
	}
	return org, nil
}
