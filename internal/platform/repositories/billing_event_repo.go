package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"rentr/internal/platform/models"
)

type BillingEventRepository struct {
	db *sql.DB
}

func NewBillingEventRepository(db *sql.DB) *BillingEventRepository {
	return &BillingEventRepository{db: db}
}

const billingEventColumns = `id, stripe_event_id, event_type, organization_id, amount_cents, currency,
	previous_plan, new_plan, processed, processed_at, error_text, created_at`

func scanBillingEvent(scan func(dest ...interface{}) error) (*models.BillingEvent, error) {
	ev := &models.BillingEvent{}
	var stripeEventID, currency, prevPlan, newPlan, errorText sql.NullString
	err := scan(&ev.ID, &stripeEventID, &ev.EventType, &ev.OrganizationID, &ev.AmountCents, &currency,
		&prevPlan, &newPlan, &ev.Processed, &ev.ProcessedAt, &errorText, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	ev.StripeEventID = stripeEventID.String
	ev.Currency = currency.String
	ev.PreviousPlan = prevPlan.String
	ev.NewPlan = newPlan.String
	ev.ErrorText = errorText.String
	return ev, nil
}

func (r *BillingEventRepository) Create(ev *models.BillingEvent) error {
	if ev.ID == "" {
		ev.ID = "bev_" + uuid.NewString()
	}
	if ev.CreatedAt == 0 {
		ev.CreatedAt = time.Now().Unix()
	}

	var stripeEventID interface{}
	if ev.StripeEventID != "" {
		stripeEventID = ev.StripeEventID
	}

	_, err := r.db.Exec(`
		INSERT INTO billing_events (id, stripe_event_id, event_type, organization_id, amount_cents, currency,
			previous_plan, new_plan, processed, processed_at, error_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, stripeEventID, ev.EventType, ev.OrganizationID, ev.AmountCents, ev.Currency,
		ev.PreviousPlan, ev.NewPlan, ev.Processed, ev.ProcessedAt, ev.ErrorText, ev.CreatedAt)
	return err
}

func (r *BillingEventRepository) GetByStripeEventID(stripeEventID string) (*models.BillingEvent, error) {
	row := r.db.QueryRow(`SELECT `+billingEventColumns+` FROM billing_events WHERE stripe_event_id = ?`, stripeEventID)
	ev, err := scanBillingEvent(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ev, nil
}

// Update rewrites the mutable fields of an existing row. The reconciler uses
// it when a previously failed delivery succeeds on retry, so the audit row
// picks up the organization and plan-transition details the handler produced.
func (r *BillingEventRepository) Update(ev *models.BillingEvent) error {
	_, err := r.db.Exec(`
		UPDATE billing_events SET event_type = ?, organization_id = ?, amount_cents = ?, currency = ?,
			previous_plan = ?, new_plan = ?, processed = ?, processed_at = ?, error_text = ?
		WHERE id = ?
	`, ev.EventType, ev.OrganizationID, ev.AmountCents, ev.Currency,
		ev.PreviousPlan, ev.NewPlan, ev.Processed, ev.ProcessedAt, ev.ErrorText, ev.ID)
	return err
}

func (r *BillingEventRepository) MarkFailed(id, errorText string) error {
	_, err := r.db.Exec(`UPDATE billing_events SET processed = 0, error_text = ? WHERE id = ?`,
		errorText, id)
	return err
}

func (r *BillingEventRepository) ListByOrganization(orgID string, limit, offset int) ([]*models.BillingEvent, error) {
	rows, err := r.db.Query(`
		SELECT `+billingEventColumns+` FROM billing_events
		WHERE organization_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?
	`, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.BillingEvent
	for rows.Next() {
		ev, err := scanBillingEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
