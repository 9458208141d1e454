package repositories

import (
	"database/sql"
	"time"

	"rentr/internal/platform/models"
)

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

const orgColumns = `id, slug, name, db_file_path, status, plan_key, stripe_customer_id, stripe_subscription_id,
	current_period_start, current_period_end, cancel_at_period_end, seat_count, material_count,
	created_at, updated_at, deleted_at`

func scanOrg(row *sql.Row) (*models.Organization, error) {
	org := &models.Organization{}
	var custID, subID sql.NullString
	err := row.Scan(&org.ID, &org.Slug, &org.Name, &org.DBFilePath, &org.Status, &org.PlanKey,
		&custID, &subID, &org.CurrentPeriodStart, &org.CurrentPeriodEnd, &org.CancelAtPeriodEnd,
		&org.SeatCount, &org.MaterialCount, &org.CreatedAt, &org.UpdatedAt, &org.DeletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	org.StripeCustomerID = custID.String
	org.StripeSubscriptionID = subID.String
	return org, nil
}

func (r *OrganizationRepository) CreateTx(tx *sql.Tx, org *models.Organization) error {
	_, err := tx.Exec(`
		INSERT INTO organizations (id, slug, name, db_file_path, status, plan_key, stripe_customer_id, stripe_subscription_id,
			current_period_start, current_period_end, cancel_at_period_end, seat_count, material_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, org.ID, org.Slug, org.Name, org.DBFilePath, org.Status, org.PlanKey, org.StripeCustomerID, org.StripeSubscriptionID,
		org.CurrentPeriodStart, org.CurrentPeriodEnd, org.CancelAtPeriodEnd, org.SeatCount, org.MaterialCount, org.CreatedAt, org.UpdatedAt)
	return err
}

func (r *OrganizationRepository) Create(org *models.Organization) error {
	_, err := r.db.Exec(`
		INSERT INTO organizations (id, slug, name, db_file_path, status, plan_key, stripe_customer_id, stripe_subscription_id,
			current_period_start, current_period_end, cancel_at_period_end, seat_count, material_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, org.ID, org.Slug, org.Name, org.DBFilePath, org.Status, org.PlanKey, org.StripeCustomerID, org.StripeSubscriptionID,
		org.CurrentPeriodStart, org.CurrentPeriodEnd, org.CancelAtPeriodEnd, org.SeatCount, org.MaterialCount, org.CreatedAt, org.UpdatedAt)
	return err
}

func (r *OrganizationRepository) GetByID(id string) (*models.Organization, error) {
	return scanOrg(r.db.QueryRow(`SELECT `+orgColumns+` FROM organizations WHERE id = ?`, id))
}

func (r *OrganizationRepository) GetBySlug(slug string) (*models.Organization, error) {
	return scanOrg(r.db.QueryRow(`SELECT `+orgColumns+` FROM organizations WHERE slug = ?`, slug))
}

func (r *OrganizationRepository) GetByStripeCustomerID(customerID string) (*models.Organization, error) {
	return scanOrg(r.db.QueryRow(`SELECT `+orgColumns+` FROM organizations WHERE stripe_customer_id = ?`, customerID))
}

func (r *OrganizationRepository) UpdateName(id, name string) error {
	_, err := r.db.Exec(`UPDATE organizations SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().Unix(), id)
	return err
}

func (r *OrganizationRepository) UpdateStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE organizations SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().Unix(), id)
	return err
}

func (r *OrganizationRepository) SetStripeCustomerID(id, customerID string) error {
	_, err := r.db.Exec(`UPDATE organizations SET stripe_customer_id = ?, updated_at = ? WHERE id = ?`,
		customerID, time.Now().Unix(), id)
	return err
}

func (r *OrganizationRepository) SetPlan(id, planKey string) error {
	_, err := r.db.Exec(`UPDATE organizations SET plan_key = ?, updated_at = ? WHERE id = ?`,
		planKey, time.Now().Unix(), id)
	return err
}

// ApplyCheckout records the authoritative initial subscription state echoed
// back by the provider after a completed checkout. The seat count is set
// directly, bypassing the quota re-check.
func (r *OrganizationRepository) ApplyCheckout(id, planKey, subscriptionID string, seatCount int) error {
	_, err := r.db.Exec(`
		UPDATE organizations SET plan_key = ?, stripe_subscription_id = ?, seat_count = ?, updated_at = ?
		WHERE id = ?
	`, planKey, subscriptionID, seatCount, time.Now().Unix(), id)
	return err
}

func (r *OrganizationRepository) SetBillingPeriod(id, subscriptionID string, periodStart, periodEnd int64, cancelAtPeriodEnd bool) error {
	_, err := r.db.Exec(`
		UPDATE organizations SET stripe_subscription_id = ?, current_period_start = ?, current_period_end = ?,
			cancel_at_period_end = ?, updated_at = ?
		WHERE id = ?
	`, subscriptionID, periodStart, periodEnd, cancelAtPeriodEnd, time.Now().Unix(), id)
	return err
}

// AddSeats atomically adjusts the seat counter. Negative deltas clamp at
// zero; the quota service validates limits before calling with a positive
// delta.
func (r *OrganizationRepository) AddSeats(id string, delta int) error {
	_, err := r.db.Exec(`UPDATE organizations SET seat_count = MAX(0, seat_count + ?), updated_at = ? WHERE id = ?`,
		delta, time.Now().Unix(), id)
	return err
}

// AddMaterials atomically adjusts the catalog-item counter, clamped at zero.
func (r *OrganizationRepository) AddMaterials(id string, delta int) error {
	_, err := r.db.Exec(`UPDATE organizations SET material_count = MAX(0, material_count + ?), updated_at = ? WHERE id = ?`,
		delta, time.Now().Unix(), id)
	return err
}
