package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
)

type PlanRepository struct {
	db *sql.DB
}

func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `plan_key, display_name, description, billing_model, base_cost_cents, seat_cost_cents,
	max_seats, max_materials, features, sort_order, stripe_base_price_id, stripe_seat_price_id,
	status, created_at, updated_at`

func scanPlan(scan func(dest ...interface{}) error) (*models.PlanDefinition, error) {
	plan := &models.PlanDefinition{}
	var features string
	err := scan(&plan.PlanKey, &plan.DisplayName, &plan.Description, &plan.BillingModel,
		&plan.BaseCostCents, &plan.SeatCostCents, &plan.MaxSeats, &plan.MaxMaterials,
		&features, &plan.SortOrder, &plan.StripeBasePriceID, &plan.StripeSeatPriceID,
		&plan.Status, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(features), &plan.Features)
	return plan, nil
}

func (r *PlanRepository) Create(plan *models.PlanDefinition) error {
	features, err := json.Marshal(plan.Features)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO plans (plan_key, display_name, description, billing_model, base_cost_cents, seat_cost_cents,
			max_seats, max_materials, features, sort_order, stripe_base_price_id, stripe_seat_price_id,
			status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, plan.PlanKey, plan.DisplayName, plan.Description, plan.BillingModel, plan.BaseCostCents, plan.SeatCostCents,
		plan.MaxSeats, plan.MaxMaterials, string(features), plan.SortOrder, plan.StripeBasePriceID, plan.StripeSeatPriceID,
		plan.Status, plan.CreatedAt, plan.UpdatedAt)
	return err
}

func (r *PlanRepository) GetByKey(planKey string) (*models.PlanDefinition, error) {
	row := r.db.QueryRow(`SELECT `+planColumns+` FROM plans WHERE plan_key = ?`, planKey)
	plan, err := scanPlan(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

func (r *PlanRepository) Update(plan *models.PlanDefinition) error {
	features, err := json.Marshal(plan.Features)
	if err != nil {
		return err
	}
	plan.UpdatedAt = time.Now().Unix()

	_, err = r.db.Exec(`
		UPDATE plans SET display_name = ?, description = ?, billing_model = ?, base_cost_cents = ?, seat_cost_cents = ?,
			max_seats = ?, max_materials = ?, features = ?, sort_order = ?, status = ?, updated_at = ?
		WHERE plan_key = ?
	`, plan.DisplayName, plan.Description, plan.BillingModel, plan.BaseCostCents, plan.SeatCostCents,
		plan.MaxSeats, plan.MaxMaterials, string(features), plan.SortOrder, plan.Status, plan.UpdatedAt, plan.PlanKey)
	return err
}

func (r *PlanRepository) UpdateStatus(planKey, status string) error {
	_, err := r.db.Exec(`UPDATE plans SET status = ?, updated_at = ? WHERE plan_key = ?`,
		status, time.Now().Unix(), planKey)
	return err
}

func (r *PlanRepository) FindActive() ([]*models.PlanDefinition, error) {
	rows, err := r.db.Query(`SELECT ` + planColumns + ` FROM plans WHERE status = 'active' ORDER BY sort_order ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.PlanDefinition
	for rows.Next() {
		plan, err := scanPlan(rows.Scan)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// SetBasePriceID persists a lazily created Stripe price reference. The
// IS NULL guard keeps the first writer's id if two first-time checkouts
// race on provisioning.
func (r *PlanRepository) SetBasePriceID(planKey, priceID string) error {
	res, err := r.db.Exec(`UPDATE plans SET stripe_base_price_id = ?, updated_at = ? WHERE plan_key = ? AND stripe_base_price_id IS NULL`,
		priceID, time.Now().Unix(), planKey)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.ErrConflict
	}
	return nil
}

func (r *PlanRepository) SetSeatPriceID(planKey, priceID string) error {
	res, err := r.db.Exec(`UPDATE plans SET stripe_seat_price_id = ?, updated_at = ? WHERE plan_key = ? AND stripe_seat_price_id IS NULL`,
		priceID, time.Now().Unix(), planKey)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.ErrConflict
	}
	return nil
}
