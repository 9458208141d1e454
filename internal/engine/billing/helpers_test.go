package billing

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

func setupGlobalDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE organizations (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		db_file_path TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		plan_key TEXT NOT NULL,
		stripe_customer_id TEXT,
		stripe_subscription_id TEXT,
		current_period_start INTEGER NOT NULL DEFAULT 0,
		current_period_end INTEGER NOT NULL DEFAULT 0,
		cancel_at_period_end INTEGER NOT NULL DEFAULT 0,
		seat_count INTEGER NOT NULL DEFAULT 0,
		material_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		deleted_at INTEGER
	);
	CREATE TABLE plans (
		plan_key TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		description TEXT,
		billing_model TEXT NOT NULL DEFAULT 'fixed',
		base_cost_cents INTEGER NOT NULL DEFAULT 0,
		seat_cost_cents INTEGER NOT NULL DEFAULT 0,
		max_seats INTEGER NOT NULL DEFAULT -1,
		max_materials INTEGER NOT NULL DEFAULT -1,
		features TEXT NOT NULL DEFAULT '[]',
		sort_order INTEGER NOT NULL DEFAULT 0,
		stripe_base_price_id TEXT,
		stripe_seat_price_id TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE billing_events (
		id TEXT PRIMARY KEY,
		stripe_event_id TEXT UNIQUE,
		event_type TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		amount_cents INTEGER,
		currency TEXT NOT NULL DEFAULT 'usd',
		previous_plan TEXT,
		new_plan TEXT,
		processed INTEGER NOT NULL DEFAULT 0,
		processed_at INTEGER,
		error_text TEXT,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func seedPlan(t *testing.T, repo *repositories.PlanRepository, plan *models.PlanDefinition) {
	t.Helper()

	if plan.Status == "" {
		plan.Status = models.PlanStatusActive
	}
	now := time.Now().Unix()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if err := repo.Create(plan); err != nil {
		t.Fatalf("Failed to seed plan %s: %v", plan.PlanKey, err)
	}
}

func seedOrg(t *testing.T, repo *repositories.OrganizationRepository, org *models.Organization) {
	t.Helper()

	if org.Status == "" {
		org.Status = models.OrgStatusActive
	}
	if org.DBFilePath == "" {
		org.DBFilePath = ":memory:"
	}
	now := time.Now().Unix()
	org.CreatedAt = now
	org.UpdatedAt = now
	if err := repo.Create(org); err != nil {
		t.Fatalf("Failed to seed org %s: %v", org.ID, err)
	}
}
