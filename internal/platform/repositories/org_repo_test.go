package repositories

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"rentr/internal/platform/models"
)

func setupOrgDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	query := `
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
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return db
}

func seedTestOrg(t *testing.T, repo *OrganizationRepository, seatCount int) {
	t.Helper()

	now := time.Now().Unix()
	org := &models.Organization{
		ID:         "org_1",
		Slug:       "acme",
		Name:       "Acme",
		DBFilePath: ":memory:",
		Status:     models.OrgStatusActive,
		PlanKey:    "free",
		SeatCount:  seatCount,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.Create(org); err != nil {
		t.Fatalf("Failed to create org: %v", err)
	}
}

func TestOrganizationRepository_AddSeatsClampsAtZero(t *testing.T) {
	repo := NewOrganizationRepository(setupOrgDB(t))
	seedTestOrg(t, repo, 1)

	if err := repo.AddSeats("org_1", -5); err != nil {
		t.Fatalf("AddSeats failed: %v", err)
	}

	org, err := repo.GetByID("org_1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if org.SeatCount != 0 {
		t.Errorf("Expected seat count clamped to 0, got %d", org.SeatCount)
	}
}

func TestOrganizationRepository_ApplyCheckout(t *testing.T) {
	repo := NewOrganizationRepository(setupOrgDB(t))
	seedTestOrg(t, repo, 1)

	if err := repo.ApplyCheckout("org_1", "pro", "sub_123", 4); err != nil {
		t.Fatalf("ApplyCheckout failed: %v", err)
	}

	org, _ := repo.GetByID("org_1")
	if org.PlanKey != "pro" || org.StripeSubscriptionID != "sub_123" || org.SeatCount != 4 {
		t.Errorf("Checkout not applied: plan=%s sub=%s seats=%d", org.PlanKey, org.StripeSubscriptionID, org.SeatCount)
	}
}

func TestOrganizationRepository_GetByStripeCustomerID(t *testing.T) {
	repo := NewOrganizationRepository(setupOrgDB(t))
	seedTestOrg(t, repo, 1)

	if err := repo.SetStripeCustomerID("org_1", "cus_123"); err != nil {
		t.Fatalf("SetStripeCustomerID failed: %v", err)
	}

	org, err := repo.GetByStripeCustomerID("cus_123")
	if err != nil || org == nil {
		t.Fatalf("Lookup failed: %v / %v", org, err)
	}
	if org.ID != "org_1" {
		t.Errorf("Expected org_1, got %s", org.ID)
	}

	missing, err := repo.GetByStripeCustomerID("cus_unknown")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for unknown customer, got %v / %v", missing, err)
	}
}
