package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/julienschmidt/httprouter"
	apiContext "rentr/internal/api/context"
	"rentr/internal/api/middleware"
	"rentr/internal/engine/billing"
	"rentr/internal/platform/auth"
	"rentr/internal/platform/repositories"
)

func newUserHandler(t *testing.T) (*UserHandler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	userRepo := repositories.NewUserRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	planRepo := repositories.NewPlanRepository(db)
	cache := billing.NewLimitsCache(planRepo, time.Minute)
	quota := billing.NewQuotaService(orgRepo, cache)
	return NewUserHandler(userRepo, quota), mock
}

func removeUserRequest(targetID string) *http.Request {
	req := httptest.NewRequest("DELETE", "/api/v1/users/"+targetID, nil)
	ctx := context.WithValue(req.Context(), apiContext.Tenant, &middleware.TenantContext{OrgID: "org_123"})
	ctx = context.WithValue(ctx, apiContext.Claims, &auth.Claims{UserID: "usr_owner", OrganizationID: "org_123", Role: "owner"})
	ctx = context.WithValue(ctx, apiContext.Params, httprouter.Params{{Key: "user_id", Value: targetID}})
	return req.WithContext(ctx)
}

func memberRows(id, orgID string) *sqlmock.Rows {
	now := time.Now().Unix()
	return sqlmock.NewRows([]string{
		"id", "organization_id", "email", "password_hash", "full_name", "role",
		"last_login_at", "created_at", "updated_at", "deleted_at",
	}).AddRow(id, orgID, "member@acme.test", "hash", "Member", "member", nil, now, now, nil)
}

func TestUserHandler_Remove(t *testing.T) {
	handler, mock := newUserHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
		WillReturnRows(memberRows("usr_member", "org_123"))
	mock.ExpectExec("UPDATE users SET deleted_at = ?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Seat release: read the counter, then decrement it.
	mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
		WillReturnRows(handlerOrgRows("org_123", 2))
	mock.ExpectExec("UPDATE organizations SET seat_count = MAX").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rr := httptest.NewRecorder()
	handler.Remove(rr, removeUserRequest("usr_member"))

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// The member is already soft-deleted when the seat release runs, so a
// failed release must not turn the removal into an error response.
func TestUserHandler_RemoveSurvivesFailedSeatRelease(t *testing.T) {
	handler, mock := newUserHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
		WillReturnRows(memberRows("usr_member", "org_123"))
	mock.ExpectExec("UPDATE users SET deleted_at = ?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
		WillReturnError(sql.ErrConnDone)

	rr := httptest.NewRecorder()
	handler.Remove(rr, removeUserRequest("usr_member"))

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 despite failed seat release, got %d", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestUserHandler_RemoveSelfRejected(t *testing.T) {
	handler, mock := newUserHandler(t)

	rr := httptest.NewRecorder()
	handler.Remove(rr, removeUserRequest("usr_owner"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for self-removal, got %d", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func handlerOrgRows(id string, seatCount int) *sqlmock.Rows {
	now := time.Now().Unix()
	return sqlmock.NewRows([]string{
		"id", "slug", "name", "db_file_path", "status", "plan_key",
		"stripe_customer_id", "stripe_subscription_id",
		"current_period_start", "current_period_end", "cancel_at_period_end",
		"seat_count", "material_count", "created_at", "updated_at", "deleted_at",
	}).AddRow(id, "acme", "Acme", ":memory:", "active", "pro",
		nil, nil, 0, 0, false, seatCount, 0, now, now, nil)
}
