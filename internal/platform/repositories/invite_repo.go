package repositories

import (
	"database/sql"
	"time"

	"rentr/internal/platform/models"
)

type InviteRepository struct {
	db *sql.DB
}

func NewInviteRepository(db *sql.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(invite *models.Invite) error {
	_, err := r.db.Exec(`
		INSERT INTO invites (id, organization_id, code, email, role, invited_by, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, invite.ID, invite.OrganizationID, invite.Code, invite.Email, invite.Role, invite.InvitedBy,
		invite.Status, invite.ExpiresAt, invite.CreatedAt, invite.UpdatedAt)
	return err
}

func (r *InviteRepository) GetByCode(code string) (*models.Invite, error) {
	invite := &models.Invite{}
	err := r.db.QueryRow(`
		SELECT id, organization_id, code, email, role, invited_by, status, expires_at, created_at, updated_at
		FROM invites WHERE code = ?
	`, code).Scan(&invite.ID, &invite.OrganizationID, &invite.Code, &invite.Email, &invite.Role,
		&invite.InvitedBy, &invite.Status, &invite.ExpiresAt, &invite.CreatedAt, &invite.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return invite, nil
}

func (r *InviteRepository) ListByOrganization(orgID string) ([]*models.Invite, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, code, email, role, invited_by, status, expires_at, created_at, updated_at
		FROM invites WHERE organization_id = ? ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*models.Invite
	for rows.Next() {
		invite := &models.Invite{}
		if err := rows.Scan(&invite.ID, &invite.OrganizationID, &invite.Code, &invite.Email, &invite.Role,
			&invite.InvitedBy, &invite.Status, &invite.ExpiresAt, &invite.CreatedAt, &invite.UpdatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

func (r *InviteRepository) UpdateStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE invites SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().Unix(), id)
	return err
}
