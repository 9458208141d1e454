package rentals

import (
	"database/sql"
)

// Repository accesses materials in a single organization's tenant database.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(m *Material) error {
	_, err := r.db.Exec(`
		INSERT INTO materials (id, name, description, category, serial_number, daily_rate_cents, condition, status, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Description, m.Category, m.SerialNumber, m.DailyRateCent, m.Condition, m.Status, m.CreatedBy, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *Repository) GetByID(id string) (*Material, error) {
	m := &Material{}
	err := r.db.QueryRow(`
		SELECT id, name, description, category, serial_number, daily_rate_cents, condition, status, created_by, created_at, updated_at
		FROM materials WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.Description, &m.Category, &m.SerialNumber, &m.DailyRateCent, &m.Condition, &m.Status, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *Repository) List(limit, offset int) ([]*Material, error) {
	rows, err := r.db.Query(`
		SELECT id, name, description, category, serial_number, daily_rate_cents, condition, status, created_by, created_at, updated_at
		FROM materials ORDER BY created_at DESC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []*Material
	for rows.Next() {
		m := &Material{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Category, &m.SerialNumber, &m.DailyRateCent, &m.Condition, &m.Status, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (r *Repository) Update(m *Material) error {
	_, err := r.db.Exec(`
		UPDATE materials SET name = ?, description = ?, category = ?, serial_number = ?, daily_rate_cents = ?, condition = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, m.Name, m.Description, m.Category, m.SerialNumber, m.DailyRateCent, m.Condition, m.Status, m.UpdatedAt, m.ID)
	return err
}

func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM materials WHERE id = ?`, id)
	return err
}
