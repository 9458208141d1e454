package rentals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"rentr/internal/engine/billing"
)

// Service wires material CRUD to quota enforcement. Creation is a two-phase
// sequence: reserve a counter slot, insert the row, and compensate the
// reservation if the insert fails. The tenant database and the organization
// counter do not share a transaction, so the compensation call is the only
// rollback there is.
type Service struct {
	repo  *Repository
	quota *billing.QuotaService
	orgID string
}

func NewService(repo *Repository, quota *billing.QuotaService, orgID string) *Service {
	return &Service{repo: repo, quota: quota, orgID: orgID}
}

func (s *Service) CreateMaterial(req *Material) (*Material, error) {
	if err := ValidateMaterial(req); err != nil {
		return nil, err
	}

	// Reserve the quota slot first; IncrementMaterials re-checks the plan
	// limit before touching the counter.
	if err := s.quota.IncrementMaterials(s.orgID, 1); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	m := &Material{
		ID:            "mat_" + uuid.NewString(),
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		SerialNumber:  req.SerialNumber,
		DailyRateCent: req.DailyRateCent,
		Condition:     req.Condition,
		Status:        MaterialStatusAvailable,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if m.Condition == "" {
		m.Condition = "good"
	}

	if err := s.repo.Create(m); err != nil {
		// Compensate the reservation; the two stores are not atomic.
		if derr := s.quota.DecrementMaterials(s.orgID, 1); derr != nil {
			return nil, fmt.Errorf("create material: %w (releasing quota slot also failed: %v)", err, derr)
		}
		return nil, err
	}

	return m, nil
}

func (s *Service) GetMaterial(id string) (*Material, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListMaterials(limit, offset int) ([]*Material, error) {
	return s.repo.List(limit, offset)
}

func (s *Service) UpdateMaterial(id string, updates *Material) (*Material, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if updates.Name != "" {
		existing.Name = updates.Name
	}
	if updates.Description != "" {
		existing.Description = updates.Description
	}
	if updates.Category != "" {
		existing.Category = updates.Category
	}
	if updates.SerialNumber != "" {
		existing.SerialNumber = updates.SerialNumber
	}
	if updates.DailyRateCent != 0 {
		existing.DailyRateCent = updates.DailyRateCent
	}
	if updates.Condition != "" {
		existing.Condition = updates.Condition
	}
	if updates.Status != "" {
		existing.Status = updates.Status
	}
	existing.UpdatedAt = time.Now().Unix()

	if err := ValidateMaterial(existing); err != nil {
		return nil, err
	}
	if err := s.repo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) DeleteMaterial(id string) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	return s.quota.DecrementMaterials(s.orgID, 1)
}
