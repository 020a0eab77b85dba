package resident

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"github.com/google/uuid"
)

type Service struct {
	repo ResidentRepository
}

func NewService(repo ResidentRepository) *Service {
	return &Service{repo: repo}
}

var validStatuses = map[Status]bool{
	StatusActive: true, StatusDischarged: true, StatusDeceased: true,
}

func (s *Service) validate(r *Resident) error {
	if r.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if r.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if r.OrganizationID == uuid.Nil {
		return fmt.Errorf("organization_id is required")
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	if !validStatuses[r.Status] {
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	if r.NHSNumber != nil && !validNHSNumber(*r.NHSNumber) {
		return fmt.Errorf("invalid nhs_number: must be 10 digits")
	}
	if r.DateOfBirth != nil && r.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("date_of_birth cannot be in the future")
	}
	return nil
}

// validNHSNumber checks the 10-digit shape only. Check-digit verification is
// left to the upstream NHS lookup.
func validNHSNumber(n string) bool {
	if len(n) != 10 {
		return false
	}
	for _, r := range n {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (s *Service) CreateResident(ctx context.Context, r *Resident) error {
	if err := s.validate(r); err != nil {
		return err
	}
	return s.repo.Create(ctx, r)
}

func (s *Service) GetResident(ctx context.Context, id uuid.UUID) (*Resident, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateResident(ctx context.Context, r *Resident) error {
	if err := s.validate(r); err != nil {
		return err
	}
	return s.repo.Update(ctx, r)
}

func (s *Service) DeleteResident(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListResidents(ctx context.Context, limit, offset int) ([]*Resident, int, error) {
	return s.repo.List(ctx, limit, offset)
}
