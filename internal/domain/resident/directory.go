package resident

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carehq/carehq/internal/assessment"
)

// Directory adapts the resident service to the assessment engine's lookup
// contract: existence plus tenant ownership plus a renderer snapshot.
type Directory struct {
	svc *Service
}

func NewDirectory(svc *Service) *Directory {
	return &Directory{svc: svc}
}

func (d *Directory) Lookup(ctx context.Context, id uuid.UUID) (*assessment.ResidentRef, error) {
	res, err := d.svc.GetResident(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, assessment.ErrResidentNotFound
	}
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal resident snapshot: %w", err)
	}
	return &assessment.ResidentRef{
		ID:             res.ID,
		OrganizationID: res.OrganizationID,
		TeamID:         res.TeamID,
		Snapshot:       snapshot,
	}, nil
}
