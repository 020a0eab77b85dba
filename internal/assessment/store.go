package assessment

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract for assessment records. All versions of
// all form kinds share one store; queries filter by form kind and resident.
type Store interface {
	// Insert assigns a fresh id and creation timestamp and stores the record
	// atomically.
	Insert(ctx context.Context, rec *Record) error
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	// Patch merges the given fields into an existing record, or ErrNotFound.
	Patch(ctx context.Context, id uuid.UUID, p Patch) error
	// Delete removes exactly one version, or ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByResident returns all versions of one form kind for a resident,
	// newest first.
	ListByResident(ctx context.Context, formKind string, residentID uuid.UUID) ([]*Record, error)
	// FindDraft returns the single draft for (resident, form kind), or
	// ErrNotFound when no draft exists.
	FindDraft(ctx context.Context, formKind string, residentID uuid.UUID) (*Record, error)
}
