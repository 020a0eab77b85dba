// Package assessment implements the versioned assessment record engine shared
// by every form kind: draft/submit lifecycle, append-only versioning, archive
// queries, and asynchronous PDF generation. Form packages supply only a typed
// payload and a Kind descriptor; the engine owns everything else.
package assessment

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a record version.
type Status string

const (
	// StatusDraft records are mutable in place and skip strict validation.
	StatusDraft Status = "draft"
	// StatusSubmitted records are append-only; edits insert a new version.
	StatusSubmitted Status = "submitted"
	// StatusReviewed is terminal, set by a reviewer action.
	StatusReviewed Status = "reviewed"
)

// PDFStatus tracks the document generation job for a record version. A
// record submitted before generation completes reads as pending.
type PDFStatus string

const (
	PDFStatusNone      PDFStatus = ""
	PDFStatusPending   PDFStatus = "pending"
	PDFStatusSucceeded PDFStatus = "succeeded"
	PDFStatusFailed    PDFStatus = "failed"
)

var (
	// ErrNotFound is returned by mutation paths for a missing record id.
	ErrNotFound = errors.New("assessment not found")
	// ErrResidentNotFound is returned when the owning resident does not exist.
	ErrResidentNotFound = errors.New("resident not found")
	// ErrTenantMismatch is returned when a record's organization does not
	// match the owning resident's organization.
	ErrTenantMismatch = errors.New("record organization does not match resident organization")
	// ErrNotSubmitted is returned when reviewing a record that is not in the
	// submitted state.
	ErrNotSubmitted = errors.New("only submitted assessments can be reviewed")
	// ErrDraftExists is returned by Store.Insert when a draft for the same
	// (resident, form kind) already exists. The engine resolves it by
	// patching the existing draft instead.
	ErrDraftExists = errors.New("a draft already exists for this resident and form")
)

// ValidationError wraps a payload schema violation so handlers can map it to
// a 400 without pattern-matching on messages.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Payload is implemented by every form kind's typed payload. Validate with
// strict=true enforces required fields; strict=false (drafts) still checks
// every present field against its schema but allows required fields to be
// absent.
type Payload interface {
	Validate(strict bool) error
}

// Kind describes one form kind to the engine.
type Kind struct {
	// Name is the URL segment and the renderer template path segment.
	Name string
	// Title is the human-readable form name used in document file names.
	Title string
	// IncludeResident makes the dispatcher join a resident snapshot into the
	// renderer payload.
	IncludeResident bool
}

// Record is the stored, kind-agnostic form of one assessment version. Payload
// holds the form-specific fields as JSON; the engine marshals/unmarshals the
// typed payload at its boundary.
type Record struct {
	ID             uuid.UUID       `json:"id"`
	FormKind       string          `json:"form_kind"`
	ResidentID     uuid.UUID       `json:"resident_id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	TeamID         uuid.UUID       `json:"team_id"`
	Status         Status          `json:"status"`
	SubmittedAt    *time.Time      `json:"submitted_at,omitempty"`
	CreatedBy      string          `json:"created_by"`
	LastModifiedBy string          `json:"last_modified_by"`
	PDFFileID      *string         `json:"pdf_file_id,omitempty"`
	PDFGeneratedAt *time.Time      `json:"pdf_generated_at,omitempty"`
	PDFStatus      PDFStatus       `json:"pdf_status,omitempty"`
	PDFError       *string         `json:"pdf_error,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Patch is a partial update applied by draft autosave and by the dispatcher's
// PDF linkage writes. Nil fields are left untouched; a pointer to the zero
// value clears the column.
type Patch struct {
	Payload        json.RawMessage
	LastModifiedBy *string
	Status         *Status
	SubmittedAt    *time.Time
	PDFFileID      *string
	PDFGeneratedAt *time.Time
	PDFStatus      *PDFStatus
	PDFError       *string
}
