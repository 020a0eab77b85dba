package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carehq/carehq/internal/platform/blobstore"
	"github.com/carehq/carehq/internal/platform/db"
)

// ResidentRef is the engine's view of a resident: enough to enforce tenant
// ownership and to embed a snapshot in the renderer payload.
type ResidentRef struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	TeamID         uuid.UUID
	Snapshot       json.RawMessage
}

// ResidentDirectory resolves residents for the engine. Implementations return
// ErrResidentNotFound for unknown ids.
type ResidentDirectory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*ResidentRef, error)
}

// SubmitRequest carries one submission or draft save for a form kind.
type SubmitRequest[P Payload] struct {
	OrganizationID uuid.UUID
	TeamID         uuid.UUID
	SavedAsDraft   bool
	Payload        P
}

// Engine owns the full record lifecycle for one form kind: draft upsert,
// submission, append-only versioning, review, deletion, and the handoff to
// the document dispatcher. Form packages never touch the store directly.
type Engine[P Payload] struct {
	kind       Kind
	store      Store
	residents  ResidentDirectory
	dispatcher *Dispatcher
	blobs      blobstore.BlobStore
	log        zerolog.Logger
}

// NewEngine builds an engine for one form kind. dispatcher may be nil, in
// which case submissions never schedule document generation.
func NewEngine[P Payload](kind Kind, store Store, residents ResidentDirectory, dispatcher *Dispatcher, blobs blobstore.BlobStore, log zerolog.Logger) *Engine[P] {
	return &Engine[P]{
		kind:       kind,
		store:      store,
		residents:  residents,
		dispatcher: dispatcher,
		blobs:      blobs,
		log:        log.With().Str("form_kind", kind.Name).Logger(),
	}
}

// Kind returns the form kind descriptor this engine serves.
func (e *Engine[P]) Kind() Kind { return e.kind }

func (e *Engine[P]) validate(p P, strict bool) (json.RawMessage, error) {
	if err := p.Validate(strict); err != nil {
		return nil, &ValidationError{Err: err}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", e.kind.Name, err)
	}
	return raw, nil
}

// resolveResident checks the resident exists and that the request's tenant
// fields agree with the resident's. Zero-value org/team ids inherit the
// resident's.
func (e *Engine[P]) resolveResident(ctx context.Context, residentID uuid.UUID, req *SubmitRequest[P]) (*ResidentRef, error) {
	ref, err := e.residents.Lookup(ctx, residentID)
	if err != nil {
		return nil, err
	}
	if req.OrganizationID == uuid.Nil {
		req.OrganizationID = ref.OrganizationID
	} else if req.OrganizationID != ref.OrganizationID {
		return nil, ErrTenantMismatch
	}
	if req.TeamID == uuid.Nil {
		req.TeamID = ref.TeamID
	}
	return ref, nil
}

// Submit stores a new submission (or delegates to SaveDraft when the request
// is a draft). A non-draft submission is immediately visible with
// pdf_status=pending and generation scheduled; it never waits on the
// renderer.
func (e *Engine[P]) Submit(ctx context.Context, residentID uuid.UUID, actor string, req SubmitRequest[P]) (*Record, error) {
	if req.SavedAsDraft {
		return e.SaveDraft(ctx, residentID, actor, req)
	}

	if _, err := e.resolveResident(ctx, residentID, &req); err != nil {
		return nil, err
	}
	raw, err := e.validate(req.Payload, true)
	if err != nil {
		return nil, err
	}

	// Submitting consumes any open draft for this resident and form: the
	// draft is pre-submission workspace, not audit material.
	if draft, err := e.store.FindDraft(ctx, e.kind.Name, residentID); err == nil {
		return e.promote(ctx, draft, actor, raw)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &Record{
		FormKind:       e.kind.Name,
		ResidentID:     residentID,
		OrganizationID: req.OrganizationID,
		TeamID:         req.TeamID,
		Status:         StatusSubmitted,
		SubmittedAt:    &now,
		CreatedBy:      actor,
		LastModifiedBy: actor,
		PDFStatus:      PDFStatusPending,
		Payload:        raw,
	}
	if err := e.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	e.schedule(ctx, rec)
	return rec, nil
}

// SaveDraft upserts the single draft for (resident, form kind). Draft
// validation is partial: present fields must match the schema but required
// fields may be absent.
func (e *Engine[P]) SaveDraft(ctx context.Context, residentID uuid.UUID, actor string, req SubmitRequest[P]) (*Record, error) {
	if _, err := e.resolveResident(ctx, residentID, &req); err != nil {
		return nil, err
	}
	raw, err := e.validate(req.Payload, false)
	if err != nil {
		return nil, err
	}

	if draft, err := e.store.FindDraft(ctx, e.kind.Name, residentID); err == nil {
		return e.patchDraft(ctx, draft.ID, actor, raw)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rec := &Record{
		FormKind:       e.kind.Name,
		ResidentID:     residentID,
		OrganizationID: req.OrganizationID,
		TeamID:         req.TeamID,
		Status:         StatusDraft,
		CreatedBy:      actor,
		LastModifiedBy: actor,
		Payload:        raw,
	}
	err = e.store.Insert(ctx, rec)
	if errors.Is(err, ErrDraftExists) {
		// Lost a race with a concurrent save; fold into the winner's draft.
		draft, ferr := e.store.FindDraft(ctx, e.kind.Name, residentID)
		if ferr != nil {
			return nil, ferr
		}
		return e.patchDraft(ctx, draft.ID, actor, raw)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update applies the versioning policy to an existing record:
//   - draft edits saved as draft patch the draft in place;
//   - submitting a draft promotes it in place (the draft id becomes the
//     submitted version);
//   - any edit of a submitted or reviewed record inserts a NEW version with
//     a fresh id and leaves the old record byte-for-byte untouched.
func (e *Engine[P]) Update(ctx context.Context, id uuid.UUID, actor string, req SubmitRequest[P]) (*Record, error) {
	rec, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Strictness follows the outcome, not the request flag: only an in-place
	// draft patch may carry a partial payload. Editing a submitted or
	// reviewed record always produces a submitted version, draft flag or not.
	inPlaceDraft := rec.Status == StatusDraft && req.SavedAsDraft
	raw, err := e.validate(req.Payload, !inPlaceDraft)
	if err != nil {
		return nil, err
	}

	if rec.Status == StatusDraft {
		if req.SavedAsDraft {
			return e.patchDraft(ctx, id, actor, raw)
		}
		return e.promote(ctx, rec, actor, raw)
	}

	now := time.Now().UTC()
	next := &Record{
		FormKind:       e.kind.Name,
		ResidentID:     rec.ResidentID,
		OrganizationID: rec.OrganizationID,
		TeamID:         rec.TeamID,
		Status:         StatusSubmitted,
		SubmittedAt:    &now,
		CreatedBy:      actor,
		LastModifiedBy: actor,
		PDFStatus:      PDFStatusPending,
		Payload:        raw,
	}
	if err := e.store.Insert(ctx, next); err != nil {
		return nil, err
	}
	e.schedule(ctx, next)
	return next, nil
}

func (e *Engine[P]) patchDraft(ctx context.Context, id uuid.UUID, actor string, raw json.RawMessage) (*Record, error) {
	if err := e.store.Patch(ctx, id, Patch{Payload: raw, LastModifiedBy: &actor}); err != nil {
		return nil, err
	}
	return e.store.Get(ctx, id)
}

func (e *Engine[P]) promote(ctx context.Context, draft *Record, actor string, raw json.RawMessage) (*Record, error) {
	now := time.Now().UTC()
	status := StatusSubmitted
	pdfStatus := PDFStatusPending
	err := e.store.Patch(ctx, draft.ID, Patch{
		Payload:        raw,
		LastModifiedBy: &actor,
		Status:         &status,
		SubmittedAt:    &now,
		PDFStatus:      &pdfStatus,
	})
	if err != nil {
		return nil, err
	}
	rec, err := e.store.Get(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	e.schedule(ctx, rec)
	return rec, nil
}

// schedule hands the record to the dispatcher, capturing the request's
// tenant so the background job can reopen a connection into the right schema.
func (e *Engine[P]) schedule(ctx context.Context, rec *Record) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.Schedule(e.kind, db.TenantFromContext(ctx), rec.ID)
}

// GetByID returns the record, or nil when it does not exist. Reads never
// raise for missing ids.
func (e *Engine[P]) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := e.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// ListByResident returns every version for the resident, newest first.
func (e *Engine[P]) ListByResident(ctx context.Context, residentID uuid.UUID) ([]*Record, error) {
	return e.store.ListByResident(ctx, e.kind.Name, residentID)
}

// Archived returns every version except the most recent. With zero or one
// version the archive is empty.
func (e *Engine[P]) Archived(ctx context.Context, residentID uuid.UUID) ([]*Record, error) {
	all, err := e.store.ListByResident(ctx, e.kind.Name, residentID)
	if err != nil {
		return nil, err
	}
	if len(all) <= 1 {
		return nil, nil
	}
	return all[1:], nil
}

// Delete removes exactly one version. Other versions, and any generated
// document, are unaffected.
func (e *Engine[P]) Delete(ctx context.Context, id uuid.UUID) error {
	return e.store.Delete(ctx, id)
}

// Review marks a submitted record as reviewed. The transition is terminal
// and only valid from the submitted state.
func (e *Engine[P]) Review(ctx context.Context, id uuid.UUID, actor string) (*Record, error) {
	rec, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusSubmitted {
		return nil, ErrNotSubmitted
	}
	status := StatusReviewed
	if err := e.store.Patch(ctx, id, Patch{Status: &status, LastModifiedBy: &actor}); err != nil {
		return nil, err
	}
	return e.store.Get(ctx, id)
}

// PDFURL returns a fetchable URL for the record's generated document, or ""
// when no document has been generated yet.
func (e *Engine[P]) PDFURL(ctx context.Context, id uuid.UUID) (string, error) {
	rec, err := e.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if rec.PDFFileID == nil {
		return "", nil
	}
	url, err := e.blobs.URL(ctx, *rec.PDFFileID)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			e.log.Warn().Str("record_id", id.String()).Str("file_id", *rec.PDFFileID).
				Msg("record references a missing document blob")
			return "", nil
		}
		return "", err
	}
	return url, nil
}
