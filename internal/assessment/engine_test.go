package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carehq/carehq/internal/platform/blobstore"
)

var noteLevels = map[string]bool{"low": true, "medium": true, "high": true}

// notePayload is a minimal form payload exercising required-field and enum
// validation.
type notePayload struct {
	Summary string `json:"summary,omitempty"`
	Level   string `json:"level,omitempty"`
}

func (p notePayload) Validate(strict bool) error {
	if strict && p.Summary == "" {
		return fmt.Errorf("summary is required")
	}
	if p.Level != "" && !noteLevels[p.Level] {
		return fmt.Errorf("invalid level: %s", p.Level)
	}
	return nil
}

var noteKind = Kind{Name: "note", Title: "Care Note", IncludeResident: true}

type fakeDirectory struct {
	refs map[uuid.UUID]*ResidentRef
}

func (f *fakeDirectory) Lookup(_ context.Context, id uuid.UUID) (*ResidentRef, error) {
	ref, ok := f.refs[id]
	if !ok {
		return nil, ErrResidentNotFound
	}
	return ref, nil
}

// recordingScheduler captures scheduled jobs without running them.
type recordingScheduler struct {
	jobs []func()
}

func (s *recordingScheduler) RunAfter(_ time.Duration, job func()) { s.jobs = append(s.jobs, job) }
func (s *recordingScheduler) Drain(context.Context) error          { return nil }

type engineFixture struct {
	engine    *Engine[notePayload]
	store     *InMemoryStore
	blobs     *blobstore.InMemoryBlobStore
	scheduler *recordingScheduler
	resident  uuid.UUID
	org       uuid.UUID
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	residentID := uuid.New()
	orgID := uuid.New()
	teamID := uuid.New()
	dir := &fakeDirectory{refs: map[uuid.UUID]*ResidentRef{
		residentID: {
			ID:             residentID,
			OrganizationID: orgID,
			TeamID:         teamID,
			Snapshot:       json.RawMessage(`{"first_name":"Ada"}`),
		},
	}}

	store := NewInMemoryStore()
	blobs := blobstore.NewInMemoryBlobStore("/api/v1/documents")
	scheduler := &recordingScheduler{}
	dispatcher := NewDispatcher(DispatcherConfig{
		Store:     store,
		Residents: dir,
		Blobs:     blobs,
		Scheduler: scheduler,
		Logger:    zerolog.Nop(),
	})

	return &engineFixture{
		engine:    NewEngine[notePayload](noteKind, store, dir, dispatcher, blobs, zerolog.Nop()),
		store:     store,
		blobs:     blobs,
		scheduler: scheduler,
		resident:  residentID,
		org:       orgID,
	}
}

func (f *engineFixture) submit(t *testing.T, summary string) *Record {
	t.Helper()
	rec, err := f.engine.Submit(context.Background(), f.resident, "nurse@home.test",
		SubmitRequest[notePayload]{Payload: notePayload{Summary: summary}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return rec
}

func TestSubmitCreatesSubmittedRecord(t *testing.T) {
	f := newEngineFixture(t)

	rec := f.submit(t, "settled well overnight")

	if rec.ID == uuid.Nil {
		t.Fatal("expected an assigned id")
	}
	if rec.Status != StatusSubmitted {
		t.Errorf("status = %q, want %q", rec.Status, StatusSubmitted)
	}
	if rec.SubmittedAt == nil {
		t.Error("submitted_at not set")
	}
	if rec.PDFStatus != PDFStatusPending {
		t.Errorf("pdf_status = %q, want pending", rec.PDFStatus)
	}
	if rec.OrganizationID != f.org {
		t.Errorf("organization not inherited from resident")
	}
	if rec.CreatedBy != "nurse@home.test" || rec.LastModifiedBy != "nurse@home.test" {
		t.Errorf("actor fields = %q/%q", rec.CreatedBy, rec.LastModifiedBy)
	}
	if len(f.scheduler.jobs) != 1 {
		t.Errorf("scheduled jobs = %d, want 1", len(f.scheduler.jobs))
	}
}

func TestSubmitUnknownResident(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Submit(context.Background(), uuid.New(), "nurse@home.test",
		SubmitRequest[notePayload]{Payload: notePayload{Summary: "x"}})
	if !errors.Is(err, ErrResidentNotFound) {
		t.Fatalf("err = %v, want ErrResidentNotFound", err)
	}
	if items, _ := f.engine.ListByResident(context.Background(), f.resident); len(items) != 0 {
		t.Error("no record should have been written")
	}
}

func TestSubmitTenantMismatch(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Submit(context.Background(), f.resident, "nurse@home.test",
		SubmitRequest[notePayload]{
			OrganizationID: uuid.New(),
			Payload:        notePayload{Summary: "x"},
		})
	if !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("err = %v, want ErrTenantMismatch", err)
	}
	if items, _ := f.engine.ListByResident(context.Background(), f.resident); len(items) != 0 {
		t.Error("no record should have been written")
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	var ve *ValidationError

	// Strict submission requires the summary.
	_, err := f.engine.Submit(ctx, f.resident, "nurse@home.test",
		SubmitRequest[notePayload]{Payload: notePayload{}})
	if !errors.As(err, &ve) {
		t.Fatalf("missing required field: err = %v, want ValidationError", err)
	}

	// The same payload is a legal draft.
	if _, err := f.engine.SaveDraft(ctx, f.resident, "nurse@home.test",
		SubmitRequest[notePayload]{SavedAsDraft: true, Payload: notePayload{}}); err != nil {
		t.Fatalf("partial draft rejected: %v", err)
	}

	// Enum violations are rejected even in drafts.
	_, err = f.engine.SaveDraft(ctx, f.resident, "nurse@home.test",
		SubmitRequest[notePayload]{SavedAsDraft: true, Payload: notePayload{Level: "extreme"}})
	if !errors.As(err, &ve) {
		t.Fatalf("bad enum in draft: err = %v, want ValidationError", err)
	}
}

func TestDraftUpsert(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.SaveDraft(ctx, f.resident, "nurse@home.test",
		SubmitRequest[notePayload]{SavedAsDraft: true, Payload: notePayload{Summary: "v1"}})
	if err != nil {
		t.Fatalf("first draft: %v", err)
	}
	second, err := f.engine.SaveDraft(ctx, f.resident, "carer@home.test",
		SubmitRequest[notePayload]{SavedAsDraft: true, Payload: notePayload{Summary: "v2"}})
	if err != nil {
		t.Fatalf("second draft: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("draft saves created two records: %s / %s", first.ID, second.ID)
	}
	var p notePayload
	if err := json.Unmarshal(second.Payload, &p); err != nil || p.Summary != "v2" {
		t.Errorf("draft payload = %+v (err %v), want v2", p, err)
	}
	if second.LastModifiedBy != "carer@home.test" {
		t.Errorf("last_modified_by = %q", second.LastModifiedBy)
	}
	if second.CreatedBy != "nurse@home.test" {
		t.Errorf("created_by changed on draft patch: %q", second.CreatedBy)
	}
	if items, _ := f.engine.ListByResident(ctx, f.resident); len(items) != 1 {
		t.Errorf("records = %d, want 1", len(items))
	}
}

func TestSubmitConsumesDraft(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	draft, err := f.engine.SaveDraft(ctx, f.resident, "nurse@home.test",
		SubmitRequest[notePayload]{SavedAsDraft: true, Payload: notePayload{Summary: "wip"}})
	if err != nil {
		t.Fatalf("draft: %v", err)
	}

	rec, err := f.engine.Submit(ctx, f.resident, "nurse@home.test",
		SubmitRequest[notePayload]{Payload: notePayload{Summary: "final"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if rec.ID != draft.ID {
		t.Errorf("submit did not promote the draft: %s vs %s", rec.ID, draft.ID)
	}
	if rec.Status != StatusSubmitted || rec.SubmittedAt == nil {
		t.Errorf("promoted record: status=%q submitted_at=%v", rec.Status, rec.SubmittedAt)
	}
	if rec.PDFStatus != PDFStatusPending {
		t.Errorf("pdf_status = %q, want pending", rec.PDFStatus)
	}
	if len(f.scheduler.jobs) != 1 {
		t.Errorf("scheduled jobs = %d, want 1", len(f.scheduler.jobs))
	}
}

func TestUpdateInsertsNewVersion(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	a := f.submit(t, "version A")
	b, err := f.engine.Update(ctx, a.ID, "senior@home.test",
		SubmitRequest[notePayload]{Payload: notePayload{Summary: "version B"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if b.ID == a.ID {
		t.Fatal("update of a submitted record must mint a new id")
	}

	// The original version is byte-for-byte untouched.
	got, err := f.engine.GetByID(ctx, a.ID)
	if err != nil || got == nil {
		t.Fatalf("get original: %v", err)
	}
	var p notePayload
	if err := json.Unmarshal(got.Payload, &p); err != nil || p.Summary != "version A" {
		t.Errorf("original payload changed: %+v", p)
	}
	if got.LastModifiedBy != "nurse@home.test" {
		t.Errorf("original actor changed: %q", got.LastModifiedBy)
	}

	items, err := f.engine.ListByResident(ctx, f.resident)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != b.ID || items[1].ID != a.ID {
		t.Errorf("list order wrong: got %d items", len(items))
	}
}

func TestUpdateSubmittedRejectsPartialPayload(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	rec := f.submit(t, "complete")

	// A submitted record cannot revert to a draft: the edit would mint a new
	// submitted version, so the payload must satisfy the full schema even
	// when the caller flags it as a draft.
	var ve *ValidationError
	_, err := f.engine.Update(ctx, rec.ID, "nurse@home.test",
		SubmitRequest[notePayload]{SavedAsDraft: true, Payload: notePayload{}})
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	items, _ := f.engine.ListByResident(ctx, f.resident)
	if len(items) != 1 || items[0].ID != rec.ID {
		t.Fatalf("rejected update wrote records: %d versions", len(items))
	}

	// Same policy once reviewed.
	if _, err := f.engine.Review(ctx, rec.ID, "manager@home.test"); err != nil {
		t.Fatalf("review: %v", err)
	}
	_, err = f.engine.Update(ctx, rec.ID, "nurse@home.test",
		SubmitRequest[notePayload]{SavedAsDraft: true, Payload: notePayload{}})
	if !errors.As(err, &ve) {
		t.Fatalf("reviewed: err = %v, want ValidationError", err)
	}

	// A complete payload with the draft flag still versions normally.
	next, err := f.engine.Update(ctx, rec.ID, "nurse@home.test",
		SubmitRequest[notePayload]{SavedAsDraft: true, Payload: notePayload{Summary: "complete v2"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if next.ID == rec.ID || next.Status != StatusSubmitted {
		t.Errorf("new version: id=%s status=%q", next.ID, next.Status)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Update(context.Background(), uuid.New(), "nurse@home.test",
		SubmitRequest[notePayload]{Payload: notePayload{Summary: "x"}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestArchivedExcludesNewest(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	a := f.submit(t, "A")
	if arch, _ := f.engine.Archived(ctx, f.resident); len(arch) != 0 {
		t.Fatalf("archive with one version = %d items, want 0", len(arch))
	}

	b, err := f.engine.Update(ctx, a.ID, "nurse@home.test",
		SubmitRequest[notePayload]{Payload: notePayload{Summary: "B"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	arch, err := f.engine.Archived(ctx, f.resident)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(arch) != 1 || arch[0].ID != a.ID {
		t.Fatalf("archive = %d items, want exactly the superseded version", len(arch))
	}
	if arch[0].ID == b.ID {
		t.Error("archive contains the newest version")
	}
}

func TestReviewTransitions(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	rec := f.submit(t, "to review")
	reviewed, err := f.engine.Review(ctx, rec.ID, "manager@home.test")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != StatusReviewed {
		t.Errorf("status = %q, want reviewed", reviewed.Status)
	}

	// Terminal: cannot review twice.
	if _, err := f.engine.Review(ctx, rec.ID, "manager@home.test"); !errors.Is(err, ErrNotSubmitted) {
		t.Errorf("second review: err = %v, want ErrNotSubmitted", err)
	}

	draft, _ := f.engine.SaveDraft(ctx, f.resident, "nurse@home.test",
		SubmitRequest[notePayload]{SavedAsDraft: true, Payload: notePayload{}})
	if _, err := f.engine.Review(ctx, draft.ID, "manager@home.test"); !errors.Is(err, ErrNotSubmitted) {
		t.Errorf("review draft: err = %v, want ErrNotSubmitted", err)
	}
}

func TestDeleteRemovesOneVersion(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	a := f.submit(t, "A")
	b, _ := f.engine.Update(ctx, a.ID, "nurse@home.test",
		SubmitRequest[notePayload]{Payload: notePayload{Summary: "B"}})

	if err := f.engine.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, _ := f.engine.ListByResident(ctx, f.resident)
	if len(items) != 1 || items[0].ID != b.ID {
		t.Errorf("remaining versions wrong after delete")
	}

	if err := f.engine.Delete(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing: err = %v, want ErrNotFound", err)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	f := newEngineFixture(t)

	rec, err := f.engine.GetByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil for a missing id")
	}
}

func TestPDFURL(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	rec := f.submit(t, "doc")

	url, err := f.engine.PDFURL(ctx, rec.ID)
	if err != nil {
		t.Fatalf("pdf url: %v", err)
	}
	if url != "" {
		t.Fatalf("url before generation = %q, want empty", url)
	}

	meta, err := f.blobs.Store(ctx, "Care Note.pdf", "application/pdf", strings.NewReader("%PDF-1.7 test"))
	if err != nil {
		t.Fatalf("store blob: %v", err)
	}
	status := PDFStatusSucceeded
	if err := f.store.Patch(ctx, rec.ID, Patch{PDFFileID: &meta.ID, PDFStatus: &status}); err != nil {
		t.Fatalf("patch: %v", err)
	}

	url, err = f.engine.PDFURL(ctx, rec.ID)
	if err != nil {
		t.Fatalf("pdf url: %v", err)
	}
	if url == "" {
		t.Fatal("expected a url after generation")
	}
}
