package assessment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a thread-safe Store for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
	seq     map[uuid.UUID]int64
	nextSeq int64
}

// NewInMemoryStore returns an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[uuid.UUID]*Record),
		seq:     make(map[uuid.UUID]int64),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Status == StatusDraft {
		for _, existing := range s.records {
			if existing.FormKind == rec.FormKind && existing.ResidentID == rec.ResidentID && existing.Status == StatusDraft {
				return ErrDraftExists
			}
		}
	}

	rec.ID = uuid.New()
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	s.records[rec.ID] = &cp
	s.nextSeq++
	s.seq[rec.ID] = s.nextSeq
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *InMemoryStore) Patch(_ context.Context, id uuid.UUID, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}

	if p.Payload != nil {
		rec.Payload = append([]byte(nil), p.Payload...)
	}
	if p.LastModifiedBy != nil {
		rec.LastModifiedBy = *p.LastModifiedBy
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		rec.SubmittedAt = &t
	}
	if p.PDFFileID != nil {
		if *p.PDFFileID == "" {
			rec.PDFFileID = nil
		} else {
			v := *p.PDFFileID
			rec.PDFFileID = &v
		}
	}
	if p.PDFGeneratedAt != nil {
		t := *p.PDFGeneratedAt
		rec.PDFGeneratedAt = &t
	}
	if p.PDFStatus != nil {
		rec.PDFStatus = *p.PDFStatus
	}
	if p.PDFError != nil {
		if *p.PDFError == "" {
			rec.PDFError = nil
		} else {
			v := *p.PDFError
			rec.PDFError = &v
		}
	}
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	delete(s.seq, id)
	return nil
}

func (s *InMemoryStore) ListByResident(_ context.Context, formKind string, residentID uuid.UUID) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, rec := range s.records {
		if rec.FormKind == formKind && rec.ResidentID == residentID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	// Newest first; the insertion sequence breaks same-instant ties.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out, nil
}

func (s *InMemoryStore) FindDraft(_ context.Context, formKind string, residentID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.FormKind == formKind && rec.ResidentID == residentID && rec.Status == StatusDraft {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}
