package resident

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepo is a thread-safe ResidentRepository for tests and development.
type InMemoryRepo struct {
	mu        sync.RWMutex
	residents map[uuid.UUID]*Resident
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{residents: make(map[uuid.UUID]*Resident)}
}

func (r *InMemoryRepo) Create(_ context.Context, res *Resident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res.ID = uuid.New()
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	cp := *res
	r.residents[res.ID] = &cp
	return nil
}

func (r *InMemoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Resident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.residents[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *InMemoryRepo) Update(_ context.Context, res *Resident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.residents[res.ID]
	if !ok {
		return ErrNotFound
	}
	res.CreatedAt = existing.CreatedAt
	res.UpdatedAt = time.Now().UTC()
	cp := *res
	r.residents[res.ID] = &cp
	return nil
}

func (r *InMemoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.residents[id]; !ok {
		return ErrNotFound
	}
	delete(r.residents, id)
	return nil
}

func (r *InMemoryRepo) List(_ context.Context, limit, offset int) ([]*Resident, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Resident, 0, len(r.residents))
	for _, res := range r.residents {
		cp := *res
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].LastName != all[j].LastName {
			return all[i].LastName < all[j].LastName
		}
		return all[i].FirstName < all[j].FirstName
	})

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}
