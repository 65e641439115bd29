package resource

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps resources in process memory. It backs tests and
// local runs without Postgres.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Resource
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]*Resource),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Create(_ context.Context, res *Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = r.now()
	}
	cp := *res
	r.items[res.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context, filter Filter) ([]*Resource, int, error) {
	r.mu.RLock()
	var matched []*Resource
	for _, res := range r.items {
		if filter.OwnerID != "" && res.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Category != "" && res.Category != filter.Category {
			continue
		}
		cp := *res
		matched = append(matched, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return nil, total, nil
	}
	end := min(start+filter.PageSize, total)
	return matched[start:end], total, nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]*Resource, error) {
	r.mu.RLock()
	var list []*Resource
	for _, res := range r.items {
		if res.OwnerID == ownerID {
			cp := *res
			list = append(list, &cp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}
