package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryRepository is an in-process ledger with the same semantics as the
// Postgres one, including the occupancy exclusion and version checks. It
// backs tests and local runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Booking
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]*Booking),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.Status.IsOccupying() {
		if other := r.overlapping(b); other != nil {
			return &ConflictError{ResourceID: b.ResourceID, BookingID: other.ID}
		}
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := r.now()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Version = 1

	cp := *b
	r.items[b.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.RLock()
	var matched []*Booking
	for _, b := range r.items {
		if filter.OwnerID != "" && b.ResourceOwnerID != filter.OwnerID {
			continue
		}
		if filter.CustomerID != "" && b.CustomerID != filter.CustomerID {
			continue
		}
		if filter.ResourceID != "" && b.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.StartTime != nil && b.WindowStart.Before(*filter.StartTime) {
			continue
		}
		if filter.EndTime != nil && b.WindowStart.After(*filter.EndTime) {
			continue
		}
		cp := *b
		matched = append(matched, &cp)
	}
	r.mu.RUnlock()

	asc := strings.EqualFold(filter.SortOrder, "ASC")
	less := func(a, b *Booking) bool {
		if filter.SortBy == "created_at" && !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if !a.WindowStart.Equal(b.WindowStart) {
			return a.WindowStart.Before(b.WindowStart)
		}
		return a.ID < b.ID
	}
	sort.Slice(matched, func(i, j int) bool {
		if asc {
			return less(matched[i], matched[j])
		}
		return less(matched[j], matched[i])
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

func (r *MemoryRepository) Find(_ context.Context, q Query) ([]*Booking, error) {
	r.mu.RLock()
	var out []*Booking
	for _, b := range r.items {
		if q.Matches(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].WindowStart.Equal(out[j].WindowStart) {
			return out[i].ID < out[j].ID
		}
		return out[i].WindowStart.Before(out[j].WindowStart)
	})
	return out, nil
}

func (r *MemoryRepository) Summarize(ctx context.Context, q Query) (Summary, error) {
	list, err := r.Find(ctx, q)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{GrandTotal: decimal.Zero}
	for _, b := range list {
		s.Count++
		s.GrandTotal = s.GrandTotal.Add(b.GrandTotal)
	}
	return s, nil
}

func (r *MemoryRepository) Update(_ context.Context, b *Booking, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[b.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrConcurrentModification
	}
	if b.Status.IsOccupying() {
		if other := r.overlapping(b); other != nil {
			return &ConflictError{ResourceID: b.ResourceID, BookingID: other.ID}
		}
	}

	b.Version = expectedVersion + 1
	b.UpdatedAt = r.now()
	cp := *b
	r.items[b.ID] = &cp
	return nil
}

// overlapping mirrors the exclusion constraint of the bookings table.
// Callers hold mu.
func (r *MemoryRepository) overlapping(b *Booking) *Booking {
	q := Query{
		ResourceID:  b.ResourceID,
		Statuses:    OccupyingStatuses,
		ExcludeID:   b.ID,
		OverlapFrom: &b.WindowStart,
		OverlapTo:   &b.WindowEnd,
	}
	for _, other := range r.items {
		if q.Matches(other) {
			return other
		}
	}
	return nil
}
