// Package availability answers whether a resource is free for a window.
// It keeps no state of its own: every answer is derived from the booking
// ledger at call time.
package availability

import (
	"context"
	"sort"
	"time"

	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
	"github.com/nekogravitycat/pet-booking-backend/internal/interval"
)

// Window is a half-open [Start, End) range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Slot is an occupied window and the booking holding it.
type Slot struct {
	Window
	BookingID string
	Status    booking.Status
}

// Query asks whether ResourceID is free for [Start, End).
type Query struct {
	ResourceID string
	Start      time.Time
	End        time.Time
	ExcludeID  string
}

// Result is Available, or names the first conflicting booking.
type Result struct {
	Available  bool
	ConflictID string
}

// Record is the set of occupying windows on one resource, sorted by start.
type Record struct {
	ResourceID string
	Slots      []Slot
}

// NewRecord builds a record from ledger rows, keeping occupying bookings
// on resourceID only.
func NewRecord(resourceID string, bookings []*booking.Booking) *Record {
	rec := &Record{ResourceID: resourceID}
	for _, b := range bookings {
		if b.ResourceID != resourceID || !b.Status.IsOccupying() {
			continue
		}
		rec.Slots = append(rec.Slots, Slot{
			Window:    Window{Start: b.WindowStart, End: b.WindowEnd},
			BookingID: b.ID,
			Status:    b.Status,
		})
	}
	sort.Slice(rec.Slots, func(i, j int) bool {
		if rec.Slots[i].Start.Equal(rec.Slots[j].Start) {
			return rec.Slots[i].BookingID < rec.Slots[j].BookingID
		}
		return rec.Slots[i].Start.Before(rec.Slots[j].Start)
	})
	return rec
}

// Conflict returns the first slot overlapping [start, end) other than
// excludeID. Touching boundaries do not overlap.
func (r *Record) Conflict(start, end time.Time, excludeID string) (Slot, bool) {
	for _, s := range r.Slots {
		if s.BookingID == excludeID {
			continue
		}
		if interval.Overlaps(s.Start, s.End, start, end) {
			return s, true
		}
	}
	return Slot{}, false
}

// Index reads occupancy from the ledger.
type Index struct {
	repo booking.Repository
}

func NewIndex(repo booking.Repository) *Index {
	return &Index{repo: repo}
}

// Record loads the occupying windows on resourceID that intersect
// [from, to).
func (x *Index) Record(ctx context.Context, resourceID string, from, to time.Time) (*Record, error) {
	rows, err := x.repo.Find(ctx, booking.Query{
		ResourceID:  resourceID,
		Statuses:    booking.OccupyingStatuses,
		OverlapFrom: &from,
		OverlapTo:   &to,
	})
	if err != nil {
		return nil, err
	}
	return NewRecord(resourceID, rows), nil
}

func (x *Index) Check(ctx context.Context, q Query) (Result, error) {
	if !q.End.After(q.Start) {
		return Result{}, booking.ErrInvalidTimeRange
	}
	rec, err := x.Record(ctx, q.ResourceID, q.Start, q.End)
	if err != nil {
		return Result{}, err
	}
	if slot, ok := rec.Conflict(q.Start, q.End, q.ExcludeID); ok {
		return Result{ConflictID: slot.BookingID}, nil
	}
	return Result{Available: true}, nil
}

// Conflict adapts Check to the booking service.
func (x *Index) Conflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (string, error) {
	res, err := x.Check(ctx, Query{ResourceID: resourceID, Start: start, End: end, ExcludeID: excludeID})
	if err != nil {
		return "", err
	}
	return res.ConflictID, nil
}

// Free returns the free gaps on resourceID within [from, to).
func (x *Index) Free(ctx context.Context, resourceID string, from, to time.Time) (*Record, []Window, error) {
	if !to.After(from) {
		return nil, nil, booking.ErrInvalidTimeRange
	}
	rec, err := x.Record(ctx, resourceID, from, to)
	if err != nil {
		return nil, nil, err
	}
	occupied := make([]Window, len(rec.Slots))
	for i, s := range rec.Slots {
		occupied[i] = s.Window
	}
	return rec, FreeWindows(from, to, occupied), nil
}

// FreeWindows returns the gaps of [from, to) not covered by occupied.
// occupied may overlap and need not be sorted.
func FreeWindows(from, to time.Time, occupied []Window) []Window {
	if !to.After(from) {
		return nil
	}
	sorted := make([]Window, len(occupied))
	copy(sorted, occupied)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var free []Window
	cursor := from
	for _, w := range sorted {
		if !w.End.After(cursor) {
			continue
		}
		if !w.Start.Before(to) {
			break
		}
		if w.Start.After(cursor) {
			free = append(free, Window{Start: cursor, End: w.Start})
		}
		cursor = w.End
		if !cursor.Before(to) {
			return free
		}
	}
	if cursor.Before(to) {
		free = append(free, Window{Start: cursor, End: to})
	}
	return free
}
