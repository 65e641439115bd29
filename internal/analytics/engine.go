// Package analytics derives occupancy and revenue figures from the booking
// ledger on demand. Nothing is cached: every report is a fresh scan.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
	"github.com/nekogravitycat/pet-booking-backend/internal/interval"
	"github.com/nekogravitycat/pet-booking-backend/internal/resource"
)

// Ledger is the read-only view of the booking ledger the engine needs.
type Ledger interface {
	Find(ctx context.Context, q booking.Query) ([]*booking.Booking, error)
	Summarize(ctx context.Context, q booking.Query) (booking.Summary, error)
}

// Catalog enumerates an owner's resources and category labels.
type Catalog interface {
	Count(ctx context.Context, ownerID string) (int, error)
	Categories(ctx context.Context, ownerID string) ([]resource.CategoryLabel, error)
	CategoryIndex(ctx context.Context, ownerID string) (map[string]resource.Category, error)
}

type Service interface {
	Snapshot(ctx context.Context, ownerID string, now time.Time) (*Snapshot, error)
	Finance(ctx context.Context, ownerID string, now time.Time) (*Finance, error)
}

type engine struct {
	ledger  Ledger
	catalog Catalog
	loc     *time.Location
}

// NewService builds the engine. loc is the operating timezone used for
// day, week and month boundaries; nil means UTC.
func NewService(ledger Ledger, catalog Catalog, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &engine{ledger: ledger, catalog: catalog, loc: loc}
}

func validOwner(ownerID string) bool {
	return uuid.Validate(ownerID) == nil
}

func (e *engine) Snapshot(ctx context.Context, ownerID string, now time.Time) (*Snapshot, error) {
	now = now.In(e.loc)
	if !validOwner(ownerID) {
		return EmptySnapshot(ownerID, now), nil
	}

	resourceCount, err := e.catalog.Count(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count resources: %w", err)
	}
	categories, err := e.catalog.Categories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categoryOf, err := e.catalog.CategoryIndex(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("index categories: %w", err)
	}

	// One scan so every figure reflects the same ledger state.
	bookings, err := e.ledger.Find(ctx, booking.Query{OwnerID: ownerID})
	if err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}
	for _, b := range bookings {
		if b.WindowEnd.Before(b.WindowStart) {
			return nil, &booking.InvariantError{BookingID: b.ID, Detail: "negative stay length"}
		}
	}

	snap := &Snapshot{
		OwnerID:       ownerID,
		GeneratedAt:   now,
		ResourceCount: resourceCount,
	}

	if snap.Stats, err = e.stats(bookings, resourceCount, now); err != nil {
		return nil, err
	}
	snap.ByStatus = byStatus(bookings)
	snap.MonthlyTrend = e.monthlyTrend(bookings, now)
	if snap.WeeklyOccupancy, err = e.weeklyOccupancy(bookings, resourceCount, now); err != nil {
		return nil, err
	}
	snap.CategoryDistribution = e.categoryDistribution(bookings, categories, categoryOf, now)
	snap.RecentBookings = recentBookings(bookings, recentLimit)

	return snap, nil
}

func (e *engine) stats(bookings []*booking.Booking, resourceCount int, now time.Time) (Stats, error) {
	st := Stats{TotalRevenue: decimal.Zero}
	today := interval.DayStart(now, e.loc)
	rangeStart := interval.DayStart(now.AddDate(0, 0, -statsWindowDays), e.loc)

	occupiedNights := 0
	completedNights := 0
	for _, b := range bookings {
		if b.Status.IsOccupying() {
			st.Active++
		}
		switch b.Status {
		case booking.StatusPending, booking.StatusLate, booking.StatusRequestToComplete:
			st.ActionRequired++
		}
		if (b.Status == booking.StatusPending || b.Status == booking.StatusConfirmed) &&
			interval.DayStart(b.WindowStart, e.loc).Equal(today) {
			st.Upcoming++
		}
		if b.Status == booking.StatusCompleted {
			st.Completed++
			completedNights += interval.NightsBetween(b.WindowStart, b.WindowEnd, e.loc)
		}
		if !b.Status.IsCounted() {
			continue
		}
		st.Total++
		st.TotalRevenue = st.TotalRevenue.Add(b.GrandTotal)

		n := interval.OccupiedNightsInRange(b.WindowStart, b.WindowEnd, rangeStart, now, e.loc)
		if n < 0 {
			return Stats{}, &booking.InvariantError{BookingID: b.ID, Detail: "negative occupied nights"}
		}
		occupiedNights += n
	}

	if available := resourceCount * statsWindowDays; available > 0 {
		st.AvgOccupancyRate = round2(float64(occupiedNights) / float64(available) * 100)
	}
	if st.Completed > 0 {
		st.AvgStayNights = round2(float64(completedNights) / float64(st.Completed))
	}
	return st, nil
}

// recentBookings returns up to limit bookings, newest first.
func recentBookings(bookings []*booking.Booking, limit int) []*booking.Booking {
	out := make([]*booking.Booking, len(bookings))
	copy(out, bookings)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func byStatus(bookings []*booking.Booking) []StatusCount {
	counts := make(map[booking.Status]int, len(booking.AllStatuses))
	for _, b := range bookings {
		counts[b.Status]++
	}
	out := make([]StatusCount, len(booking.AllStatuses))
	for i, s := range booking.AllStatuses {
		out[i] = StatusCount{Status: s, Count: counts[s]}
	}
	return out
}

// seriesStart is the first day of the month eleven months before now.
func (e *engine) seriesStart(now time.Time) time.Time {
	return interval.MonthStart(now, e.loc).AddDate(0, -(seriesPoints - 1), 0)
}

func (e *engine) monthlyTrend(bookings []*booking.Booking, now time.Time) []Point {
	first := e.seriesStart(now)
	points := make([]Point, seriesPoints)
	bounds := make([]time.Time, seriesPoints+1)
	for i := 0; i <= seriesPoints; i++ {
		bounds[i] = first.AddDate(0, i, 0)
	}
	for i := range points {
		points[i].Label = bounds[i].Format("Jan 2006")
	}

	for _, b := range bookings {
		if !b.Status.IsCounted() {
			continue
		}
		start := b.WindowStart.In(e.loc)
		for i := 0; i < seriesPoints; i++ {
			if !start.Before(bounds[i]) && start.Before(bounds[i+1]) {
				points[i].Value++
				break
			}
		}
	}
	return points
}

func (e *engine) weeklyOccupancy(bookings []*booking.Booking, resourceCount int, now time.Time) ([]Point, error) {
	if resourceCount == 0 {
		return []Point{}, nil
	}

	// The current week has not elapsed; the series ends the Sunday before.
	first := interval.WeekStart(now, e.loc).AddDate(0, 0, -daysPerWeek*seriesPoints)
	available := float64(resourceCount * daysPerWeek)

	points := make([]Point, seriesPoints)
	for i := range points {
		weekStart := first.AddDate(0, 0, daysPerWeek*i)
		weekEnd := weekStart.AddDate(0, 0, daysPerWeek)

		occupied := 0
		for _, b := range bookings {
			if !b.Status.IsCounted() {
				continue
			}
			n := interval.OccupiedNightsInRange(b.WindowStart, b.WindowEnd, weekStart, weekEnd, e.loc)
			if n < 0 {
				return nil, &booking.InvariantError{BookingID: b.ID, Detail: "negative occupied nights"}
			}
			occupied += n
		}
		points[i] = Point{
			Label: fmt.Sprintf("Week %d", i+1),
			Value: round2(float64(occupied) / available * 100),
		}
	}
	return points, nil
}

func (e *engine) categoryDistribution(
	bookings []*booking.Booking,
	categories []resource.CategoryLabel,
	categoryOf map[string]resource.Category,
	now time.Time,
) []Point {
	first := e.seriesStart(now)
	counts := make(map[resource.Category]int, len(categories))
	for _, b := range bookings {
		if !b.Status.IsCounted() || b.WindowStart.Before(first) {
			continue
		}
		if cat, ok := categoryOf[b.ResourceID]; ok {
			counts[cat]++
		}
	}

	points := make([]Point, len(categories))
	for i, c := range categories {
		points[i] = Point{Label: c.Label, Value: float64(counts[c.Category])}
	}
	return points
}

func (e *engine) Finance(ctx context.Context, ownerID string, now time.Time) (*Finance, error) {
	fin := &Finance{
		OwnerID:       ownerID,
		GeneratedAt:   now.In(e.loc),
		Released:      Amount{Total: decimal.Zero},
		PendingPayout: Amount{Total: decimal.Zero},
	}
	if !validOwner(ownerID) {
		return fin, nil
	}

	released, err := e.ledger.Summarize(ctx, booking.Query{
		OwnerID:  ownerID,
		Statuses: []booking.Status{booking.StatusCompleted},
	})
	if err != nil {
		return nil, fmt.Errorf("summarize released: %w", err)
	}
	pending, err := e.ledger.Summarize(ctx, booking.Query{
		OwnerID:  ownerID,
		Statuses: PayoutStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize pending payout: %w", err)
	}

	fin.Released = Amount{Count: released.Count, Total: released.GrandTotal}
	fin.PendingPayout = Amount{Count: pending.Count, Total: pending.GrandTotal}
	return fin, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
