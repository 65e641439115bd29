package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
)

// Rolling windows, in days or points.
const (
	statsWindowDays = 30
	seriesPoints    = 12
	daysPerWeek     = 7
	recentLimit     = 10
)

// Point is one labelled value of a series.
type Point struct {
	Label string
	Value float64
}

// StatusCount is the number of bookings in one status.
type StatusCount struct {
	Status booking.Status
	Count  int
}

type Stats struct {
	// Active counts bookings in an occupying status.
	Active    int
	Completed int
	// Upcoming counts PENDING and CONFIRMED bookings whose window starts today.
	Upcoming int
	// Total counts every booking that was not cancelled or expired.
	Total int
	// ActionRequired counts bookings waiting on the owner or customer:
	// PENDING, LATE and REQUEST_TO_COMPLETE.
	ActionRequired int
	// AvgOccupancyRate is a percentage over the last 30 days.
	AvgOccupancyRate float64
	// AvgStayNights is the mean night count of completed bookings.
	AvgStayNights float64
	TotalRevenue  decimal.Decimal
}

// Snapshot is a read-time projection of one owner's ledger.
type Snapshot struct {
	OwnerID       string
	GeneratedAt   time.Time
	ResourceCount int
	Stats         Stats
	ByStatus      []StatusCount
	// MonthlyTrend has one point per calendar month, oldest first.
	MonthlyTrend []Point
	// WeeklyOccupancy has one point per fully elapsed Monday-Sunday week,
	// oldest first. Empty when the owner has no resources.
	WeeklyOccupancy      []Point
	CategoryDistribution []Point
	// RecentBookings are the newest bookings by creation time, any status.
	RecentBookings []*booking.Booking
}

// EmptySnapshot is returned for owners that cannot have any data.
func EmptySnapshot(ownerID string, now time.Time) *Snapshot {
	return &Snapshot{
		OwnerID:              ownerID,
		GeneratedAt:          now,
		Stats:                Stats{TotalRevenue: decimal.Zero},
		ByStatus:             []StatusCount{},
		MonthlyTrend:         []Point{},
		WeeklyOccupancy:      []Point{},
		CategoryDistribution: []Point{},
		RecentBookings:       []*booking.Booking{},
	}
}

// Amount is a count of bookings and their summed grand total.
type Amount struct {
	Count int
	Total decimal.Decimal
}

// Finance splits an owner's revenue into money already released (completed
// bookings) and money still pending payout (confirmed or in progress).
type Finance struct {
	OwnerID       string
	GeneratedAt   time.Time
	Released      Amount
	PendingPayout Amount
}

// PayoutStatuses are the statuses whose totals are pending payout.
var PayoutStatuses = []booking.Status{
	booking.StatusConfirmed,
	booking.StatusInProgress,
	booking.StatusLate,
	booking.StatusRequestToComplete,
}
