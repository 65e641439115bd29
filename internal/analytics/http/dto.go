package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/pet-booking-backend/internal/analytics"
)

// SeriesResponse is the chart shape dashboards consume.
type SeriesResponse struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

func newSeries(points []analytics.Point) SeriesResponse {
	s := SeriesResponse{
		Labels: make([]string, len(points)),
		Data:   make([]float64, len(points)),
	}
	for i, p := range points {
		s.Labels[i] = p.Label
		s.Data[i] = p.Value
	}
	return s
}

type StatsResponse struct {
	TotalBookings     int             `json:"total_bookings"`
	ActiveBookings    int             `json:"active_bookings"`
	CompletedBookings int             `json:"completed_bookings"`
	UpcomingBookings  int             `json:"upcoming_bookings"`
	ActionRequired    int             `json:"action_required"`
	AvgOccupancyRate  float64         `json:"avg_occupancy_rate"`
	AvgStayNights     float64         `json:"avg_stay_nights"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
}

type ChartsResponse struct {
	MonthlyBookingTrend  SeriesResponse `json:"monthly_booking_trend"`
	WeeklyOccupancyRate  SeriesResponse `json:"weekly_occupancy_rate"`
	CategoryDistribution SeriesResponse `json:"category_distribution"`
}

type RecentBookingResponse struct {
	ID          string          `json:"id"`
	ResourceID  string          `json:"resource_id"`
	CustomerID  string          `json:"customer_id"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	Status      string          `json:"status"`
	StatusLabel string          `json:"status_label"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SnapshotResponse struct {
	OwnerID        string                  `json:"owner_id"`
	GeneratedAt    time.Time               `json:"generated_at"`
	ResourceCount  int                     `json:"resource_count"`
	Stats          StatsResponse           `json:"stats"`
	ByStatus       map[string]int          `json:"by_status"`
	Charts         ChartsResponse          `json:"charts"`
	RecentBookings []RecentBookingResponse `json:"recent_bookings"`
}

func NewSnapshotResponse(s *analytics.Snapshot) SnapshotResponse {
	byStatus := make(map[string]int, len(s.ByStatus))
	for _, sc := range s.ByStatus {
		byStatus[string(sc.Status)] = sc.Count
	}
	recent := make([]RecentBookingResponse, len(s.RecentBookings))
	for i, b := range s.RecentBookings {
		recent[i] = RecentBookingResponse{
			ID:          b.ID,
			ResourceID:  b.ResourceID,
			CustomerID:  b.CustomerID,
			WindowStart: b.WindowStart,
			WindowEnd:   b.WindowEnd,
			Status:      string(b.Status),
			StatusLabel: b.Status.HotelLabel(),
			GrandTotal:  b.GrandTotal,
			CreatedAt:   b.CreatedAt,
		}
	}
	return SnapshotResponse{
		OwnerID:       s.OwnerID,
		GeneratedAt:   s.GeneratedAt,
		ResourceCount: s.ResourceCount,
		Stats: StatsResponse{
			TotalBookings:     s.Stats.Total,
			ActiveBookings:    s.Stats.Active,
			CompletedBookings: s.Stats.Completed,
			UpcomingBookings:  s.Stats.Upcoming,
			ActionRequired:    s.Stats.ActionRequired,
			AvgOccupancyRate:  s.Stats.AvgOccupancyRate,
			AvgStayNights:     s.Stats.AvgStayNights,
			TotalRevenue:      s.Stats.TotalRevenue,
		},
		ByStatus: byStatus,
		Charts: ChartsResponse{
			MonthlyBookingTrend:  newSeries(s.MonthlyTrend),
			WeeklyOccupancyRate:  newSeries(s.WeeklyOccupancy),
			CategoryDistribution: newSeries(s.CategoryDistribution),
		},
		RecentBookings: recent,
	}
}

type AmountResponse struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type FinanceResponse struct {
	OwnerID       string         `json:"owner_id"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Released      AmountResponse `json:"released_payments"`
	PendingPayout AmountResponse `json:"pending_payout"`
}

func NewFinanceResponse(f *analytics.Finance) FinanceResponse {
	return FinanceResponse{
		OwnerID:       f.OwnerID,
		GeneratedAt:   f.GeneratedAt,
		Released:      AmountResponse{Count: f.Released.Count, Total: f.Released.Total},
		PendingPayout: AmountResponse{Count: f.PendingPayout.Count, Total: f.PendingPayout.Total},
	}
}
