package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
	"github.com/nekogravitycat/pet-booking-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	ResourceID    string     `form:"resource_id" binding:"omitempty,uuid"`
	Status        string     `form:"status"`
	CustomerID    string     `form:"customer_id"`
	OwnerID       string     `form:"owner_id" binding:"omitempty,uuid"`
	StartTimeFrom *time.Time `form:"start_time_from" time_format:"2006-01-02T15:04:05Z07:00"`
	StartTimeTo   *time.Time `form:"start_time_to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string     `form:"sort_by" binding:"omitempty,oneof=window_start window_end created_at status grand_total"`
	SortOrder     string     `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.StartTimeFrom != nil && r.StartTimeTo != nil {
		if r.StartTimeFrom.After(*r.StartTimeTo) {
			return booking.ErrInvalidTimeRange
		}
	}
	return nil
}

type BookingResponse struct {
	ID                    string          `json:"id"`
	ResourceOwnerID       string          `json:"resource_owner_id"`
	ResourceID            string          `json:"resource_id"`
	CustomerID            string          `json:"customer_id"`
	WindowStart           time.Time       `json:"window_start"`
	WindowEnd             time.Time       `json:"window_end"`
	Status                string          `json:"status"`
	StatusLabel           string          `json:"status_label"`
	BasePrice             decimal.Decimal `json:"base_price"`
	PlatformFee           decimal.Decimal `json:"platform_fee"`
	Discount              decimal.Decimal `json:"discount"`
	GrandTotal            decimal.Decimal `json:"grand_total"`
	ConfirmedAt           *time.Time      `json:"confirmed_at,omitempty"`
	StartedAt             *time.Time      `json:"started_at,omitempty"`
	CompletionRequestedAt *time.Time      `json:"completion_requested_at,omitempty"`
	CompletedAt           *time.Time      `json:"completed_at,omitempty"`
	CancelledAt           *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason    string          `json:"cancellation_reason,omitempty"`
	CancelledBy           string          `json:"cancelled_by,omitempty"`
	MinutesLate           int             `json:"minutes_late"`
	CompletionNote        string          `json:"completion_note,omitempty"`
	Version               int             `json:"version"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:                    b.ID,
		ResourceOwnerID:       b.ResourceOwnerID,
		ResourceID:            b.ResourceID,
		CustomerID:            b.CustomerID,
		WindowStart:           b.WindowStart,
		WindowEnd:             b.WindowEnd,
		Status:                string(b.Status),
		StatusLabel:           b.Status.HotelLabel(),
		BasePrice:             b.BasePrice,
		PlatformFee:           b.PlatformFee,
		Discount:              b.Discount,
		GrandTotal:            b.GrandTotal,
		ConfirmedAt:           b.ConfirmedAt,
		StartedAt:             b.StartedAt,
		CompletionRequestedAt: b.CompletionRequestedAt,
		CompletedAt:           b.CompletedAt,
		CancelledAt:           b.CancelledAt,
		CancellationReason:    b.CancellationReason,
		CancelledBy:           string(b.CancelledByRole),
		MinutesLate:           b.MinutesLate,
		CompletionNote:        b.CompletionNote,
		Version:               b.Version,
		CreatedAt:             b.CreatedAt,
		UpdatedAt:             b.UpdatedAt,
	}
}

type CreateBookingRequest struct {
	ResourceID  string           `json:"resource_id" binding:"required,uuid"`
	WindowStart time.Time        `json:"window_start" binding:"required"`
	WindowEnd   time.Time        `json:"window_end" binding:"required"`
	BasePrice   *decimal.Decimal `json:"base_price" binding:"required"`
	Discount    *decimal.Decimal `json:"discount"`
}

// Validate performs custom validation for CreateBookingRequest.
func (r *CreateBookingRequest) Validate() error {
	if !r.WindowEnd.After(r.WindowStart) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

// TransitionRequest carries one lifecycle event. Reason is used by cancel,
// Note by request_complete.
type TransitionRequest struct {
	Event  string `json:"event" binding:"required"`
	Reason string `json:"reason" binding:"max=500"`
	Note   string `json:"note" binding:"max=2000"`
}
