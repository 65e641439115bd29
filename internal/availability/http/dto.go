package http

import (
	"time"

	"github.com/nekogravitycat/pet-booking-backend/internal/availability"
)

// maxRange caps how far one availability request may look.
const maxRange = 366 * 24 * time.Hour

type AvailabilityRequest struct {
	From *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

type WindowResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type SlotResponse struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	BookingID string    `json:"booking_id"`
	Status    string    `json:"status"`
}

type AvailabilityResponse struct {
	ResourceID string           `json:"resource_id"`
	From       time.Time        `json:"from"`
	To         time.Time        `json:"to"`
	Occupied   []SlotResponse   `json:"occupied"`
	Free       []WindowResponse `json:"free"`
}

func NewAvailabilityResponse(rec *availability.Record, from, to time.Time, free []availability.Window) AvailabilityResponse {
	resp := AvailabilityResponse{
		ResourceID: rec.ResourceID,
		From:       from,
		To:         to,
		Occupied:   make([]SlotResponse, len(rec.Slots)),
		Free:       make([]WindowResponse, len(free)),
	}
	for i, s := range rec.Slots {
		resp.Occupied[i] = SlotResponse{Start: s.Start, End: s.End, BookingID: s.BookingID, Status: string(s.Status)}
	}
	for i, w := range free {
		resp.Free[i] = WindowResponse{Start: w.Start, End: w.End}
	}
	return resp
}
