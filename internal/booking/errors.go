package booking

import (
	"fmt"
	"net/http"

	"github.com/nekogravitycat/pet-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound               = apperror.New(http.StatusNotFound, "booking not found")
	ErrResourceNotFound       = apperror.New(http.StatusNotFound, "resource not found")
	ErrConflict               = apperror.New(http.StatusConflict, "window overlaps an existing booking")
	ErrInvalidTransition      = apperror.New(http.StatusUnprocessableEntity, "transition not allowed")
	ErrInvariantViolation     = apperror.New(http.StatusInternalServerError, "booking invariant violated")
	ErrConcurrentModification = apperror.New(http.StatusConflict, "booking was modified concurrently, retry")
	ErrInvalidTimeRange       = apperror.New(http.StatusBadRequest, "window end must be after window start")
	ErrStartTimePast          = apperror.New(http.StatusBadRequest, "cannot create booking in the past")
	ErrInvalidInput           = apperror.New(http.StatusBadRequest, "invalid input parameters")
	ErrPermissionDenied       = apperror.New(http.StatusForbidden, "permission denied")
)

// ConflictError names the occupying booking that collides with a request.
type ConflictError struct {
	ResourceID string
	BookingID  string
}

func (e *ConflictError) Error() string {
	if e.BookingID == "" {
		return fmt.Sprintf("resource %s is already booked for this window", e.ResourceID)
	}
	return fmt.Sprintf("resource %s is already booked by %s", e.ResourceID, e.BookingID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Details omits the booking id when a concurrent writer won the race and
// the colliding row could not be read back.
func (e *ConflictError) Details() map[string]any {
	if e.BookingID == "" {
		return nil
	}
	return map[string]any{"conflicting_booking_id": e.BookingID}
}

// TransitionError reports an event that is not valid from the current state
// or whose guard is not satisfied.
type TransitionError struct {
	BookingID string
	Current   Status
	Event     Event
	Reason    string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s booking %s in status %s: %s", e.Event, e.BookingID, e.Current, e.Reason)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func (e *TransitionError) Details() map[string]any {
	return map[string]any{
		"current_status":  e.Current,
		"attempted_event": e.Event,
		"reason":          e.Reason,
	}
}

// InvariantError marks a record that breaks a ledger invariant. It is never
// corrected automatically.
type InvariantError struct {
	BookingID string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation on booking %s: %s", e.BookingID, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }
