package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a booking. The set is closed: every
// value not listed below is rejected by ParseStatus.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusConfirmed         Status = "CONFIRMED"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusLate              Status = "LATE"
	StatusRequestToComplete Status = "REQUEST_TO_COMPLETE"
	StatusCompleted         Status = "COMPLETED"
	StatusCancelled         Status = "CANCELLED"
	StatusExpired           Status = "EXPIRED"
)

// Hotel vertical names for the in-progress and completed states.
const (
	aliasCheckedIn  = "CHECKED_IN"
	aliasCheckedOut = "CHECKED_OUT"
)

// AllStatuses lists every state in lifecycle order.
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusLate,
	StatusRequestToComplete,
	StatusCompleted,
	StatusCancelled,
	StatusExpired,
}

// OccupyingStatuses reserve the resource against overlapping bookings.
var OccupyingStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusLate,
	StatusRequestToComplete,
}

// CountedStatuses are the statuses analytics treats as "non-cancelled".
// Expired bookings never took place and are grouped with cancellations.
var CountedStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusLate,
	StatusRequestToComplete,
	StatusCompleted,
}

func (s Status) IsOccupying() bool {
	return containsStatus(OccupyingStatuses, s)
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusExpired
}

func (s Status) IsCounted() bool {
	return containsStatus(CountedStatuses, s)
}

// HotelLabel returns the name the hotel vertical shows for s.
func (s Status) HotelLabel() string {
	switch s {
	case StatusInProgress:
		return aliasCheckedIn
	case StatusCompleted:
		return aliasCheckedOut
	default:
		return string(s)
	}
}

// ParseStatus accepts canonical names and the hotel aliases, case-insensitively.
func ParseStatus(v string) (Status, error) {
	up := strings.ToUpper(strings.TrimSpace(v))
	switch up {
	case aliasCheckedIn:
		return StatusInProgress, nil
	case aliasCheckedOut:
		return StatusCompleted, nil
	}
	s := Status(up)
	if !containsStatus(AllStatuses, s) {
		return "", fmt.Errorf("unknown booking status: %q", v)
	}
	return s, nil
}

func containsStatus(set []Status, s Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Event names a lifecycle transition.
type Event string

const (
	EventConfirm         Event = "confirm"
	EventCancel          Event = "cancel"
	EventMarkStarted     Event = "mark_started"
	EventDetectLate      Event = "detect_late"
	EventRequestComplete Event = "request_complete"
	EventApproveComplete Event = "approve_complete"
	EventExpire          Event = "expire"
)

// eventCreate is only used to label audit events for new bookings.
const eventCreate Event = "create"

var allEvents = []Event{
	EventConfirm,
	EventCancel,
	EventMarkStarted,
	EventDetectLate,
	EventRequestComplete,
	EventApproveComplete,
	EventExpire,
}

// ParseEvent accepts canonical event names plus the hotel aliases
// check_in and check_out.
func ParseEvent(v string) (Event, error) {
	e := strings.ToLower(strings.TrimSpace(v))
	e = strings.ReplaceAll(e, "-", "_")
	switch e {
	case "check_in":
		return EventMarkStarted, nil
	case "check_out":
		return EventApproveComplete, nil
	}
	for _, known := range allEvents {
		if Event(e) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown booking event: %q", v)
}

// Role is the role an actor acts under, as asserted by the identity provider.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

func ParseRole(v string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(v)))
	switch r {
	case RoleOwner, RoleCustomer, RoleAdmin, RoleSystem:
		return r, nil
	}
	return "", fmt.Errorf("unknown role: %q", v)
}

// Actor is whoever issues a transition.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used for clock-driven transitions.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// Booking is one reservation of a resource for a window of time.
// Status and the lifecycle timestamps are only ever changed by Machine.Apply.
type Booking struct {
	ID              string
	ResourceOwnerID string
	ResourceID      string
	CustomerID      string
	WindowStart     time.Time
	WindowEnd       time.Time
	Status          Status

	BasePrice   decimal.Decimal
	PlatformFee decimal.Decimal
	Discount    decimal.Decimal
	GrandTotal  decimal.Decimal

	CreatedAt             time.Time
	ConfirmedAt           *time.Time
	StartedAt             *time.Time
	CompletionRequestedAt *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time

	CancellationReason string
	CancelledByID      string
	CancelledByRole    Role
	MinutesLate        int
	CompletionNote     string

	Version   int
	UpdatedAt time.Time
}

// Validate checks the invariants every persisted booking must hold.
func (b *Booking) Validate() error {
	if !b.WindowEnd.After(b.WindowStart) {
		return &InvariantError{BookingID: b.ID, Detail: "window end is not after window start"}
	}
	for name, v := range map[string]decimal.Decimal{
		"base price":   b.BasePrice,
		"platform fee": b.PlatformFee,
		"discount":     b.Discount,
		"grand total":  b.GrandTotal,
	} {
		if v.IsNegative() {
			return &InvariantError{BookingID: b.ID, Detail: name + " is negative"}
		}
	}
	want := b.BasePrice.Add(b.PlatformFee).Sub(b.Discount)
	if !b.GrandTotal.Equal(want) {
		return &InvariantError{
			BookingID: b.ID,
			Detail:    fmt.Sprintf("grand total %s does not equal %s", b.GrandTotal, want),
		}
	}
	if (b.Status == StatusCancelled) != (b.CancelledAt != nil) {
		return &InvariantError{BookingID: b.ID, Detail: "cancelled_at does not match status"}
	}
	if !containsStatus(AllStatuses, b.Status) {
		return &InvariantError{BookingID: b.ID, Detail: fmt.Sprintf("unknown status %q", b.Status)}
	}
	return nil
}

// Filter defines parameters for paginated booking lists.
type Filter struct {
	OwnerID    string
	CustomerID string
	ResourceID string
	Status     Status
	StartTime  *time.Time // window_start >= StartTime
	EndTime    *time.Time // window_start <= EndTime
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Query selects bookings for unpaginated scans (availability, analytics,
// sweeps). Zero-valued fields are ignored.
type Query struct {
	OwnerID     string
	ResourceID  string
	Statuses    []Status
	ExcludeID   string
	StartFrom   *time.Time // window_start >= StartFrom
	StartBefore *time.Time // window_start < StartBefore
	OverlapFrom *time.Time // window_end > OverlapFrom
	OverlapTo   *time.Time // window_start < OverlapTo
}

// Matches reports whether b satisfies q. Used by the in-memory ledger.
func (q Query) Matches(b *Booking) bool {
	if q.OwnerID != "" && b.ResourceOwnerID != q.OwnerID {
		return false
	}
	if q.ResourceID != "" && b.ResourceID != q.ResourceID {
		return false
	}
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, b.Status) {
		return false
	}
	if q.ExcludeID != "" && b.ID == q.ExcludeID {
		return false
	}
	if q.StartFrom != nil && b.WindowStart.Before(*q.StartFrom) {
		return false
	}
	if q.StartBefore != nil && !b.WindowStart.Before(*q.StartBefore) {
		return false
	}
	if q.OverlapFrom != nil && !b.WindowEnd.After(*q.OverlapFrom) {
		return false
	}
	if q.OverlapTo != nil && !b.WindowStart.Before(*q.OverlapTo) {
		return false
	}
	return true
}
