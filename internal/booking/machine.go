package booking

import (
	"time"
)

// cancellableFrom is the source set of the cancel event. A policy can narrow
// it per role but never widen it.
var cancellableFrom = []Status{StatusPending, StatusConfirmed, StatusLate}

// Policy holds the configurable guards of the state machine.
type Policy struct {
	// Cancellation maps a role to the statuses it may cancel from.
	Cancellation map[Role][]Status
	// PendingGrace is how long past window start a PENDING booking waits
	// for confirmation before it expires.
	PendingGrace time.Duration
	// AutoApproveAfter is how long a completion request waits for the
	// customer before the system approves it.
	AutoApproveAfter time.Duration
}

// DefaultPolicy lets customers cancel before the stay starts and owners
// and admins also cancel late bookings.
func DefaultPolicy() Policy {
	return Policy{
		Cancellation: map[Role][]Status{
			RoleCustomer: {StatusPending, StatusConfirmed},
			RoleOwner:    {StatusPending, StatusConfirmed, StatusLate},
			RoleAdmin:    {StatusPending, StatusConfirmed, StatusLate},
		},
		PendingGrace:     time.Hour,
		AutoApproveAfter: 72 * time.Hour,
	}
}

// MayCancel reports whether role may cancel a booking in status from.
func (p Policy) MayCancel(role Role, from Status) bool {
	if !containsStatus(cancellableFrom, from) {
		return false
	}
	return containsStatus(p.Cancellation[role], from)
}

// Command is one request to move a booking through its lifecycle.
type Command struct {
	Event  Event
	Actor  Actor
	Now    time.Time
	Reason string // cancel only
	Note   string // request_complete only
}

// Machine applies lifecycle transitions. It performs no I/O: Apply takes a
// booking by value and returns the next value, leaving the input untouched.
type Machine struct {
	policy Policy
}

func NewMachine(policy Policy) *Machine {
	return &Machine{policy: policy}
}

func (m *Machine) Policy() Policy { return m.policy }

// Apply validates cmd against b and returns the booking after the
// transition. On error the returned booking is the unchanged input.
func (m *Machine) Apply(b Booking, cmd Command) (Booking, error) {
	reject := func(reason string) (Booking, error) {
		return b, &TransitionError{BookingID: b.ID, Current: b.Status, Event: cmd.Event, Reason: reason}
	}

	if b.Status.IsTerminal() {
		return reject("booking is in a terminal state")
	}

	now := cmd.Now
	next := b

	switch cmd.Event {
	case EventConfirm:
		if b.Status != StatusPending {
			return reject("only pending bookings can be confirmed")
		}
		if !isOwner(b, cmd.Actor) {
			return reject("only the resource owner can confirm")
		}
		next.Status = StatusConfirmed
		next.ConfirmedAt = &now

	case EventCancel:
		if !containsStatus(cancellableFrom, b.Status) {
			return reject("booking can no longer be cancelled")
		}
		if !isParty(b, cmd.Actor) {
			return reject("actor is not a party to this booking")
		}
		if !m.policy.MayCancel(cmd.Actor.Role, b.Status) {
			return reject("cancellation policy does not allow " + string(cmd.Actor.Role) + " to cancel now")
		}
		next.Status = StatusCancelled
		next.CancelledAt = &now
		next.CancellationReason = cmd.Reason
		next.CancelledByID = cmd.Actor.ID
		next.CancelledByRole = cmd.Actor.Role

	case EventMarkStarted:
		if b.Status != StatusConfirmed && b.Status != StatusLate {
			return reject("only confirmed or late bookings can start")
		}
		if !isOwner(b, cmd.Actor) {
			return reject("only the resource owner can start a booking")
		}
		if now.Before(b.WindowStart) {
			return reject("window has not started yet")
		}
		if b.Status == StatusLate {
			next.MinutesLate = int(now.Sub(b.WindowStart) / time.Minute)
		}
		next.Status = StatusInProgress
		next.StartedAt = &now

	case EventDetectLate:
		if b.Status != StatusConfirmed {
			return reject("only confirmed bookings can become late")
		}
		if cmd.Actor.Role != RoleSystem {
			return reject("late detection is driven by the system clock")
		}
		if !now.After(b.WindowStart) || b.StartedAt != nil {
			return reject("booking is not late")
		}
		next.Status = StatusLate

	case EventRequestComplete:
		if b.Status != StatusInProgress {
			return reject("only in-progress bookings can request completion")
		}
		if !isOwner(b, cmd.Actor) {
			return reject("only the resource owner can request completion")
		}
		next.Status = StatusRequestToComplete
		next.CompletionRequestedAt = &now
		next.CompletionNote = cmd.Note

	case EventApproveComplete:
		if b.Status != StatusRequestToComplete {
			return reject("completion has not been requested")
		}
		switch {
		case isCustomer(b, cmd.Actor):
		case cmd.Actor.Role == RoleSystem:
			if b.CompletionRequestedAt == nil || now.Before(b.CompletionRequestedAt.Add(m.policy.AutoApproveAfter)) {
				return reject("auto-approval timeout has not elapsed")
			}
		default:
			return reject("only the customer can approve completion")
		}
		next.Status = StatusCompleted
		next.CompletedAt = &now

	case EventExpire:
		if cmd.Actor.Role != RoleSystem {
			return reject("expiry is driven by the system clock")
		}
		switch b.Status {
		case StatusPending:
			if !now.After(b.WindowStart.Add(m.policy.PendingGrace)) {
				return reject("pending grace period has not elapsed")
			}
		case StatusConfirmed:
			if now.Before(b.WindowEnd) {
				return reject("window has not passed")
			}
		default:
			return reject("only pending or confirmed bookings can expire")
		}
		next.Status = StatusExpired

	default:
		return reject("unknown event")
	}

	return next, nil
}

// Due returns the clock-driven event that applies to b at now, if any.
func (m *Machine) Due(b Booking, now time.Time) (Event, bool) {
	switch b.Status {
	case StatusPending:
		if now.After(b.WindowStart.Add(m.policy.PendingGrace)) {
			return EventExpire, true
		}
	case StatusConfirmed:
		if !now.Before(b.WindowEnd) {
			return EventExpire, true
		}
		if now.After(b.WindowStart) && b.StartedAt == nil {
			return EventDetectLate, true
		}
	case StatusRequestToComplete:
		if b.CompletionRequestedAt != nil && !now.Before(b.CompletionRequestedAt.Add(m.policy.AutoApproveAfter)) {
			return EventApproveComplete, true
		}
	}
	return "", false
}

func isOwner(b Booking, a Actor) bool {
	return a.Role == RoleOwner && a.ID != "" && a.ID == b.ResourceOwnerID
}

func isCustomer(b Booking, a Actor) bool {
	return a.Role == RoleCustomer && a.ID != "" && a.ID == b.CustomerID
}

// isParty accepts the owner, the customer or an admin.
func isParty(b Booking, a Actor) bool {
	return isOwner(b, a) || isCustomer(b, a) || a.Role == RoleAdmin
}
