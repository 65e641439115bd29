package booking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	windowStart = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)

	owner    = Actor{ID: "owner-1", Role: RoleOwner}
	customer = Actor{ID: "customer-1", Role: RoleCustomer}
	admin    = Actor{ID: "admin-1", Role: RoleAdmin}
	stranger = Actor{ID: "customer-2", Role: RoleCustomer}
	rival    = Actor{ID: "owner-2", Role: RoleOwner}
)

func ptr(t time.Time) *time.Time { return &t }

func bookingIn(status Status) Booking {
	b := Booking{
		ID:              "booking-1",
		ResourceOwnerID: owner.ID,
		ResourceID:      "resource-1",
		CustomerID:      customer.ID,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		Status:          status,
		BasePrice:       decimal.NewFromInt(100),
		PlatformFee:     decimal.NewFromInt(10),
		Discount:        decimal.Zero,
		GrandTotal:      decimal.NewFromInt(110),
		Version:         1,
	}
	switch status {
	case StatusInProgress:
		b.StartedAt = ptr(windowStart)
	case StatusRequestToComplete:
		b.StartedAt = ptr(windowStart)
		b.CompletionRequestedAt = ptr(windowEnd)
	case StatusCancelled:
		b.CancelledAt = ptr(windowStart)
	}
	return b
}

func TestMachine_Apply_ValidTransitions(t *testing.T) {
	m := NewMachine(DefaultPolicy())

	tests := []struct {
		name   string
		from   Status
		cmd    Command
		mutate func(want *Booking, now time.Time)
	}{
		{
			name: "owner confirms pending",
			from: StatusPending,
			cmd:  Command{Event: EventConfirm, Actor: owner, Now: windowStart.Add(-time.Hour)},
			mutate: func(want *Booking, now time.Time) {
				want.Status = StatusConfirmed
				want.ConfirmedAt = &now
			},
		},
		{
			name: "customer cancels pending",
			from: StatusPending,
			cmd:  Command{Event: EventCancel, Actor: customer, Now: windowStart.Add(-time.Hour), Reason: "plans changed"},
			mutate: func(want *Booking, now time.Time) {
				want.Status = StatusCancelled
				want.CancelledAt = &now
				want.CancellationReason = "plans changed"
				want.CancelledByID = customer.ID
				want.CancelledByRole = RoleCustomer
			},
		},
		{
			name: "owner cancels late",
			from: StatusLate,
			cmd:  Command{Event: EventCancel, Actor: owner, Now: windowStart.Add(3 * time.Hour)},
			mutate: func(want *Booking, now time.Time) {
				want.Status = StatusCancelled
				want.CancelledAt = &now
				want.CancelledByID = owner.ID
				want.CancelledByRole = RoleOwner
			},
		},
		{
			name: "admin cancels confirmed",
			from: StatusConfirmed,
			cmd:  Command{Event: EventCancel, Actor: admin, Now: windowStart.Add(-time.Hour), Reason: "support"},
			mutate: func(want *Booking, now time.Time) {
				want.Status = StatusCancelled
				want.CancelledAt = &now
				want.CancellationReason = "support"
				want.CancelledByID = admin.ID
				want.CancelledByRole = RoleAdmin
			},
		},
		{
			name: "owner starts confirmed at window start",
			from: StatusConfirmed,
			cmd:  Command{Event: EventMarkStarted, Actor: owner, Now: windowStart},
			mutate: func(want *Booking, now time.Time) {
				want.Status = StatusInProgress
				want.StartedAt = &now
			},
		},
		{
			name: "owner starts late booking",
			from: StatusLate,
			cmd:  Command{Event: EventMarkStarted, Actor: owner, Now: windowStart.Add(90 * time.Minute)},
			mutate: func(want *Booking, now time.Time) {
				want.Status = StatusInProgress
				want.StartedAt = &now
				want.MinutesLate = 90
			},
		},
		{
			name: "system detects late",
			from: StatusConfirmed,
			cmd:  Command{Event: EventDetectLate, Actor: SystemActor, Now: windowStart.Add(time.Minute)},
			mutate: func(want *Booking, _ time.Time) {
				want.Status = StatusLate
			},
		},
		{
			name: "owner requests completion",
			from: StatusInProgress,
			cmd:  Command{Event: EventRequestComplete, Actor: owner, Now: windowEnd, Note: "all good"},
			mutate: func(want *Booking, now time.Time) {
				want.Status = StatusRequestToComplete
				want.CompletionRequestedAt = &now
				want.CompletionNote = "all good"
			},
		},
		{
			name: "customer approves completion",
			from: StatusRequestToComplete,
			cmd:  Command{Event: EventApproveComplete, Actor: customer, Now: windowEnd.Add(time.Hour)},
			mutate: func(want *Booking, now time.Time) {
				want.Status = StatusCompleted
				want.CompletedAt = &now
			},
		},
		{
			name: "system approves completion after timeout",
			from: StatusRequestToComplete,
			cmd:  Command{Event: EventApproveComplete, Actor: SystemActor, Now: windowEnd.Add(72 * time.Hour)},
			mutate: func(want *Booking, now time.Time) {
				want.Status = StatusCompleted
				want.CompletedAt = &now
			},
		},
		{
			name: "system expires pending after grace",
			from: StatusPending,
			cmd:  Command{Event: EventExpire, Actor: SystemActor, Now: windowStart.Add(time.Hour + time.Second)},
			mutate: func(want *Booking, _ time.Time) {
				want.Status = StatusExpired
			},
		},
		{
			name: "system expires confirmed at window end",
			from: StatusConfirmed,
			cmd:  Command{Event: EventExpire, Actor: SystemActor, Now: windowEnd},
			mutate: func(want *Booking, _ time.Time) {
				want.Status = StatusExpired
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := bookingIn(tt.from)
			want := in
			tt.mutate(&want, tt.cmd.Now)

			got, err := m.Apply(in, tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, tt.from, in.Status, "input must not be modified")
		})
	}
}

func TestMachine_Apply_RejectsInvalidSources(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	later := windowEnd.Add(30 * 24 * time.Hour)

	sources := map[Event][]Status{
		EventConfirm:         {StatusPending},
		EventCancel:          {StatusPending, StatusConfirmed, StatusLate},
		EventMarkStarted:     {StatusConfirmed, StatusLate},
		EventDetectLate:      {StatusConfirmed},
		EventRequestComplete: {StatusInProgress},
		EventApproveComplete: {StatusRequestToComplete},
		EventExpire:          {StatusPending, StatusConfirmed},
	}
	actors := map[Event]Actor{
		EventConfirm:         owner,
		EventCancel:          admin,
		EventMarkStarted:     owner,
		EventDetectLate:      SystemActor,
		EventRequestComplete: owner,
		EventApproveComplete: customer,
		EventExpire:          SystemActor,
	}

	for event, valid := range sources {
		for _, from := range AllStatuses {
			if containsStatus(valid, from) {
				continue
			}
			t.Run(string(event)+" from "+string(from), func(t *testing.T) {
				in := bookingIn(from)
				got, err := m.Apply(in, Command{Event: event, Actor: actors[event], Now: later})

				var te *TransitionError
				require.ErrorAs(t, err, &te)
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, from, te.Current)
				assert.Equal(t, event, te.Event)
				assert.Equal(t, in, got)
			})
		}
	}
}

func TestMachine_Apply_TerminalStatesAreClosed(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	actors := []Actor{owner, customer, admin, SystemActor}

	for _, from := range []Status{StatusCompleted, StatusCancelled, StatusExpired} {
		for _, event := range allEvents {
			for _, actor := range actors {
				in := bookingIn(from)
				got, err := m.Apply(in, Command{Event: event, Actor: actor, Now: windowEnd.Add(time.Hour)})
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s %s by %s", from, event, actor.Role)
				assert.Equal(t, in, got)
			}
		}
	}
}

func TestMachine_Apply_Guards(t *testing.T) {
	m := NewMachine(DefaultPolicy())

	tests := []struct {
		name string
		from Status
		cmd  Command
	}{
		{"confirm by customer", StatusPending, Command{Event: EventConfirm, Actor: customer, Now: windowStart}},
		{"confirm by another owner", StatusPending, Command{Event: EventConfirm, Actor: rival, Now: windowStart}},
		{"confirm by admin", StatusPending, Command{Event: EventConfirm, Actor: admin, Now: windowStart}},
		{"cancel by stranger", StatusPending, Command{Event: EventCancel, Actor: stranger, Now: windowStart}},
		{"customer cancels late", StatusLate, Command{Event: EventCancel, Actor: customer, Now: windowStart.Add(time.Hour)}},
		{"system cancels", StatusPending, Command{Event: EventCancel, Actor: SystemActor, Now: windowStart}},
		{"start before window", StatusConfirmed, Command{Event: EventMarkStarted, Actor: owner, Now: windowStart.Add(-time.Second)}},
		{"start by customer", StatusConfirmed, Command{Event: EventMarkStarted, Actor: customer, Now: windowStart}},
		{"late at window start", StatusConfirmed, Command{Event: EventDetectLate, Actor: SystemActor, Now: windowStart}},
		{"late by owner", StatusConfirmed, Command{Event: EventDetectLate, Actor: owner, Now: windowEnd}},
		{"request completion by customer", StatusInProgress, Command{Event: EventRequestComplete, Actor: customer, Now: windowEnd}},
		{"approve by owner", StatusRequestToComplete, Command{Event: EventApproveComplete, Actor: owner, Now: windowEnd}},
		{"approve by other customer", StatusRequestToComplete, Command{Event: EventApproveComplete, Actor: stranger, Now: windowEnd}},
		{"system approves early", StatusRequestToComplete, Command{Event: EventApproveComplete, Actor: SystemActor, Now: windowEnd.Add(71 * time.Hour)}},
		{"expire pending within grace", StatusPending, Command{Event: EventExpire, Actor: SystemActor, Now: windowStart.Add(time.Hour)}},
		{"expire confirmed before end", StatusConfirmed, Command{Event: EventExpire, Actor: SystemActor, Now: windowEnd.Add(-time.Second)}},
		{"expire by owner", StatusPending, Command{Event: EventExpire, Actor: owner, Now: windowEnd}},
		{"expire late", StatusLate, Command{Event: EventExpire, Actor: SystemActor, Now: windowEnd.Add(time.Hour)}},
		{"unknown event", StatusPending, Command{Event: "teleport", Actor: owner, Now: windowStart}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := bookingIn(tt.from)
			got, err := m.Apply(in, tt.cmd)

			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.NotEmpty(t, te.Reason)
			assert.Equal(t, in, got)
		})
	}
}

func TestMachine_Apply_StartedBookingIsNotLate(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	b := bookingIn(StatusConfirmed)
	b.StartedAt = ptr(windowStart)

	_, err := m.Apply(b, Command{Event: EventDetectLate, Actor: SystemActor, Now: windowStart.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachine_ConfirmThenStartTooEarly(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	now := windowStart.Add(-time.Hour)

	confirmed, err := m.Apply(bookingIn(StatusPending), Command{Event: EventConfirm, Actor: owner, Now: now})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, now, *confirmed.ConfirmedAt)

	_, err = m.Apply(confirmed, Command{Event: EventMarkStarted, Actor: owner, Now: now.Add(time.Minute)})
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatusConfirmed, te.Current)
	assert.Equal(t, EventMarkStarted, te.Event)
}

func TestMachine_RequestCompleteTwice(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	b := bookingIn(StatusConfirmed)

	b, err := m.Apply(b, Command{Event: EventMarkStarted, Actor: owner, Now: windowStart})
	require.NoError(t, err)
	b, err = m.Apply(b, Command{Event: EventRequestComplete, Actor: owner, Now: windowEnd})
	require.NoError(t, err)
	assert.Equal(t, StatusRequestToComplete, b.Status)

	_, err = m.Apply(b, Command{Event: EventRequestComplete, Actor: owner, Now: windowEnd.Add(time.Minute)})
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatusRequestToComplete, te.Current)
	assert.Equal(t, map[string]any{
		"current_status":  StatusRequestToComplete,
		"attempted_event": EventRequestComplete,
		"reason":          te.Reason,
	}, te.Details())
}

func TestPolicy_MayCancel(t *testing.T) {
	p := DefaultPolicy()

	assert.True(t, p.MayCancel(RoleCustomer, StatusConfirmed))
	assert.False(t, p.MayCancel(RoleCustomer, StatusLate))
	assert.True(t, p.MayCancel(RoleOwner, StatusLate))
	assert.False(t, p.MayCancel(RoleSystem, StatusPending))

	// A policy cannot widen the cancellable set.
	p.Cancellation[RoleAdmin] = append(p.Cancellation[RoleAdmin], StatusInProgress)
	assert.False(t, p.MayCancel(RoleAdmin, StatusInProgress))
}

func TestMachine_CustomPolicy(t *testing.T) {
	m := NewMachine(Policy{
		Cancellation:     map[Role][]Status{RoleOwner: {StatusPending}},
		PendingGrace:     0,
		AutoApproveAfter: time.Hour,
	})

	_, err := m.Apply(bookingIn(StatusPending), Command{Event: EventCancel, Actor: customer, Now: windowStart})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.Apply(bookingIn(StatusConfirmed), Command{Event: EventCancel, Actor: owner, Now: windowStart})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := m.Apply(bookingIn(StatusRequestToComplete), Command{Event: EventApproveComplete, Actor: SystemActor, Now: windowEnd.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestMachine_Due(t *testing.T) {
	m := NewMachine(DefaultPolicy())

	started := bookingIn(StatusConfirmed)
	started.StartedAt = ptr(windowStart)

	tests := []struct {
		name   string
		b      Booking
		now    time.Time
		want   Event
		wantOK bool
	}{
		{"pending within grace", bookingIn(StatusPending), windowStart.Add(time.Hour), "", false},
		{"pending past grace", bookingIn(StatusPending), windowStart.Add(time.Hour + time.Second), EventExpire, true},
		{"confirmed before start", bookingIn(StatusConfirmed), windowStart, "", false},
		{"confirmed after start", bookingIn(StatusConfirmed), windowStart.Add(time.Second), EventDetectLate, true},
		{"confirmed at end", bookingIn(StatusConfirmed), windowEnd, EventExpire, true},
		{"confirmed but started", started, windowStart.Add(time.Hour), "", false},
		{"completion request fresh", bookingIn(StatusRequestToComplete), windowEnd.Add(time.Hour), "", false},
		{"completion request timed out", bookingIn(StatusRequestToComplete), windowEnd.Add(72 * time.Hour), EventApproveComplete, true},
		{"late never expires", bookingIn(StatusLate), windowEnd.Add(365 * 24 * time.Hour), "", false},
		{"in progress", bookingIn(StatusInProgress), windowEnd.Add(365 * 24 * time.Hour), "", false},
		{"completed", bookingIn(StatusCompleted), windowEnd.Add(time.Hour), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Due(tt.b, tt.now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatusAndEvent(t *testing.T) {
	s, err := ParseStatus("checked_in")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	s, err = ParseStatus(" Request_To_Complete ")
	require.NoError(t, err)
	assert.Equal(t, StatusRequestToComplete, s)

	_, err = ParseStatus("ARCHIVED")
	assert.Error(t, err)

	e, err := ParseEvent("check-out")
	require.NoError(t, err)
	assert.Equal(t, EventApproveComplete, e)

	e, err = ParseEvent("MARK_STARTED")
	require.NoError(t, err)
	assert.Equal(t, EventMarkStarted, e)

	_, err = ParseEvent("create")
	assert.Error(t, err)

	assert.Equal(t, "CHECKED_OUT", StatusCompleted.HotelLabel())
	assert.Equal(t, "LATE", StatusLate.HotelLabel())
}

func TestBooking_Validate(t *testing.T) {
	b := bookingIn(StatusPending)
	require.NoError(t, b.Validate())

	bad := b
	bad.WindowEnd = bad.WindowStart
	assert.ErrorIs(t, bad.Validate(), ErrInvariantViolation)

	bad = b
	bad.GrandTotal = decimal.NewFromInt(999)
	assert.ErrorIs(t, bad.Validate(), ErrInvariantViolation)

	bad = b
	bad.Status = StatusCancelled
	assert.ErrorIs(t, bad.Validate(), ErrInvariantViolation)

	bad = bookingIn(StatusConfirmed)
	bad.CancelledAt = ptr(windowStart)
	assert.ErrorIs(t, bad.Validate(), ErrInvariantViolation)

	bad = b
	bad.Status = "ARCHIVED"
	assert.ErrorIs(t, bad.Validate(), ErrInvariantViolation)
}
