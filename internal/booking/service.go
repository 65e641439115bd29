package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/pet-booking-backend/internal/events"
	"github.com/nekogravitycat/pet-booking-backend/internal/lock"
	"github.com/nekogravitycat/pet-booking-backend/internal/resource"
)

// maxTransitionAttempts bounds the optimistic retry loop.
const maxTransitionAttempts = 3

// Availability reports the id of an occupying booking on resourceID that
// overlaps [start, end), ignoring excludeID. Empty means available.
type Availability interface {
	Conflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (string, error)
}

type CreateRequest struct {
	// ResourceOwnerID is optional; when set it must match the resource.
	ResourceOwnerID string
	ResourceID      string
	CustomerID      string
	WindowStart     time.Time
	WindowEnd       time.Time
	BasePrice       decimal.Decimal
	Discount        decimal.Decimal
}

type TransitionRequest struct {
	BookingID string
	Event     Event
	Actor     Actor
	Reason    string
	Note      string
}

// SweepResult counts what one sweep did, per event.
type SweepResult struct {
	Applied map[Event]int
	Skipped int
	Failed  int
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	Transition(ctx context.Context, req TransitionRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// Sweep applies every clock-driven transition that is due at now.
	Sweep(ctx context.Context, now time.Time) (SweepResult, error)
}

type service struct {
	repo         Repository
	resService   resource.Service
	availability Availability
	machine      *Machine
	pricing      Pricing
	locker       lock.Locker
	publisher    events.Publisher
	now          func() time.Time
}

type Option func(*service)

func WithLocker(l lock.Locker) Option { return func(s *service) { s.locker = l } }

func WithPublisher(p events.Publisher) Option { return func(s *service) { s.publisher = p } }

func WithPricing(p Pricing) Option { return func(s *service) { s.pricing = p } }

func WithPolicy(p Policy) Option { return func(s *service) { s.machine = NewMachine(p) } }

func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

func NewService(repo Repository, resService resource.Service, availability Availability, opts ...Option) Service {
	s := &service{
		repo:         repo,
		resService:   resService,
		availability: availability,
		machine:      NewMachine(DefaultPolicy()),
		locker:       lock.NewKeyedMutex(),
		publisher:    events.NopPublisher{},
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func resourceLockKey(resourceID string) string {
	return "resource:" + resourceID
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	now := s.now()

	// 1. Validate window
	if !req.WindowEnd.After(req.WindowStart) {
		return nil, ErrInvalidTimeRange
	}
	if req.WindowStart.Before(now) {
		return nil, ErrStartTimePast
	}
	if req.CustomerID == "" || req.ResourceID == "" {
		return nil, ErrInvalidInput
	}

	// 2. Resolve the owner from the catalog
	res, err := s.resService.GetByID(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	if req.ResourceOwnerID != "" && req.ResourceOwnerID != res.OwnerID {
		return nil, ErrInvalidInput
	}

	// 3. Price
	fee, total, err := s.pricing.Quote(req.BasePrice, req.Discount)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		ResourceOwnerID: res.OwnerID,
		ResourceID:      res.ID,
		CustomerID:      req.CustomerID,
		WindowStart:     req.WindowStart,
		WindowEnd:       req.WindowEnd,
		Status:          StatusPending,
		BasePrice:       req.BasePrice,
		PlatformFee:     fee,
		Discount:        req.Discount,
		GrandTotal:      total,
	}
	if err := b.Validate(); err != nil {
		log.Printf("invariant violation: %v", err)
		return nil, err
	}

	// 4. Check availability and insert under the resource lock
	unlock, err := s.locker.Lock(ctx, resourceLockKey(b.ResourceID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	conflictID, err := s.availability.Conflict(ctx, b.ResourceID, b.WindowStart, b.WindowEnd, "")
	if err != nil {
		return nil, err
	}
	if conflictID != "" {
		return nil, &ConflictError{ResourceID: b.ResourceID, BookingID: conflictID}
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, b, eventCreate, "", Actor{ID: b.CustomerID, Role: RoleCustomer}, b.CreatedAt)
	return b, nil
}

func (s *service) Transition(ctx context.Context, req TransitionRequest) (*Booking, error) {
	return s.transition(ctx, req, s.now())
}

func (s *service) transition(ctx context.Context, req TransitionRequest, now time.Time) (*Booking, error) {
	for attempt := 1; ; attempt++ {
		b, err := s.GetByID(ctx, req.BookingID)
		if err != nil {
			return nil, err
		}

		cmd := Command{
			Event:  req.Event,
			Actor:  req.Actor,
			Now:    now,
			Reason: req.Reason,
			Note:   req.Note,
		}
		next, err := s.machine.Apply(*b, cmd)
		if err != nil {
			return nil, err
		}

		err = s.commit(ctx, b, &next)
		if errors.Is(err, ErrConcurrentModification) && attempt < maxTransitionAttempts {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.publish(ctx, &next, req.Event, b.Status, req.Actor, cmd.Now)
		return &next, nil
	}
}

// commit writes next over prev. Confirmation re-validates availability
// under the resource lock so a stale request cannot confirm over a newer
// reservation.
func (s *service) commit(ctx context.Context, prev, next *Booking) error {
	if err := next.Validate(); err != nil {
		log.Printf("invariant violation: %v", err)
		return err
	}

	if next.Status == StatusConfirmed && prev.Status == StatusPending {
		unlock, err := s.locker.Lock(ctx, resourceLockKey(next.ResourceID))
		if err != nil {
			return err
		}
		defer unlock()

		conflictID, err := s.availability.Conflict(ctx, next.ResourceID, next.WindowStart, next.WindowEnd, next.ID)
		if err != nil {
			return err
		}
		if conflictID != "" {
			return &ConflictError{ResourceID: next.ResourceID, BookingID: conflictID}
		}
	}

	return s.repo.Update(ctx, next, prev.Version)
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		log.Printf("invariant violation: %v", err)
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for _, b := range list {
		if err := b.Validate(); err != nil {
			log.Printf("invariant violation: %v", err)
			return nil, 0, err
		}
	}
	return list, total, nil
}

func (s *service) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	result := SweepResult{Applied: make(map[Event]int)}

	candidates, err := s.repo.Find(ctx, Query{
		Statuses:    []Status{StatusPending, StatusConfirmed, StatusRequestToComplete},
		StartBefore: &now,
	})
	if err != nil {
		return result, err
	}

	for _, b := range candidates {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		event, due := s.machine.Due(*b, now)
		if !due {
			continue
		}

		_, err := s.transition(ctx, TransitionRequest{
			BookingID: b.ID,
			Event:     event,
			Actor:     SystemActor,
		}, now)
		var te *TransitionError
		switch {
		case err == nil:
			result.Applied[event]++
		case errors.As(err, &te):
			// Another writer moved the booking first.
			result.Skipped++
		default:
			log.Printf("sweep %s on booking %s failed: %v", event, b.ID, err)
			result.Failed++
		}
	}
	return result, nil
}

func (s *service) publish(ctx context.Context, b *Booking, event Event, from Status, actor Actor, at time.Time) {
	err := s.publisher.Publish(ctx, events.Transition{
		BookingID:  b.ID,
		OwnerID:    b.ResourceOwnerID,
		ResourceID: b.ResourceID,
		Event:      string(event),
		From:       string(from),
		To:         string(b.Status),
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		At:         at,
	})
	if err != nil {
		log.Printf("publish %s for booking %s failed: %v", event, b.ID, err)
	}
}
