// README: Ride service implements the request pipeline and state transitions.
package ride

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flashtaxi/internal/events"
	"flashtaxi/internal/maps"
	"flashtaxi/internal/modules/driver"
	"flashtaxi/internal/modules/pricing"
	"flashtaxi/internal/observability"
	"flashtaxi/internal/types"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("ride not found")
	ErrForbidden         = errors.New("not authorized to access this ride")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidAddress    = errors.New("invalid addresses")
	ErrConflict          = errors.New("ride state conflict")
)

type Geo interface {
	Geocode(ctx context.Context, address string) (maps.Place, bool, error)
	Route(ctx context.Context, origin, destination types.Point) (maps.Route, error)
}

type Pricing interface {
	Estimate(req pricing.PricingRequest) pricing.PricingResult
	Display(amount float64) string
	DisplayBase() string
	DisplayPerKm() string
	DisplayPerMinute() string
}

type Drivers interface {
	Get(ctx context.Context, id types.ID) (*driver.Driver, error)
	SetAvailability(ctx context.Context, id types.ID, available bool) error
	RecordCompletedRide(ctx context.Context, id types.ID) error
}

// Deps are the collaborators of the controller. Events, Publisher, Log, Now and
// NewID fall back to no-op or standard implementations when left nil. Without
// Drivers, driver ids are taken as given and availability is not tracked.
type Deps struct {
	Store     Store
	Events    EventLog
	Geo       Geo
	Pricing   Pricing
	Drivers   Drivers
	Publisher events.Publisher
	Log       *slog.Logger
	Now       func() time.Time
	NewID     func() types.ID
}

type Service struct {
	store     Store
	events    EventLog
	geo       Geo
	pricing   Pricing
	drivers   Drivers
	publisher events.Publisher
	log       *slog.Logger
	now       func() time.Time
	newID     func() types.ID
}

func NewService(deps Deps) *Service {
	s := &Service{
		store:     deps.Store,
		events:    deps.Events,
		geo:       deps.Geo,
		pricing:   deps.Pricing,
		drivers:   deps.Drivers,
		publisher: deps.Publisher,
		log:       deps.Log,
		now:       deps.Now,
		newID:     deps.NewID,
	}
	if s.events == nil {
		s.events = NopEventLog{}
	}
	if s.publisher == nil {
		s.publisher = events.PublisherFunc(func(context.Context, events.Event) error { return nil })
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = types.NewID
	}
	return s
}

type RequestCommand struct {
	RiderID        types.ID
	PickupAddress  string
	DropoffAddress string
	PaymentMethod  string
}

type EstimateCommand struct {
	PickupAddress  string
	DropoffAddress string
}

type CancelCommand struct {
	RiderID types.ID
	RideID  types.ID
	Reason  string
}

// DriverCommand drives the accept/arrive/start/complete hooks.
type DriverCommand struct {
	RideID   types.ID
	DriverID types.ID
}

// Trip is a geocoded, routed and priced pickup/dropoff pair.
type Trip struct {
	Pickup    Location
	Dropoff   Location
	Route     maps.Route
	Fare      types.Money
	Breakdown pricing.Breakdown
}

func (s *Service) RequestRide(ctx context.Context, cmd RequestCommand) (*Ride, error) {
	if cmd.RiderID == "" {
		return nil, fmt.Errorf("%w: rider is required", ErrValidation)
	}
	pm, err := ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}
	trip, err := s.plan(ctx, cmd.PickupAddress, cmd.DropoffAddress)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	r := &Ride{
		ID:            s.newID(),
		RiderID:       cmd.RiderID,
		Pickup:        trip.Pickup,
		Dropoff:       trip.Dropoff,
		Status:        StatusRequesting,
		StatusVersion: 0,
		Fare:          trip.Fare,
		DistanceKm:    trip.Route.DistanceKm,
		DurationMin:   trip.Route.DurationMin,
		PaymentMethod: pm,
		RequestedAt:   now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	observability.RidesRequested.Inc()
	s.appendEvent(ctx, r.ID, StatusNone, StatusRequesting, "rider", &cmd.RiderID, now)
	s.log.Info("ride_requested", "ride_id", r.ID, "rider_id", r.RiderID, "fare", r.Fare.Amount)

	s.emit(ctx, events.NewRideRequest, "", newRideRequest{
		RideID:  r.ID,
		Pickup:  r.Pickup,
		Dropoff: r.Dropoff,
		Fare:    r.Fare,
	})
	return r, nil
}

// Estimate runs the request pipeline without persisting or publishing anything.
func (s *Service) Estimate(ctx context.Context, cmd EstimateCommand) (*Estimate, error) {
	trip, err := s.plan(ctx, cmd.PickupAddress, cmd.DropoffAddress)
	if err != nil {
		return nil, err
	}
	return newEstimate(trip, s.pricing), nil
}

func (s *Service) plan(ctx context.Context, pickupAddress, dropoffAddress string) (*Trip, error) {
	pickupAddress = strings.TrimSpace(pickupAddress)
	dropoffAddress = strings.TrimSpace(dropoffAddress)
	if pickupAddress == "" || dropoffAddress == "" {
		return nil, fmt.Errorf("%w: pickup and dropoff addresses are required", ErrValidation)
	}

	pickup, err := s.resolve(ctx, pickupAddress)
	if err != nil {
		return nil, err
	}
	dropoff, err := s.resolve(ctx, dropoffAddress)
	if err != nil {
		return nil, err
	}

	route, err := s.geo.Route(ctx, pickup.Point, dropoff.Point)
	if err != nil {
		return nil, err
	}
	quote := s.pricing.Estimate(pricing.PricingRequest{DistanceKm: route.DistanceKm, DurationMin: route.DurationMin})
	return &Trip{
		Pickup:    pickup,
		Dropoff:   dropoff,
		Route:     route,
		Fare:      quote.Total,
		Breakdown: quote.Breakdown,
	}, nil
}

func (s *Service) resolve(ctx context.Context, address string) (Location, error) {
	place, found, err := s.geo.Geocode(ctx, address)
	if err != nil {
		return Location{}, err
	}
	if !found {
		return Location{}, ErrInvalidAddress
	}
	if place.Address == "" {
		place.Address = address
	}
	return Location{Address: place.Address, Point: place.Location}, nil
}

// Get returns the ride when riderID owns it.
func (s *Service) Get(ctx context.Context, riderID, rideID types.ID) (*Ride, error) {
	if riderID == "" || rideID == "" {
		return nil, ErrValidation
	}
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.RiderID != riderID {
		return nil, ErrForbidden
	}
	return r, nil
}

// Detail is Get plus the assigned driver's card.
func (s *Service) Detail(ctx context.Context, riderID, rideID types.ID) (*Detail, error) {
	r, err := s.Get(ctx, riderID, rideID)
	if err != nil {
		return nil, err
	}
	return s.DetailOf(ctx, r), nil
}

// DetailOf projects r with its driver card. It performs no ownership check.
func (s *Service) DetailOf(ctx context.Context, r *Ride) *Detail {
	var card *DriverCard
	if r.DriverID != nil {
		card = s.driverCard(ctx, *r.DriverID, true)
	}
	return newDetail(r, card)
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	r, err := s.Get(ctx, cmd.RiderID, cmd.RideID)
	if err != nil {
		return err
	}
	if err := s.transition(ctx, r, StatusCancelled, "rider", &cmd.RiderID, nil, cmd.Reason); err != nil {
		return err
	}
	observability.RidesCancelled.Inc()

	if r.DriverID != nil {
		s.emit(ctx, events.RideCancelled, events.DriverRoom(*r.DriverID), rideRef{RideID: r.ID})
		s.setDriverAvailable(ctx, *r.DriverID, true)
	}
	return nil
}

// History returns the rider's most recent rides, newest first.
func (s *Service) History(ctx context.Context, riderID types.ID) ([]Summary, error) {
	if riderID == "" {
		return nil, ErrValidation
	}
	rides, err := s.store.ListByRider(ctx, riderID, HistoryLimit)
	if err != nil {
		return nil, err
	}
	cards := map[types.ID]*DriverCard{}
	out := make([]Summary, 0, len(rides))
	for _, r := range rides {
		var card *DriverCard
		if r.DriverID != nil {
			id := *r.DriverID
			if _, ok := cards[id]; !ok {
				cards[id] = s.driverCard(ctx, id, false)
			}
			card = cards[id]
		}
		out = append(out, newSummary(r, card))
	}
	return out, nil
}

// Accept assigns the driver to a requesting ride.
func (s *Service) Accept(ctx context.Context, cmd DriverCommand) (*Ride, error) {
	if cmd.RideID == "" || cmd.DriverID == "" {
		return nil, ErrValidation
	}
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if s.drivers != nil {
		if _, err := s.drivers.Get(ctx, cmd.DriverID); err != nil {
			if errors.Is(err, driver.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown driver", ErrValidation)
			}
			return nil, err
		}
	}
	if err := s.transition(ctx, r, StatusAccepted, "driver", &cmd.DriverID, &cmd.DriverID, ""); err != nil {
		return nil, err
	}
	s.setDriverAvailable(ctx, cmd.DriverID, false)
	s.emit(ctx, events.RideAccepted, events.RideRoom(r.ID), rideAccepted{
		RideID: r.ID,
		Driver: s.driverCard(ctx, cmd.DriverID, true),
	})
	return r, nil
}

func (s *Service) Arrive(ctx context.Context, cmd DriverCommand) (*Ride, error) {
	return s.driverStep(ctx, cmd, StatusDriverArrived, events.DriverArrived)
}

func (s *Service) Start(ctx context.Context, cmd DriverCommand) (*Ride, error) {
	return s.driverStep(ctx, cmd, StatusStarted, events.RideStarted)
}

func (s *Service) Complete(ctx context.Context, cmd DriverCommand) (*Ride, error) {
	r, err := s.driverStep(ctx, cmd, StatusCompleted, events.RideCompleted)
	if err != nil {
		return nil, err
	}
	if s.drivers != nil {
		if err := s.drivers.RecordCompletedRide(ctx, cmd.DriverID); err != nil {
			s.log.Warn("driver_ride_count_failed", "driver_id", cmd.DriverID, "error", err)
		}
	}
	s.setDriverAvailable(ctx, cmd.DriverID, true)
	return r, nil
}

// driverStep moves a ride forward on behalf of its assigned driver.
func (s *Service) driverStep(ctx context.Context, cmd DriverCommand, to Status, event string) (*Ride, error) {
	if cmd.RideID == "" || cmd.DriverID == "" {
		return nil, ErrValidation
	}
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if r.DriverID == nil || *r.DriverID != cmd.DriverID {
		return nil, ErrForbidden
	}
	if err := s.transition(ctx, r, to, "driver", &cmd.DriverID, nil, ""); err != nil {
		return nil, err
	}
	s.emit(ctx, event, events.RideRoom(r.ID), rideRef{RideID: r.ID, Status: r.Status})
	return r, nil
}

var verbs = map[Status]string{
	StatusAccepted:      "accept",
	StatusDriverArrived: "mark arrival for",
	StatusStarted:       "start",
	StatusCompleted:     "complete",
	StatusCancelled:     "cancel",
}

// transition is the single path through which a ride changes status.
func (s *Service) transition(ctx context.Context, r *Ride, to Status, actorType string, actorID, driverID *types.ID, reason string) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: cannot %s ride with status: %s", ErrInvalidTransition, verbs[to], r.Status)
	}
	t := Transition{
		RideID:   r.ID,
		From:     r.Status,
		To:       to,
		Version:  r.StatusVersion,
		DriverID: driverID,
		Reason:   reason,
		At:       s.now().UTC(),
	}
	ok, err := s.store.UpdateStatus(ctx, t)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	r.apply(t)
	observability.RideTransitions.WithLabelValues(string(to)).Inc()
	s.appendEvent(ctx, r.ID, t.From, to, actorType, actorID, t.At)
	s.log.Info("ride_transition", "ride_id", r.ID, "from", t.From, "to", to, "actor", actorType)
	return nil
}

func (s *Service) appendEvent(ctx context.Context, rideID types.ID, from, to Status, actorType string, actorID *types.ID, at time.Time) {
	err := s.events.AppendEvent(ctx, &Event{
		RideID:     rideID,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  at,
	})
	if err != nil {
		s.log.Warn("ride_event_log_failed", "ride_id", rideID, "to", to, "error", err)
	}
}

// emit publishes best effort; failures are logged and never fail the caller.
func (s *Service) emit(ctx context.Context, name, room string, payload any) {
	e, err := events.New(name, room, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, e)
	}
	if err != nil {
		s.log.Warn("ride_event_publish_failed", "event", name, "room", room, "error", err)
	}
}

// setDriverAvailable is a no-op without a driver registry.
func (s *Service) setDriverAvailable(ctx context.Context, id types.ID, available bool) {
	if s.drivers == nil {
		return
	}
	if err := s.drivers.SetAvailability(ctx, id, available); err != nil {
		s.log.Warn("driver_availability_failed", "driver_id", id, "error", err)
	}
}

func (s *Service) driverCard(ctx context.Context, id types.ID, withPhone bool) *DriverCard {
	if s.drivers == nil {
		return nil
	}
	d, err := s.drivers.Get(ctx, id)
	if err != nil {
		s.log.Warn("driver_lookup_failed", "driver_id", id, "error", err)
		return nil
	}
	return newDriverCard(d, withPhone)
}
