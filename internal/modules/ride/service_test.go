// README: Ride service tests (request pipeline, ownership, cancellation, driver hooks).
package ride

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"flashtaxi/internal/events"
	"flashtaxi/internal/logging"
	"flashtaxi/internal/maps"
	"flashtaxi/internal/modules/driver"
	"flashtaxi/internal/modules/pricing"
	"flashtaxi/internal/types"
)

const testDriver = types.ID("d0000000000000000000000000000001")

type stubGeo struct {
	places   map[string]maps.Place
	route    maps.Route
	routeErr error
	geoErr   error
}

func (g *stubGeo) Geocode(_ context.Context, address string) (maps.Place, bool, error) {
	if g.geoErr != nil {
		return maps.Place{}, false, g.geoErr
	}
	p, ok := g.places[address]
	return p, ok, nil
}

func (g *stubGeo) Route(_ context.Context, _, _ types.Point) (maps.Route, error) {
	return g.route, g.routeErr
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.Event
	err error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, e)
	return p.err
}

func (p *recordingPublisher) named(name string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.got {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type recordingLog struct {
	mu  sync.Mutex
	got []Event
}

func (l *recordingLog) AppendEvent(_ context.Context, e *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, *e)
	return nil
}

type fixture struct {
	svc     *Service
	store   *MemoryStore
	geo     *stubGeo
	pub     *recordingPublisher
	log     *recordingLog
	drivers *driver.Service
}

func ptrID(v string) *types.ID {
	id := types.ID(v)
	return &id
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: NewMemoryStore(),
		geo: &stubGeo{
			places: map[string]maps.Place{
				"A": {Address: "Connaught Place, New Delhi", Location: types.Point{Lat: 28.60, Lng: 77.20}},
				"B": {Address: "Sector 18, Noida", Location: types.Point{Lat: 28.70, Lng: 77.25}},
			},
			route: maps.Route{DistanceKm: 12.3, DurationMin: 25},
		},
		pub:     &recordingPublisher{},
		log:     &recordingLog{},
		drivers: driver.NewService(driver.NewMemoryStore()),
	}
	if _, err := f.drivers.SeedIfEmpty(context.Background(), driver.DemoDrivers()); err != nil {
		t.Fatalf("seed drivers: %v", err)
	}

	var mu sync.Mutex
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	f.svc = NewService(Deps{
		Store:     f.store,
		Events:    f.log,
		Geo:       f.geo,
		Pricing:   pricing.NewService(pricing.DefaultRateCard),
		Drivers:   f.drivers,
		Publisher: f.pub,
		Log:       logging.Discard(),
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Minute)
			return clock
		},
	})
	return f
}

func (f *fixture) request(t *testing.T, rider types.ID) *Ride {
	t.Helper()
	r, err := f.svc.RequestRide(context.Background(), RequestCommand{RiderID: rider, PickupAddress: "A", DropoffAddress: "B"})
	if err != nil {
		t.Fatalf("RequestRide: %v", err)
	}
	return r
}

func TestRequestRide_Scenario(t *testing.T) {
	f := newFixture(t)
	r := f.request(t, "rider1")

	if r.Status != StatusRequesting {
		t.Fatalf("status = %s, want requesting", r.Status)
	}
	if r.Fare.Amount != 284.5 || r.Fare.Currency != "INR" {
		t.Fatalf("fare = %+v, want 284.5 INR", r.Fare)
	}
	if r.PaymentMethod != PaymentCash {
		t.Fatalf("payment method = %s, want cash", r.PaymentMethod)
	}
	if r.Pickup.Point != (types.Point{Lat: 28.60, Lng: 77.20}) || r.Dropoff.Address != "Sector 18, Noida" {
		t.Fatalf("unexpected locations %+v %+v", r.Pickup, r.Dropoff)
	}

	c := NewCreated(r)
	if c.Distance != "12.3 km" || c.Duration != "25 mins" || c.ETA != 30 {
		t.Fatalf("unexpected projection %+v", c)
	}

	stored, err := f.store.Get(context.Background(), r.ID)
	if err != nil || stored.RequestedAt.IsZero() {
		t.Fatalf("ride not stored: %v %+v", err, stored)
	}

	got := f.pub.named(events.NewRideRequest)
	if len(got) != 1 || got[0].Room != "" {
		t.Fatalf("expected one broadcast new-ride-request, got %+v", got)
	}
	var payload struct {
		RideID types.ID    `json:"rideId"`
		Fare   types.Money `json:"fare"`
	}
	if err := json.Unmarshal(got[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.RideID != r.ID || payload.Fare.Amount != 284.5 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if len(f.log.got) != 1 || f.log.got[0].ToStatus != StatusRequesting {
		t.Fatalf("expected creation audit event, got %+v", f.log.got)
	}
}

func TestRequestRide_InvalidAddress(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RequestRide(context.Background(), RequestCommand{RiderID: "rider1", PickupAddress: "A", DropoffAddress: "Atlantis"})
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	rides, _ := f.store.ListByRider(context.Background(), "rider1", 0)
	if len(rides) != 0 {
		t.Fatalf("no ride should be stored, got %d", len(rides))
	}
	if len(f.pub.got) != 0 {
		t.Fatalf("no event should be published, got %+v", f.pub.got)
	}
}

func TestRequestRide_Validation(t *testing.T) {
	f := newFixture(t)
	cases := []RequestCommand{
		{RiderID: "rider1", PickupAddress: "", DropoffAddress: "B"},
		{RiderID: "rider1", PickupAddress: "A", DropoffAddress: "   "},
		{RiderID: "", PickupAddress: "A", DropoffAddress: "B"},
		{RiderID: "rider1", PickupAddress: "A", DropoffAddress: "B", PaymentMethod: "bitcoin"},
	}
	for _, cmd := range cases {
		if _, err := f.svc.RequestRide(context.Background(), cmd); !errors.Is(err, ErrValidation) {
			t.Errorf("RequestRide(%+v) err = %v, want ErrValidation", cmd, err)
		}
	}
}

func TestRequestRide_GeoErrorsPropagate(t *testing.T) {
	for _, want := range []error{maps.ErrOutOfServiceArea, maps.ErrNoRouteFound, maps.ErrUpstream} {
		f := newFixture(t)
		f.geo.routeErr = want
		_, err := f.svc.RequestRide(context.Background(), RequestCommand{RiderID: "rider1", PickupAddress: "A", DropoffAddress: "B"})
		if !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
		if len(f.pub.got) != 0 {
			t.Errorf("%v: no event should be published", want)
		}
	}

	f := newFixture(t)
	f.geo.geoErr = maps.ErrUpstream
	if _, err := f.svc.Estimate(context.Background(), EstimateCommand{PickupAddress: "A", DropoffAddress: "B"}); !errors.Is(err, maps.ErrUpstream) {
		t.Fatalf("expected ErrUpstream from geocode, got %v", err)
	}
}

func TestRequestRide_IdenticalPickupAndDropoff(t *testing.T) {
	f := newFixture(t)
	f.geo.route = maps.Route{}
	r, err := f.svc.RequestRide(context.Background(), RequestCommand{RiderID: "rider1", PickupAddress: "A", DropoffAddress: "A"})
	if err != nil {
		t.Fatalf("identical points must be accepted: %v", err)
	}
	if r.Fare.Amount != pricing.BaseFare {
		t.Fatalf("fare = %v, want base fare", r.Fare.Amount)
	}
}

func TestRequestRide_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("hub down")
	if _, err := f.svc.RequestRide(context.Background(), RequestCommand{RiderID: "rider1", PickupAddress: "A", DropoffAddress: "B"}); err != nil {
		t.Fatalf("publish failures must not fail the request: %v", err)
	}
}

func TestEstimate_NoSideEffects(t *testing.T) {
	f := newFixture(t)
	est, err := f.svc.Estimate(context.Background(), EstimateCommand{PickupAddress: "A", DropoffAddress: "B"})
	if err != nil {
		t.Fatal(err)
	}
	want := Estimate{
		Distance: "12.3 km", Duration: "25 mins", Fare: "₹285",
		BaseFare: "₹50", PerKmRate: "₹15/km", PerMinRate: "₹2/min",
		Amount: 284.5, Currency: "INR",
		Breakdown: pricing.Breakdown{Base: 50, Distance: 184.5, Time: 50},
	}
	if *est != want {
		t.Fatalf("estimate = %+v, want %+v", *est, want)
	}
	if len(f.pub.got) != 0 || len(f.log.got) != 0 {
		t.Fatal("estimate must not publish or log transitions")
	}
	if _, err := f.svc.Estimate(context.Background(), EstimateCommand{PickupAddress: "Atlantis", DropoffAddress: "B"}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestGet_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.request(t, "owner")

	if _, err := f.svc.Get(ctx, "owner", r.ID); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := f.svc.Get(ctx, "intruder", r.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.svc.Cancel(ctx, CancelCommand{RiderID: "intruder", RideID: r.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on cancel, got %v", err)
	}
	if _, err := f.svc.Get(ctx, "owner", types.NewID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := f.svc.Cancel(ctx, CancelCommand{RiderID: "owner", RideID: r.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Get(ctx, "intruder", r.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on a cancelled ride, got %v", err)
	}
}

func TestCancel_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.request(t, "rider1")

	if err := f.svc.Cancel(ctx, CancelCommand{RiderID: "rider1", RideID: r.ID, Reason: "changed plans"}); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	first, _ := f.store.Get(ctx, r.ID)
	if first.Status != StatusCancelled || first.CancelledAt == nil || first.CancelReason != "changed plans" {
		t.Fatalf("unexpected state after cancel %+v", first)
	}

	err := f.svc.Cancel(ctx, CancelCommand{RiderID: "rider1", RideID: r.ID})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel err = %v, want ErrInvalidTransition", err)
	}
	second, _ := f.store.Get(ctx, r.ID)
	if !second.CancelledAt.Equal(*first.CancelledAt) || second.StatusVersion != first.StatusVersion {
		t.Fatal("second cancel must not mutate the ride")
	}
	if len(f.pub.named(events.RideCancelled)) != 0 {
		t.Fatal("no driver was assigned, nothing should be sent")
	}
}

func TestCancel_NotifiesAssignedDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.request(t, "rider1")

	if _, err := f.svc.Accept(ctx, DriverCommand{RideID: r.ID, DriverID: testDriver}); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	d, _ := f.drivers.Get(ctx, testDriver)
	if d.Available {
		t.Fatal("driver should be busy after accepting")
	}

	if err := f.svc.Cancel(ctx, CancelCommand{RiderID: "rider1", RideID: r.ID}); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	sent := f.pub.named(events.RideCancelled)
	if len(sent) != 1 || sent[0].Room != events.DriverRoom(testDriver) {
		t.Fatalf("expected ride-cancelled to the driver channel, got %+v", sent)
	}
	d, _ = f.drivers.Get(ctx, testDriver)
	if !d.Available {
		t.Fatal("driver should be released after cancellation")
	}
}

func TestDriverHooks_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.request(t, "rider1")
	cmd := DriverCommand{RideID: r.ID, DriverID: testDriver}

	steps := []struct {
		name string
		fn   func(context.Context, DriverCommand) (*Ride, error)
		want Status
	}{
		{"accept", f.svc.Accept, StatusAccepted},
		{"arrive", f.svc.Arrive, StatusDriverArrived},
		{"start", f.svc.Start, StatusStarted},
		{"complete", f.svc.Complete, StatusCompleted},
	}
	for _, step := range steps {
		got, err := step.fn(ctx, cmd)
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if got.Status != step.want {
			t.Fatalf("%s: status %s, want %s", step.name, got.Status, step.want)
		}
	}

	done, _ := f.store.Get(ctx, r.ID)
	if done.AcceptedAt == nil || done.ArrivedAt == nil || done.StartedAt == nil || done.CompletedAt == nil {
		t.Fatalf("timestamps missing: %+v", done)
	}
	if !done.AcceptedAt.Before(*done.StartedAt) || !done.StartedAt.Before(*done.CompletedAt) {
		t.Fatal("timestamps must be monotonic")
	}

	if err := f.svc.Cancel(ctx, CancelCommand{RiderID: "rider1", RideID: r.ID}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel after completion err = %v, want ErrInvalidTransition", err)
	}
	after, _ := f.store.Get(ctx, r.ID)
	if after.CancelledAt != nil {
		t.Fatal("completed ride must never get cancelledAt")
	}

	d, _ := f.drivers.Get(ctx, testDriver)
	if d.TotalRides != 1 || !d.Available {
		t.Fatalf("driver bookkeeping wrong: %+v", d)
	}
	for _, name := range []string{events.RideAccepted, events.DriverArrived, events.RideStarted, events.RideCompleted} {
		sent := f.pub.named(name)
		if len(sent) != 1 || sent[0].Room != events.RideRoom(r.ID) {
			t.Errorf("expected %s on the ride channel, got %+v", name, sent)
		}
	}
	if len(f.log.got) != 5 {
		t.Fatalf("expected 5 audit events, got %d", len(f.log.got))
	}
}

func TestDriverHooks_WithoutDriverRegistry(t *testing.T) {
	f := newFixture(t)
	svc := NewService(Deps{
		Store:   f.store,
		Geo:     f.geo,
		Pricing: pricing.NewService(pricing.DefaultRateCard),
		Log:     logging.Discard(),
	})
	ctx := context.Background()
	r, err := svc.RequestRide(ctx, RequestCommand{RiderID: "rider1", PickupAddress: "A", DropoffAddress: "B"})
	if err != nil {
		t.Fatal(err)
	}
	cmd := DriverCommand{RideID: r.ID, DriverID: testDriver}
	for _, step := range []func(context.Context, DriverCommand) (*Ride, error){svc.Accept, svc.Arrive, svc.Start, svc.Complete} {
		if _, err := step(ctx, cmd); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	got, err := f.store.Get(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if d := svc.DetailOf(ctx, got); d.Driver != nil {
		t.Fatalf("unexpected driver card %+v", d.Driver)
	}
}

func TestDriverHooks_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.request(t, "rider1")

	if _, err := f.svc.Arrive(ctx, DriverCommand{RideID: r.ID, DriverID: testDriver}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("arrive before assignment err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Accept(ctx, DriverCommand{RideID: r.ID, DriverID: "ghost"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown driver err = %v, want ErrValidation", err)
	}
	if _, err := f.svc.Accept(ctx, DriverCommand{RideID: r.ID, DriverID: testDriver}); err != nil {
		t.Fatal(err)
	}
	other := types.ID("d0000000000000000000000000000002")
	if _, err := f.svc.Accept(ctx, DriverCommand{RideID: r.ID, DriverID: other}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second accept err = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.Start(ctx, DriverCommand{RideID: r.ID, DriverID: other}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other driver err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Start(ctx, DriverCommand{RideID: r.ID, DriverID: testDriver}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("start before arrival err = %v, want ErrInvalidTransition", err)
	}
}

func TestHistory_LimitAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < HistoryLimit+5; i++ {
		f.request(t, "rider1")
	}
	f.request(t, "rider2")

	first := f.request(t, "rider3")
	if _, err := f.svc.Accept(ctx, DriverCommand{RideID: first.ID, DriverID: testDriver}); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.History(ctx, "rider1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != HistoryLimit {
		t.Fatalf("history len = %d, want %d", len(got), HistoryLimit)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.After(got[i-1].Date) {
			t.Fatalf("history not sorted newest first at %d", i)
		}
	}
	if got[0].Pickup != "Connaught Place, New Delhi" || got[0].Driver != nil {
		t.Fatalf("unexpected summary %+v", got[0])
	}

	withDriver, _ := f.svc.History(ctx, "rider3")
	if len(withDriver) != 1 || withDriver[0].Driver == nil || withDriver[0].Driver.Name != "Rajesh Kumar" {
		t.Fatalf("expected driver summary, got %+v", withDriver)
	}
	if withDriver[0].Driver.Phone != "" {
		t.Fatal("history driver summary should not expose the phone number")
	}

	detail, err := f.svc.Detail(ctx, "rider3", first.ID)
	if err != nil || detail.Driver == nil || detail.Driver.Phone == "" || detail.AcceptedAt == nil {
		t.Fatalf("detail = %+v, err = %v", detail, err)
	}
}
