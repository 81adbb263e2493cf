// README: Tests for event construction, fan-out and the broker/push sinks.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"

	"flashtaxi/internal/types"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestRooms(t *testing.T) {
	if RideRoom("abc") != "ride-abc" {
		t.Fatalf("RideRoom = %q", RideRoom("abc"))
	}
	id, ok := DriverFromRoom(DriverRoom("d1"))
	if !ok || id != "d1" {
		t.Fatalf("DriverFromRoom round trip = %q %v", id, ok)
	}
	for _, room := range []string{"ride-abc", "driver-", ""} {
		if _, ok := DriverFromRoom(room); ok {
			t.Errorf("DriverFromRoom(%q) should fail", room)
		}
	}
}

func TestFanout_AllSinksCalledAndErrorsJoined(t *testing.T) {
	boom := errors.New("boom")
	a := &recorder{err: boom}
	b := &recorder{}
	f := NewFanout(nil).Add("a", a).Add("nil", nil).Add("b", b)
	if f.Len() != 2 {
		t.Fatalf("Len = %d, want 2", f.Len())
	}
	e, err := Broadcast(NewRideRequest, map[string]string{"rideId": "r1"})
	if err != nil {
		t.Fatal(err)
	}
	err = f.Publish(context.Background(), e)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("every sink must see the event: a=%d b=%d", len(a.got), len(b.got))
	}
}

type stubWriter struct{ msgs []kafka.Message }

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}
func (w *stubWriter) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	w := &stubWriter{}
	k := NewKafkaPublisherWithWriter(w)
	ctx := context.Background()

	cancelled, _ := ToDriver(RideCancelled, "d1", map[string]string{"rideId": "r1"})
	broadcast, _ := Broadcast(NewRideRequest, map[string]string{"rideId": "r1"})
	location, _ := ToRide(LocationUpdate, "r1", map[string]float64{"lat": 1})
	for _, e := range []Event{cancelled, broadcast, location} {
		if err := k.Publish(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if len(w.msgs) != 2 {
		t.Fatalf("expected location updates to be skipped, got %d messages", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "driver-d1" || string(w.msgs[1].Key) != NewRideRequest {
		t.Fatalf("unexpected keys %q %q", w.msgs[0].Key, w.msgs[1].Key)
	}
	var decoded Event
	if err := json.Unmarshal(w.msgs[0].Value, &decoded); err != nil || decoded.Name != RideCancelled {
		t.Fatalf("decoded %+v err=%v", decoded, err)
	}
}

type stubChannel struct {
	exchange, key string
	msg           amqp.Publishing
}

func (c *stubChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return nil
}

func TestRabbitPublisher(t *testing.T) {
	ch := &stubChannel{}
	r := NewRabbitPublisherWithChannel(ch, "ride.events")
	e, _ := ToDriver(RideCancelled, "d1", map[string]string{"rideId": "r1"})
	if err := r.Publish(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if ch.exchange != "ride.events" || ch.key != "ride.ride-cancelled" {
		t.Fatalf("published to %q/%q", ch.exchange, ch.key)
	}
	if ch.msg.DeliveryMode != amqp.Persistent || ch.msg.Type != RideCancelled {
		t.Fatalf("unexpected publishing %+v", ch.msg)
	}
}

type stubMessenger struct{ sent []*messaging.Message }

func (m *stubMessenger) Send(_ context.Context, msg *messaging.Message) (string, error) {
	m.sent = append(m.sent, msg)
	return "id", nil
}

type stubTokens map[types.ID]string

func (s stubTokens) DeviceToken(_ context.Context, id types.ID) (string, error) {
	return s[id], nil
}

func TestPushPublisher(t *testing.T) {
	m := &stubMessenger{}
	p := NewPushPublisher(m, stubTokens{"d1": "token-d1"})
	ctx := context.Background()

	req, _ := Broadcast(NewRideRequest, map[string]string{"rideId": "r1"})
	toD1, _ := ToDriver(RideCancelled, "d1", map[string]string{"rideId": "r1"})
	toD2, _ := ToDriver(RideCancelled, "d2", map[string]string{"rideId": "r2"})
	started, _ := ToRide(RideStarted, "r1", nil)
	for _, e := range []Event{req, toD1, toD2, started} {
		if err := p.Publish(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if len(m.sent) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(m.sent))
	}
	if m.sent[0].Topic != DriversTopic {
		t.Errorf("new ride request should go to topic, got %+v", m.sent[0])
	}
	if m.sent[1].Token != "token-d1" || m.sent[1].Data["event"] != RideCancelled {
		t.Errorf("cancellation should go to the driver device, got %+v", m.sent[1])
	}
}
