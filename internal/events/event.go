// README: Lifecycle event envelope and the narrow publish interface.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"flashtaxi/internal/types"
)

const (
	NewRideRequest = "new-ride-request"
	RideCancelled  = "ride-cancelled"
	LocationUpdate = "location-update"
	RideAccepted   = "ride-accepted"
	DriverArrived  = "driver-arrived"
	RideStarted    = "ride-started"
	RideCompleted  = "ride-completed"
)

const (
	rideRoomPrefix   = "ride-"
	driverRoomPrefix = "driver-"
)

// Event is one notification. An empty Room means every connected client.
// Except names a realtime client id that must not receive the event.
type Event struct {
	Name    string          `json:"event"`
	Room    string          `json:"room,omitempty"`
	Except  string          `json:"except,omitempty"`
	Payload json.RawMessage `json:"data"`
	At      time.Time       `json:"at"`
}

// Publisher delivers events on a best-effort basis.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

func New(name, room string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Event{Name: name, Room: room, Payload: raw, At: time.Now().UTC()}, nil
}

func Broadcast(name string, payload any) (Event, error) {
	return New(name, "", payload)
}

func ToRide(name string, rideID types.ID, payload any) (Event, error) {
	return New(name, RideRoom(rideID), payload)
}

func ToDriver(name string, driverID types.ID, payload any) (Event, error) {
	return New(name, DriverRoom(driverID), payload)
}

func RideRoom(id types.ID) string { return rideRoomPrefix + string(id) }

func DriverRoom(id types.ID) string { return driverRoomPrefix + string(id) }

// DriverFromRoom extracts the driver id from a driver room name.
func DriverFromRoom(room string) (types.ID, bool) {
	id, ok := strings.CutPrefix(room, driverRoomPrefix)
	if !ok || id == "" {
		return "", false
	}
	return types.ID(id), true
}

// RoutingKey is the broker-side name of the event, e.g. "ride.new-ride-request".
func (e Event) RoutingKey() string {
	return "ride." + e.Name
}
