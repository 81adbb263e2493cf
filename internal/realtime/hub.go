// README: Websocket hub: client registry, rooms and inbound message handling.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"flashtaxi/internal/events"
	"flashtaxi/internal/logging"
	"flashtaxi/internal/observability"
	"flashtaxi/internal/types"
)

// Inbound event names.
const (
	JoinRide       = "join-ride"
	LeaveRide      = "leave-ride"
	DriverLocation = "driver-location"
)

const roleDriver = "driver"

// LocationSink records a driver's last known position.
type LocationSink interface {
	UpdateLocation(ctx context.Context, driverID types.ID, p types.Point) error
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type locationMessage struct {
	RideID   string       `json:"rideId"`
	Location *types.Point `json:"location"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client

	bus         Bus
	locations   LocationSink
	log         *slog.Logger
	unsubscribe func() error
}

// NewHub uses an in-process bus when bus is nil.
func NewHub(bus Bus, locations LocationSink, log *slog.Logger) *Hub {
	if bus == nil {
		bus = NewLocalBus()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Hub{
		clients:   make(map[string]*Client),
		rooms:     make(map[string]map[string]*Client),
		bus:       bus,
		locations: locations,
		log:       log,
	}
}

// Start subscribes the hub to its bus. Events published before Start are lost.
func (h *Hub) Start(ctx context.Context) error {
	unsub, err := h.bus.Subscribe(ctx, h.deliver)
	if err != nil {
		return err
	}
	h.unsubscribe = unsub
	return nil
}

// Close stops bus delivery and disconnects every client.
func (h *Hub) Close() error {
	var err error
	if h.unsubscribe != nil {
		err = h.unsubscribe()
	}
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.unregister(c)
	}
	return err
}

// Publish implements events.Publisher.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	return h.bus.Publish(ctx, e)
}

// ServeWS upgrades the request and blocks until the connection ends.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, uid, role string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(uuid.NewString(), uid, role, conn)
	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	c.readPump(func(data []byte) { h.handle(r.Context(), c, data) })
	return nil
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	if c.Role == roleDriver && c.UID != "" {
		h.join(c, events.DriverRoom(types.ID(c.UID)))
	}
	observability.RealtimeConnections.Inc()
	h.log.Debug("realtime client connected", "client_id", c.ID, "uid", c.UID, "role", c.Role)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	for room := range c.rooms {
		h.removeFromRoom(c, room)
	}
	h.mu.Unlock()
	c.close()
	observability.RealtimeConnections.Dec()
	h.log.Debug("realtime client disconnected", "client_id", c.ID)
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[c.ID] = c
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(c, room)
}

// removeFromRoom requires h.mu held.
func (h *Hub) removeFromRoom(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// deliver writes e to this instance's matching clients. Slow clients drop frames.
func (h *Hub) deliver(e events.Event) {
	out, err := json.Marshal(frame{Event: e.Name, Data: e.Payload})
	if err != nil {
		h.log.Warn("realtime encode failed", "event", e.Name, "err", err)
		return
	}
	h.mu.RLock()
	var targets []*Client
	if e.Room == "" {
		targets = make([]*Client, 0, len(h.clients))
		for _, c := range h.clients {
			targets = append(targets, c)
		}
	} else {
		targets = make([]*Client, 0, len(h.rooms[e.Room]))
		for _, c := range h.rooms[e.Room] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.ID == e.Except {
			continue
		}
		if !c.enqueue(out) {
			h.log.Debug("realtime frame dropped", "client_id", c.ID, "event", e.Name)
		}
	}
}

func (h *Hub) handle(ctx context.Context, c *Client, data []byte) {
	var in frame
	if err := json.Unmarshal(data, &in); err != nil {
		h.log.Debug("realtime bad frame", "client_id", c.ID, "err", err)
		return
	}
	switch in.Event {
	case JoinRide:
		if id, ok := rideIDFrom(in.Data); ok {
			h.join(c, events.RideRoom(id))
		}
	case LeaveRide:
		if id, ok := rideIDFrom(in.Data); ok {
			h.leave(c, events.RideRoom(id))
		}
	case DriverLocation:
		h.handleLocation(ctx, c, in.Data)
	default:
		h.log.Debug("realtime unknown event", "client_id", c.ID, "event", in.Event)
	}
}

func (h *Hub) handleLocation(ctx context.Context, c *Client, data json.RawMessage) {
	var msg locationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, ok := cleanRideID(msg.RideID)
	if !ok || msg.Location == nil || !msg.Location.Valid() {
		return
	}
	loc := *msg.Location
	e, err := events.ToRide(events.LocationUpdate, id, loc)
	if err != nil {
		return
	}
	e.Except = c.ID
	if err := h.Publish(ctx, e); err != nil {
		h.log.Warn("realtime location relay failed", "ride_id", id, "err", err)
	}
	if c.Role == roleDriver && h.locations != nil {
		if err := h.locations.UpdateLocation(ctx, types.ID(c.UID), loc); err != nil {
			h.log.Warn("driver location update failed", "driver_id", c.UID, "err", err)
		}
	}
}

// rideIDFrom accepts either {"rideId": "..."} or a bare JSON string.
func rideIDFrom(data json.RawMessage) (types.ID, bool) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var obj struct {
			RideID string `json:"rideId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", false
		}
		raw = obj.RideID
	}
	return cleanRideID(raw)
}

func cleanRideID(raw string) (types.ID, bool) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "null", "undefined":
		return "", false
	}
	return types.ID(raw), true
}

// Stats reports connected clients and live rooms.
func (h *Hub) Stats() (clients, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients), len(h.rooms)
}
