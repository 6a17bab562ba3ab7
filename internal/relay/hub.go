// Package relay is the in-process event relay behind the collaboration
// sockets: rooms per case, a server-updates namespace, and best-effort
// multicast to whoever is connected right now.
package relay

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"iris-server/config"
	"iris-server/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const (
	NamespaceDefault = "/"
	NamespaceUpdates = "/server-updates"

	// UpdateStatusRoom is where update status broadcasts go when no room is given.
	UpdateStatusRoom = "iris_update_status"

	caseRoomPrefix = "case-"
)

var (
	relayJoins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iris_relay_joins_total",
		Help: "Room joins accepted by the relay",
	}, []string{"namespace"})
	relayDeniedJoins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iris_relay_denied_joins_total",
		Help: "Room joins refused by the relay",
	}, []string{"namespace"})
	relayEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iris_relay_events_total",
		Help: "Events emitted by the relay",
	}, []string{"namespace", "event"})
	relayDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iris_relay_dropped_frames_total",
		Help: "Frames dropped because a connection was closed or its buffer full",
	})
)

func init() {
	prometheus.MustRegister(relayJoins, relayDeniedJoins, relayEvents, relayDropped)
}

// RoomForCase names the collaboration room of a case.
func RoomForCase(caseID int64) string {
	return caseRoomPrefix + strconv.FormatInt(caseID, 10)
}

// ParseCaseRoom extracts the case id from a room name.
func ParseCaseRoom(room string) (int64, bool) {
	raw, ok := strings.CutPrefix(room, caseRoomPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// Hub owns the room table of both namespaces. All membership changes and
// every emit snapshot go through mu.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]map[*Client]struct{}
	clients map[string]*Client

	access  CaseAccessChecker
	perms   PermissionChecker
	version string
	metrics *config.Metrics
}

// NewHub builds an empty hub. metrics may be nil.
func NewHub(access CaseAccessChecker, perms PermissionChecker, version string, metrics *config.Metrics) *Hub {
	return &Hub{
		rooms: map[string]map[string]map[*Client]struct{}{
			NamespaceDefault: {},
			NamespaceUpdates: {},
		},
		clients: make(map[string]*Client),
		access:  access,
		perms:   perms,
		version: version,
		metrics: metrics,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.sid] = c
	h.mu.Unlock()
	if h.metrics != nil {
		config.IncWebsocketConnections(h.metrics, c.namespace)
	}
}

// Join adds c to room in its namespace. It reports whether c was not a
// member before; joining twice changes nothing.
func (h *Hub) Join(room string, c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, live := h.clients[c.sid]; !live {
		return false
	}
	rooms := h.rooms[c.namespace]
	members, ok := rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		rooms[room] = members
	}
	if _, already := members[c]; already {
		return false
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	relayJoins.WithLabelValues(c.namespace).Inc()
	return true
}

func (h *Hub) Leave(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, c)
}

func (h *Hub) leaveLocked(room string, c *Client) {
	rooms := h.rooms[c.namespace]
	if members, ok := rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(rooms, room)
		}
	}
	delete(c.rooms, room)
}

// Disconnect drops c from every room and closes its send buffer. Safe to call
// more than once.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	if _, live := h.clients[c.sid]; !live {
		h.mu.Unlock()
		return
	}
	for room := range c.rooms {
		h.leaveLocked(room, c)
	}
	delete(h.clients, c.sid)
	h.mu.Unlock()

	c.close()
	if h.metrics != nil {
		config.DecWebsocketConnections(h.metrics, c.namespace)
	}
}

// Shutdown disconnects every client of both namespaces.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Disconnect(c)
	}
}

// InRoom reports whether c is currently a member of room.
func (h *Hub) InRoom(room string, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

// RoomSize is the number of live members of room in namespace ns.
func (h *Hub) RoomSize(ns, room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[ns][room])
}

// Emit sends event to every member of room except the connection with
// excludeSID and returns how many frames were queued.
func (h *Hub) Emit(ns, room, event string, payload interface{}, excludeSID string) int {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to encode relay frame")
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[ns][room]))
	for c := range h.rooms[ns][room] {
		if c.sid != excludeSID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if c.deliver(frame) {
			sent++
		} else {
			relayDropped.Inc()
		}
	}
	relayEvents.WithLabelValues(ns, event).Inc()
	return sent
}

// Broadcast emits on the server-updates namespace. An empty to targets the
// update status room.
func (h *Hub) Broadcast(event string, payload interface{}, to string) int {
	if to == "" {
		to = UpdateStatusRoom
	}
	return h.Emit(NamespaceUpdates, to, event, payload, "")
}

// NotifyCaseObject pushes a case-obj-notif to the room of caseID.
func (h *Hub) NotifyCaseObject(caseID int64, n models.CaseObjectNotification, excludeSID string) {
	h.Emit(NamespaceDefault, RoomForCase(caseID), models.EventCaseObjectNotif, n, excludeSID)
}

// sendTo queues a frame for one connection only.
func (h *Hub) sendTo(c *Client, event string, payload interface{}) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to encode relay frame")
		return
	}
	if !c.deliver(frame) {
		relayDropped.Inc()
	}
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.RelayEvent{Event: event, Data: data})
}
