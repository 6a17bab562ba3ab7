package relay

import (
	"context"
	"encoding/json"
	"time"

	"iris-server/internal/models"

	"github.com/rs/zerolog/log"
)

type CaseAccessChecker interface {
	CheckCaseAccess(ctx context.Context, user *models.User, caseID int64, level models.AccessLevel) error
}

type PermissionChecker interface {
	HasPermission(ctx context.Context, user *models.User, perm models.Permission) (bool, error)
}

const accessDeniedMessage = "access denied"

// Dispatch routes one inbound frame. Unknown events are ignored.
func (h *Hub) Dispatch(ctx context.Context, c *Client, ev models.RelayEvent) {
	if c.namespace == NamespaceUpdates {
		h.dispatchUpdates(ctx, c, ev)
		return
	}

	switch ev.Event {
	case models.EventJoin:
		h.handleJoin(ctx, c, ev.Data)
	case models.EventLeave:
		if room, ok := channelOf(ev.Data); ok {
			h.Leave(room, c)
		}
	case models.EventChange:
		h.relayEdit(c, ev, "last_change")
	case models.EventSave:
		h.relayEdit(c, ev, "last_saved")
	case models.EventClearBuffer:
		payload, room, ok := h.joinedPayload(c, ev)
		if ok {
			h.Emit(NamespaceDefault, room, ev.Event, payload, "")
		}
	default:
		log.Debug().Str("event", ev.Event).Str("sid", c.sid).Msg("Unknown relay event")
	}
}

// handleJoin checks read access before touching the room table.
func (h *Hub) handleJoin(ctx context.Context, c *Client, data json.RawMessage) {
	room, ok := channelOf(data)
	if !ok {
		h.denyJoin(c, models.EventJoin)
		return
	}
	caseID, ok := ParseCaseRoom(room)
	if !ok {
		h.denyJoin(c, models.EventJoin)
		return
	}
	if err := h.access.CheckCaseAccess(ctx, c.user, caseID, models.AccessRead); err != nil {
		log.Info().Err(err).Str("user", c.user.Username).Str("room", room).Msg("Relay join refused")
		h.denyJoin(c, models.EventJoin)
		return
	}

	if h.Join(room, c) {
		h.Emit(NamespaceDefault, room, models.EventJoin, models.JoinMessage{
			Message: c.user.Username + " just joined",
		}, "")
	}
}

func (h *Hub) denyJoin(c *Client, event string) {
	relayDeniedJoins.WithLabelValues(c.namespace).Inc()
	h.sendTo(c, event, models.JoinMessage{Message: accessDeniedMessage, IsError: true})
}

// relayEdit forwards change/save to the rest of the room, stamped with the
// acting user.
func (h *Hub) relayEdit(c *Client, ev models.RelayEvent, stampKey string) {
	payload, room, ok := h.joinedPayload(c, ev)
	if !ok {
		return
	}
	stamp, _ := json.Marshal(c.user.Username)
	payload[stampKey] = stamp
	h.Emit(NamespaceDefault, room, ev.Event, payload, c.sid)
}

// joinedPayload decodes an object payload and requires its channel to be a
// room c has joined.
func (h *Hub) joinedPayload(c *Client, ev models.RelayEvent) (map[string]json.RawMessage, string, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(ev.Data, &payload); err != nil || payload == nil {
		log.Debug().Str("event", ev.Event).Str("sid", c.sid).Msg("Relay payload is not an object")
		return nil, "", false
	}
	room, ok := channelOf(ev.Data)
	if !ok || !h.InRoom(room, c) {
		log.Debug().Str("event", ev.Event).Str("sid", c.sid).Str("room", room).Msg("Refusing emit into a room not joined")
		return nil, "", false
	}
	return payload, room, true
}

// dispatchUpdates serves server administrators only. Everything a client
// sends here is answered to that client; room broadcasts come from the server.
func (h *Hub) dispatchUpdates(ctx context.Context, c *Client, ev models.RelayEvent) {
	admin, err := h.perms.HasPermission(ctx, c.user, models.PermServerAdministrator)
	if err != nil || !admin {
		if ev.Event == models.EventJoinUpdate {
			h.denyJoin(c, models.EventJoinUpdate)
			return
		}
		log.Debug().Str("event", ev.Event).Str("sid", c.sid).Msg("Refusing update event from non-administrator")
		return
	}

	switch ev.Event {
	case models.EventJoinUpdate:
		room, ok := channelOf(ev.Data)
		if !ok {
			room = UpdateStatusRoom
		}
		if h.Join(room, c) {
			h.Emit(NamespaceUpdates, room, models.EventJoin, models.JoinMessage{
				Message: c.user.Username + " just joined",
			}, "")
		}
	case models.EventUpdatePing:
		h.sendTo(c, models.EventUpdatePing, map[string]string{"message": "Pong"})
	case models.EventUpdateGetVersion:
		h.sendTo(c, models.EventUpdateCurrentVersion, map[string]string{"version": h.version})
	default:
		log.Debug().Str("event", ev.Event).Str("sid", c.sid).Msg("Unknown update event")
	}
}

func channelOf(data json.RawMessage) (string, bool) {
	var body struct {
		Channel string `json:"channel"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Channel == "" {
		return "", false
	}
	return body.Channel, true
}

// StatusUpdate is the payload REST callers broadcast on the updates namespace.
type StatusUpdate struct {
	Message   string    `json:"message"`
	Level     string    `json:"level,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
