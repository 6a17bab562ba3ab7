package models

import "encoding/json"

// RelayEvent is the frame exchanged over a relay connection in both
// directions.
type RelayEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

const (
	EventChange               = "change"
	EventSave                 = "save"
	EventClearBuffer          = "clear_buffer"
	EventJoin                 = "join"
	EventLeave                = "leave"
	EventConnected            = "connected"
	EventCaseObjectNotif      = "case-obj-notif"
	EventJoinUpdate           = "join-update"
	EventUpdatePing           = "update_ping"
	EventUpdateGetVersion     = "update_get_current_version"
	EventUpdateCurrentVersion = "update_current_version"
	EventUpdateStatus         = "update_status"
)

type ObjectAction string

const (
	ActionCreated ObjectAction = "created"
	ActionUpdated ObjectAction = "updated"
	ActionDeleted ObjectAction = "deleted"
)

// CaseObjectNotification is the structured envelope of a case-obj-notif event.
type CaseObjectNotification struct {
	ObjectID   string       `json:"object_id"`
	ActionType ObjectAction `json:"action_type"`
	ObjectType string       `json:"object_type"`
	ObjectData interface{}  `json:"object_data"`
}

// JoinMessage is what the relay sends back on join, success or not.
type JoinMessage struct {
	Message string `json:"message"`
	IsError bool   `json:"is_error"`
}
