package room

import (
	"encoding/json"
	"time"
)

// Wire event names shared by server and client.
const (
	EventJoinRequest     = "join-request"
	EventLeave           = "leave"
	EventSync            = "sync"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
	EventMutationRequest = "mutation-request"
	EventTreeChanged     = "tree-changed"
	EventSetActivity     = "set-activity"
	EventActivityChanged = "activity-changed"
	EventDrawingUpdate   = "drawing-update"
	EventDrawingRequest  = "drawing-request"
	EventChatMessage     = "chat-message"
	EventTypingStart     = "typing-start"
	EventTypingPause     = "typing-pause"
	EventError           = "error"
)

// Envelope is the frame format for every websocket message in either
// direction: an event name plus an event-specific payload.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals an outbound frame. Payload types are all known to
// marshal, so errors are treated as programmer mistakes and swallowed.
func Encode(event string, payload any) []byte {
	raw, _ := json.Marshal(payload)
	b, _ := json.Marshal(Envelope{Event: event, Payload: raw})
	return b
}

// SyncPayload is the private state dump a newly admitted member receives.
type SyncPayload struct {
	User     Member          `json:"user"`
	Members  []Member        `json:"members"`
	FileTree *EntryNode      `json:"fileTree"`
	Activity ActivityMode    `json:"activityMode"`
	Drawing  json.RawMessage `json:"drawing,omitempty"`
}

// PresencePayload carries a membership delta (user-joined / user-left).
type PresencePayload struct {
	User Member `json:"user"`
}

// ActivityPayload announces the room-wide activity mode.
type ActivityPayload struct {
	Mode ActivityMode `json:"mode"`
}

// ChatPayload is a relayed chat message stamped by the server.
type ChatPayload struct {
	User    Member    `json:"user"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sentAt"`
}

// TypingPayload is a relayed typing indicator.
type TypingPayload struct {
	User   Member          `json:"user"`
	Cursor json.RawMessage `json:"cursor,omitempty"`
}

// ErrorPayload reports a failed request back to its sender only.
type ErrorPayload struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ErrorFrame encodes err as an error event for the requesting connection.
func ErrorFrame(err error) []byte {
	kind := KindOf(err)
	if kind == "" {
		kind = ErrInvalidInput
	}
	return Encode(EventError, ErrorPayload{Kind: kind, Message: err.Error()})
}
