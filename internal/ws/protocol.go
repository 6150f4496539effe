package ws

import (
	"encoding/json"
	"strings"

	"codequad/internal/room"
)

// JoinRequest is the first frame a client must send on a new connection.
type JoinRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// Validate trims both fields and enforces the handshake minimums: usernames
// of at least 3 characters, room ids of at least 5.
func (j *JoinRequest) Validate() error {
	j.RoomID = strings.TrimSpace(j.RoomID)
	j.Username = strings.TrimSpace(j.Username)
	if len(j.Username) < 3 {
		return &room.Error{Kind: room.ErrInvalidInput, Msg: "username must be at least 3 characters long"}
	}
	if len(j.RoomID) < 5 {
		return &room.Error{Kind: room.ErrInvalidInput, Msg: "room id must be at least 5 characters long"}
	}
	return nil
}

// ChatRequest is an inbound chat message.
type ChatRequest struct {
	Message string `json:"message"`
}

// TypingRequest is an inbound typing indicator with an opaque cursor blob.
type TypingRequest struct {
	Cursor json.RawMessage `json:"cursor"`
}

// ActivityRequest switches the room-wide activity mode.
type ActivityRequest struct {
	Mode room.ActivityMode `json:"mode"`
}

// decode parses a raw frame into an envelope.
func decode(raw []byte) (room.Envelope, error) {
	var env room.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return room.Envelope{}, &room.Error{Kind: room.ErrInvalidInput, Msg: "malformed frame"}
	}
	if env.Event == "" {
		return room.Envelope{}, &room.Error{Kind: room.ErrInvalidInput, Msg: "frame has no event"}
	}
	return env, nil
}
