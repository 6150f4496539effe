package room

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"codequad/pkg/metrics"
)

// ActivityMode selects what the room's shared canvas currently shows.
type ActivityMode string

const (
	ModeCoding  ActivityMode = "coding"
	ModeDrawing ActivityMode = "drawing"
)

// Member is a user's public identity inside a room.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Sink is where a member's frames go. Send must never block; it reports
// whether the frame was queued.
type Sink interface {
	Send(frame []byte) bool
}

// errClosed is returned by Join when the registry has already reclaimed the
// room; the caller retries against a fresh instance.
var errClosed = errors.New("room closed")

type member struct {
	Member
	sink Sink
	seq  int // admission order, keeps member lists stable
}

// Room is one collaboration session. Its mutex is the single serialization
// point for membership changes and tree mutations alike; no two of them ever
// interleave mid-update.
type Room struct {
	ID  string
	log *slog.Logger

	mu        sync.Mutex
	closed    bool
	members   map[string]*member // by user id
	nextSeq   int
	tree      *Tree
	activity  ActivityMode
	drawing   json.RawMessage // last full snapshot, last writer wins
	presenter string          // user id of the last drawing writer
}

func newRoom(id string, log *slog.Logger) *Room {
	return &Room{
		ID:       id,
		log:      log.With("room", id),
		members:  map[string]*member{},
		tree:     NewTree(),
		activity: ModeCoding,
	}
}

// Join admits u, sends it a private sync frame, and announces it to everyone
// already joined. A display-name collision rejects the join with NameConflict
// and leaves the room untouched.
func (r *Room) Join(u Member, sink Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errClosed
	}
	for _, m := range r.members {
		if m.Username == u.Username {
			return newErr(ErrNameConflict, "username %q is taken in this room", u.Username)
		}
	}

	m := &member{Member: u, sink: sink, seq: r.nextSeq}
	r.nextSeq++
	r.members[u.ID] = m

	state := SyncPayload{
		User:     u,
		Members:  r.memberList(),
		FileTree: r.tree.Snapshot(),
		Activity: r.activity,
		Drawing:  r.drawing,
	}
	r.send(m, Encode(EventSync, state))
	r.broadcast(u.ID, Encode(EventUserJoined, PresencePayload{User: u}))

	r.log.Info("room.join", "user", u.Username, "members", len(r.members))
	return nil
}

// Leave removes the user and tells the remaining members. It is a no-op for
// users that already left; empty reports whether the room is now memberless.
func (r *Room) Leave(userID string) (left Member, empty, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.members[userID]
	if !exists {
		return Member{}, len(r.members) == 0, false
	}
	delete(r.members, userID)
	if r.presenter == userID {
		r.presenter = ""
	}
	r.broadcast(userID, Encode(EventUserLeft, PresencePayload{User: m.Member}))

	r.log.Info("room.leave", "user", m.Username, "members", len(r.members))
	return m.Member, len(r.members) == 0, true
}

// Apply validates and applies a tree mutation on behalf of userID and fans
// the resulting delta out to every other member. The originator gets no echo.
func (r *Room) Apply(userID string, m Mutation) (Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[userID]; !exists {
		return Change{}, newErr(ErrUnauthorized, "not a member of room %s", r.ID)
	}
	change, err := r.tree.Apply(m)
	if err != nil {
		return Change{}, err
	}

	metrics.MutationsTotal.WithLabelValues(string(m.Kind)).Inc()
	r.broadcast(userID, Encode(EventTreeChanged, change))
	return change, nil
}

// SetActivity switches the room-wide mode and announces it to every member,
// requester included. Entering drawing mode asks the current presenter for a
// fresh snapshot so late switchers catch up.
func (r *Room) SetActivity(userID string, mode ActivityMode) error {
	if mode != ModeCoding && mode != ModeDrawing {
		return newErr(ErrInvalidInput, "unknown activity mode %q", mode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[userID]; !exists {
		return newErr(ErrUnauthorized, "not a member of room %s", r.ID)
	}
	r.activity = mode
	r.broadcast("", Encode(EventActivityChanged, ActivityPayload{Mode: mode}))

	if mode == ModeDrawing && r.presenter != "" && r.presenter != userID {
		if p, exists := r.members[r.presenter]; exists {
			r.send(p, Encode(EventDrawingRequest, nil))
		}
	}
	return nil
}

// UpdateDrawing stores payload as the room's latest snapshot and forwards it
// verbatim to the other members. The payload is opaque to the server.
func (r *Room) UpdateDrawing(userID string, payload json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[userID]; !exists {
		return newErr(ErrUnauthorized, "not a member of room %s", r.ID)
	}
	r.drawing = payload
	r.presenter = userID
	r.broadcast(userID, Encode(EventDrawingUpdate, payload))
	return nil
}

// Chat relays a chat message to every other member, stamped with the
// sender's identity and a server timestamp. The room keeps no history. The
// stamped payload is returned for cross-instance relay.
func (r *Room) Chat(userID, message string) (ChatPayload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.members[userID]
	if !exists {
		return ChatPayload{}, newErr(ErrUnauthorized, "not a member of room %s", r.ID)
	}
	payload := ChatPayload{
		User:    m.Member,
		Message: message,
		SentAt:  time.Now().UTC(),
	}
	r.broadcast(userID, Encode(EventChatMessage, payload))
	return payload, nil
}

// Typing relays a typing indicator to every other member.
func (r *Room) Typing(userID string, start bool, cursor json.RawMessage) (TypingPayload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.members[userID]
	if !exists {
		return TypingPayload{}, newErr(ErrUnauthorized, "not a member of room %s", r.ID)
	}
	event := EventTypingPause
	if start {
		event = EventTypingStart
	}
	payload := TypingPayload{User: m.Member, Cursor: cursor}
	r.broadcast(userID, Encode(event, payload))
	return payload, nil
}

// RelayFrame delivers an already-encoded frame to every member. Used by the
// cross-instance bus, where the originator is on another instance.
func (r *Room) RelayFrame(event string, payload json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast("", Encode(event, payload))
}

// Members returns the current member list in admission order.
func (r *Room) Members() []Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.memberList()
}

// Activity returns the current room-wide mode.
func (r *Room) Activity() ActivityMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activity
}

// TreeLen reports the number of tree entries, root included.
func (r *Room) TreeLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Len()
}

// closeIfEmpty marks a memberless room closed so late joiners holding a stale
// pointer retry against the registry. Called with the registry lock held.
func (r *Room) closeIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) > 0 {
		return false
	}
	r.closed = true
	return true
}

func (r *Room) memberList() []Member {
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m.Member)
	}
	// Insertion sort on admission order; rooms are small.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && r.members[out[j].ID].seq < r.members[out[j-1].ID].seq; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// broadcast queues frame for every member except excludeID. Sends never
// block; a member with a full queue just misses the frame.
func (r *Room) broadcast(excludeID string, frame []byte) {
	for id, m := range r.members {
		if id == excludeID {
			continue
		}
		r.send(m, frame)
	}
}

func (r *Room) send(m *member, frame []byte) {
	if !m.sink.Send(frame) {
		metrics.BroadcastDropped.Inc()
		r.log.Warn("room.send.dropped", "user", m.Username)
	}
}
