package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"codequad/internal/room"
	"codequad/pkg/metrics"
)

// Hub is the connection gateway: it accepts websocket connections, runs the
// join handshake, maps each connection to its (room, user) pair, and feeds
// inbound frames into the room's serialization point.
type Hub struct {
	log         *slog.Logger
	reg         *room.Registry
	bus         *RedisBus // nil when running single-instance
	joinTimeout time.Duration
}

// NewHub sets up the gateway with the room registry and an optional bus.
func NewHub(logger *slog.Logger, reg *room.Registry, bus *RedisBus, joinTimeout time.Duration) *Hub {
	return &Hub{log: logger, reg: reg, bus: bus, joinTimeout: joinTimeout}
}

// Run forwards bus traffic from other instances into local rooms until ctx
// is cancelled. Rooms this instance does not hold are skipped.
func (h *Hub) Run(ctx context.Context) {
	if h.bus != nil {
		go h.bus.Subscribe(ctx, func(msg BusMessage) {
			if rm := h.reg.Get(msg.RoomID); rm != nil {
				rm.RelayFrame(msg.Event, msg.Payload)
			}
		})
	}
	<-ctx.Done()
}

// session tracks one connection's join state. A connection maps to at most
// one (room, user) pair at a time.
type session struct {
	conn *Conn
	user room.Member
	room *room.Room
}

// ServeWS handles a new /ws connection for its whole lifetime.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}
	c := NewConn(conn)
	metrics.ClientsConnected.Inc()
	defer metrics.ClientsConnected.Dec()

	go c.WriteLoop(ctx)

	s := &session{conn: c}
	defer h.leave(s)
	defer func() { _ = c.Close() }()

	// Handshake: a connection that has not joined a room within the
	// deadline is dropped without ever entering a member set.
	hsCtx, cancel := context.WithTimeout(ctx, h.joinTimeout)
	for s.room == nil {
		raw, ok := c.Read(hsCtx)
		if !ok {
			cancel()
			h.log.Debug("ws.handshake.abandoned")
			return
		}
		h.handle(ctx, s, raw)
	}
	cancel()

	for {
		raw, ok := c.Read(ctx)
		if !ok {
			break
		}
		h.handle(ctx, s, raw)
	}
}

// handle dispatches one inbound frame. Request failures go back to the
// sender only; they are never broadcast.
func (h *Hub) handle(ctx context.Context, s *session, raw []byte) {
	env, err := decode(raw)
	if err != nil {
		s.conn.Send(room.ErrorFrame(err))
		return
	}

	if env.Event == room.EventJoinRequest {
		h.join(s, env.Payload)
		return
	}
	if env.Event == room.EventLeave {
		h.leave(s)
		return
	}
	if s.room == nil {
		s.conn.Send(room.ErrorFrame(&room.Error{
			Kind: room.ErrUnauthorized, Msg: "join a room first",
		}))
		return
	}

	switch env.Event {
	case room.EventMutationRequest:
		var m room.Mutation
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			s.conn.Send(room.ErrorFrame(&room.Error{Kind: room.ErrInvalidInput, Msg: "malformed mutation"}))
			return
		}
		if _, err := s.room.Apply(s.user.ID, m); err != nil {
			s.conn.Send(room.ErrorFrame(err))
		}

	case room.EventSetActivity:
		var req ActivityRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			s.conn.Send(room.ErrorFrame(&room.Error{Kind: room.ErrInvalidInput, Msg: "malformed activity request"}))
			return
		}
		if err := s.room.SetActivity(s.user.ID, req.Mode); err != nil {
			s.conn.Send(room.ErrorFrame(err))
		}

	case room.EventDrawingUpdate:
		if err := s.room.UpdateDrawing(s.user.ID, env.Payload); err != nil {
			s.conn.Send(room.ErrorFrame(err))
			return
		}
		h.publish(ctx, s.room.ID, room.EventDrawingUpdate, env.Payload)

	case room.EventChatMessage:
		var req ChatRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			s.conn.Send(room.ErrorFrame(&room.Error{Kind: room.ErrInvalidInput, Msg: "malformed chat message"}))
			return
		}
		payload, err := s.room.Chat(s.user.ID, req.Message)
		if err != nil {
			s.conn.Send(room.ErrorFrame(err))
			return
		}
		h.publish(ctx, s.room.ID, room.EventChatMessage, payload)

	case room.EventTypingStart, room.EventTypingPause:
		var req TypingRequest
		// The payload is optional; typing frames without a cursor are fine.
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &req); err != nil {
				s.conn.Send(room.ErrorFrame(&room.Error{Kind: room.ErrInvalidInput, Msg: "malformed typing payload"}))
				return
			}
		}
		payload, err := s.room.Typing(s.user.ID, env.Event == room.EventTypingStart, req.Cursor)
		if err != nil {
			s.conn.Send(room.ErrorFrame(err))
			return
		}
		h.publish(ctx, s.room.ID, env.Event, payload)

	default:
		s.conn.Send(room.ErrorFrame(&room.Error{
			Kind: room.ErrInvalidInput, Msg: "unknown event " + env.Event,
		}))
	}
}

// join runs the handshake for one join-request frame. A rejected join leaves
// the connection unjoined; the client may retry with different input.
func (h *Hub) join(s *session, payload json.RawMessage) {
	var req JoinRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.conn.Send(room.ErrorFrame(&room.Error{Kind: room.ErrInvalidInput, Msg: "malformed join request"}))
		return
	}
	if err := req.Validate(); err != nil {
		s.conn.Send(room.ErrorFrame(err))
		return
	}

	// Re-joining on the same connection first leaves the previous room.
	h.leave(s)

	user := room.Member{ID: uuid.NewString(), Username: req.Username}
	rm, err := h.reg.Join(req.RoomID, user, s.conn)
	if err != nil {
		s.conn.Send(room.ErrorFrame(err))
		return
	}
	s.room, s.user = rm, user
	h.log.Info("ws.join", "room", req.RoomID, "user", req.Username)
}

// leave detaches the session from its room, if any. Safe to call twice.
func (h *Hub) leave(s *session) {
	if s.room == nil {
		return
	}
	h.reg.Leave(s.room, s.user.ID)
	s.room = nil
	s.user = room.Member{}
}

// publish relays an opaque event to other instances, when a bus is wired.
func (h *Hub) publish(ctx context.Context, roomID, event string, payload any) {
	if h.bus == nil {
		return
	}
	if err := h.bus.Publish(ctx, roomID, event, payload); err != nil {
		h.log.Warn("ws.bus.publish", "err", err)
	}
}
