package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"codequad/internal/app"
)

// BusMessage is one room event relayed across instances. Only the opaque
// relay classes travel on the bus (chat, typing, drawing); tree authority
// stays with the instance that owns the room.
type BusMessage struct {
	RoomID  string          `json:"roomId"`
	Origin  string          `json:"origin"` // publishing instance id
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type RedisBus struct {
	rdb    *redis.Client
	log    *slog.Logger
	origin string
}

// NewRedisBus connects to redis and verifies connectivity
func NewRedisBus(ctx context.Context, cfg app.Config, log *slog.Logger) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBus{rdb: rdb, log: log, origin: uuid.NewString()}, nil
}

// Publish sends a room event to the redis channel for its room.
func (b *RedisBus) Publish(ctx context.Context, roomID, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m := BusMessage{RoomID: roomID, Origin: b.origin, Event: event, Payload: raw}
	buf, _ := json.Marshal(m)
	return b.rdb.Publish(ctx, channel(roomID), buf).Err()
}

// Subscribe listens to all room channels and invokes fn for each message
// published by another instance. Own messages are filtered out.
func (b *RedisBus) Subscribe(ctx context.Context, fn func(BusMessage)) {
	pubsub := b.rdb.PSubscribe(ctx, channel("*"))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg := <-ch:
			var bm BusMessage
			_ = json.Unmarshal([]byte(msg.Payload), &bm)
			if bm.RoomID != "" && bm.Origin != b.origin {
				fn(bm)
			}
		}
	}
}

// Close shuts down the redis connection
func (b *RedisBus) Close() { _ = b.rdb.Close() }

// channel namespacing for room pub/sub
func channel(roomID string) string { return "room:" + roomID }
