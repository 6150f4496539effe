package room

import (
	"errors"
	"log/slog"
	"sync"

	"codequad/pkg/metrics"
)

// Registry is the process-wide room table. Its mutex is the single mutation
// point for the table itself, so a join racing an empty-room cleanup for the
// same id can never be lost: cleanup closes the room under this lock, and a
// joiner that caught the closed instance retries against a fresh one.
type Registry struct {
	log *slog.Logger

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{log: log, rooms: map[string]*Room{}}
}

// GetOrCreate returns the room for id, creating it if absent. Concurrent
// callers for the same absent id observe the same instance.
func (reg *Registry) GetOrCreate(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[id]
	if r == nil {
		r = newRoom(id, reg.log)
		reg.rooms[id] = r
		metrics.RoomsActive.Set(float64(len(reg.rooms)))
		reg.log.Info("registry.create", "room", id)
	}
	return r
}

// Get returns the room for id without creating one.
func (reg *Registry) Get(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[id]
}

// Join admits u into the room for roomID, creating the room on first join.
func (reg *Registry) Join(roomID string, u Member, sink Sink) (*Room, error) {
	for {
		r := reg.GetOrCreate(roomID)
		err := r.Join(u, sink)
		if errors.Is(err, errClosed) {
			// Lost a race with empty-room cleanup; the table no longer
			// holds this instance.
			continue
		}
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Leave removes the user from r and reclaims the room once its member set
// is empty. A room never outlives its last member.
func (reg *Registry) Leave(r *Room, userID string) {
	_, empty, ok := r.Leave(userID)
	if ok && empty {
		reg.ReleaseIfEmpty(r.ID)
	}
}

// ReleaseIfEmpty drops the room for id if it is still memberless. The
// emptiness re-check runs under the registry lock so a concurrent join either
// lands before the check or retries after the close.
func (reg *Registry) ReleaseIfEmpty(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[id]
	if r == nil {
		return
	}
	if r.closeIfEmpty() {
		delete(reg.rooms, id)
		metrics.RoomsActive.Set(float64(len(reg.rooms)))
		reg.log.Info("registry.release", "room", id)
	}
}

// Len reports the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}
