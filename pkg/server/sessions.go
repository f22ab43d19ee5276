package server

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/NicolasHaas/roomchat/pkg/model"
)

var (
	ErrDuplicateSession = errors.New("server: duplicate session id")
	ErrAlreadyOnline    = errors.New("server: user already online")
)

// SessionRegistry is the live set of authenticated sessions. One RWMutex
// guards every session field the registry hands out, including Room.
type SessionRegistry struct {
	mu      sync.RWMutex
	nextID  atomic.Uint64
	byID    map[uint64]*model.Session
	order   []*model.Session // insertion order, used for iteration
	metrics *Metrics
}

// NewSessionRegistry creates an empty registry. metrics may be nil.
func NewSessionRegistry(metrics *Metrics) *SessionRegistry {
	return &SessionRegistry{
		byID:    make(map[uint64]*model.Session),
		metrics: metrics,
	}
}

// NextID returns a fresh session id. Ids start at 1 and are never reused.
func (r *SessionRegistry) NextID() uint64 {
	return r.nextID.Add(1)
}

// Update runs fn with exclusive access to the registry.
func (r *SessionRegistry) Update(fn func(tx *SessionTx)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&SessionTx{r: r})
}

// Add registers a session.
func (r *SessionRegistry) Add(s *model.Session) error {
	var err error
	r.Update(func(tx *SessionTx) { err = tx.Add(s) })
	return err
}

// Remove deregisters a session and returns its final state. Removing an
// absent id is a no-op.
func (r *SessionRegistry) Remove(id uint64) (model.Session, bool) {
	var (
		removed model.Session
		ok      bool
	)
	r.Update(func(tx *SessionTx) { removed, ok = tx.Remove(id) })
	return removed, ok
}

// Find returns a copy of the session with the given id.
func (r *SessionRegistry) Find(id uint64) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return model.Session{}, false
	}
	return *s, true
}

// FindByUsername returns a copy of the online session for username.
func (r *SessionRegistry) FindByUsername(username string) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s := r.byUsername(username); s != nil {
		return *s, true
	}
	return model.Session{}, false
}

// Snapshot returns copies of every session matching pred, in registry order.
// A nil pred matches all sessions.
func (r *SessionRegistry) Snapshot(pred func(*model.Session) bool) []model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Session, 0, len(r.order))
	for _, s := range r.order {
		if pred == nil || pred(s) {
			out = append(out, *s)
		}
	}
	return out
}

// RoomMembers returns the room of session id and the sessions in it, read
// under one lock.
func (r *SessionRegistry) RoomMembers(id uint64) (string, []model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	self, ok := r.byID[id]
	if !ok {
		return "", nil, false
	}
	var members []model.Session
	for _, s := range r.order {
		if s.Room == self.Room {
			members = append(members, *s)
		}
	}
	return self.Room, members, true
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// BroadcastToRoom delivers line to every session in room.
func (r *SessionRegistry) BroadcastToRoom(room, line string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.broadcastLocked(room, line)
}

// BroadcastFromSession delivers format(sender) to the sender's current room.
// It returns false if the session is gone.
func (r *SessionRegistry) BroadcastFromSession(id uint64, format func(sender model.Session) string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return false
	}
	r.broadcastLocked(s.Room, format(*s))
	return true
}

func (r *SessionRegistry) byUsername(username string) *model.Session {
	for _, s := range r.order {
		if s.Username == username {
			return s
		}
	}
	return nil
}

func (r *SessionRegistry) broadcastLocked(room, line string) int {
	n := 0
	for _, s := range r.order {
		if s.Room == room {
			r.deliver(s, line)
			n++
		}
	}
	return n
}

// deliver is a best-effort send. A failed peer is closed by its transport and
// cleaned up by its own connection handler.
func (r *SessionRegistry) deliver(s *model.Session, line string) {
	if s.Conn == nil {
		return
	}
	if err := s.Conn.Send(line); err != nil {
		if r.metrics != nil {
			r.metrics.DeliveryFailures.Add(1)
		}
		slog.Debug("delivery failed", "session", s.ID, "user", s.Username, "err", err)
	}
}

// SessionTx is exclusive access to a SessionRegistry, valid only inside
// SessionRegistry.Update or Hub.inOrder. Pointers it returns must not escape.
type SessionTx struct {
	r *SessionRegistry
}

// Add inserts s.
func (tx *SessionTx) Add(s *model.Session) error {
	if _, exists := tx.r.byID[s.ID]; exists {
		return ErrDuplicateSession
	}
	if tx.r.byUsername(s.Username) != nil {
		return ErrAlreadyOnline
	}
	tx.r.byID[s.ID] = s
	tx.r.order = append(tx.r.order, s)
	return nil
}

// Remove deletes the session with id, returning its final state.
func (tx *SessionTx) Remove(id uint64) (model.Session, bool) {
	s, ok := tx.r.byID[id]
	if !ok {
		return model.Session{}, false
	}
	delete(tx.r.byID, id)
	for i, o := range tx.r.order {
		if o == s {
			tx.r.order = append(tx.r.order[:i], tx.r.order[i+1:]...)
			break
		}
	}
	return *s, true
}

// Get returns the live session with id, or nil.
func (tx *SessionTx) Get(id uint64) *model.Session {
	return tx.r.byID[id]
}

// GetByUsername returns the live session for username, or nil.
func (tx *SessionTx) GetByUsername(username string) *model.Session {
	return tx.r.byUsername(username)
}

// Each calls fn for every session in registry order.
func (tx *SessionTx) Each(fn func(s *model.Session)) {
	for _, s := range tx.r.order {
		fn(s)
	}
}

// Send delivers line to one session.
func (tx *SessionTx) Send(s *model.Session, line string) {
	tx.r.deliver(s, line)
}

// BroadcastToRoom is the pre-locked broadcast for callers already inside the
// registry's critical section.
func (tx *SessionTx) BroadcastToRoom(room, line string) int {
	return tx.r.broadcastLocked(room, line)
}
