package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/NicolasHaas/roomchat/pkg/model"
)

var (
	ErrRoomExists      = errors.New("server: room already exists")
	ErrInvalidRoomName = errors.New("server: invalid room name")
	ErrRoomNotFound    = errors.New("server: room not found")
	ErrRoomProtected   = errors.New("server: room cannot be deleted")
)

// RoomRegistry tracks the named rooms. The Lobby is a permanent entry created
// with the registry; it is never listed and cannot be deleted.
type RoomRegistry struct {
	mu    sync.RWMutex
	names []string // creation order, Lobby excluded
	rooms map[string]struct{}
}

// NewRoomRegistry creates a registry holding only the Lobby.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: map[string]struct{}{model.LobbyName: {}},
	}
}

// Create registers a new room.
func (r *RoomRegistry) Create(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&RoomTx{r: r}).Create(name)
}

// Delete removes a room. Sessions still attributed to it are not touched;
// callers relocate them under the same critical section (see Hub).
func (r *RoomRegistry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&RoomTx{r: r}).Delete(name)
}

// Exists reports whether name is the Lobby or a registered room.
func (r *RoomRegistry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[name]
	return ok
}

// List returns the created rooms in creation order.
func (r *RoomRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// RoomTx is exclusive access to a RoomRegistry inside Hub.inOrder.
type RoomTx struct {
	r *RoomRegistry
}

func (tx *RoomTx) Create(name string) error {
	if err := model.ValidateRoomName(name); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRoomName, err)
	}
	if _, ok := tx.r.rooms[name]; ok {
		return ErrRoomExists
	}
	tx.r.rooms[name] = struct{}{}
	tx.r.names = append(tx.r.names, name)
	return nil
}

func (tx *RoomTx) Delete(name string) error {
	if name == model.LobbyName {
		return ErrRoomProtected
	}
	if _, ok := tx.r.rooms[name]; !ok {
		return ErrRoomNotFound
	}
	delete(tx.r.rooms, name)
	for i, n := range tx.r.names {
		if n == name {
			tx.r.names = append(tx.r.names[:i], tx.r.names[i+1:]...)
			break
		}
	}
	return nil
}

func (tx *RoomTx) Exists(name string) bool {
	_, ok := tx.r.rooms[name]
	return ok
}
