package store

import (
	"fmt"
	"sync"

	"github.com/NicolasHaas/roomchat/pkg/model"
)

// MemoryStore provides an in-memory UserStore implementation for tests.
// It mirrors FileStore behavior for validation and duplicates.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	users map[string]model.User
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{users: make(map[string]model.User)}
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}

// LoadUsers returns all users in insertion order.
func (s *MemoryStore) LoadUsers() ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]model.User, 0, len(s.order))
	for _, name := range s.order {
		users = append(users, s.users[name])
	}
	return users, nil
}

// SaveUser stores user unless the username is taken.
func (s *MemoryStore) SaveUser(user model.User) (bool, error) {
	if err := user.Validate(); err != nil {
		return false, fmt.Errorf("store: save user: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return false, nil
	}
	s.users[user.Username] = user
	s.order = append(s.order, user.Username)
	return true, nil
}

// Authenticate compares the stored password in clear.
func (s *MemoryStore) Authenticate(username, password string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok || u.Password != password {
		return nil, nil
	}
	return &u, nil
}
