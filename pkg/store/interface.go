// Package store persists user credential records. The default backend is an
// append-only CSV flat file; SQLite and in-memory backends share the same
// UserStore contract.
package store

import (
	"fmt"

	"github.com/NicolasHaas/roomchat/pkg/model"
)

// Backend names accepted by Open.
const (
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// UserStore defines the persistence interface for user records.
type UserStore interface {
	// Close closes the underlying storage.
	Close() error

	// LoadUsers returns every record in insertion order.
	LoadUsers() ([]model.User, error)

	// SaveUser appends a record. It returns false if the username is taken.
	SaveUser(user model.User) (bool, error)

	// Authenticate returns the record matching username and password,
	// or (nil, nil) if the credentials do not match.
	Authenticate(username, password string) (*model.User, error)
}

// Compile-time checks.
var (
	_ UserStore = (*FileStore)(nil)
	_ UserStore = (*SQLiteStore)(nil)
	_ UserStore = (*MemoryStore)(nil)
)

// DefaultAdmin is written to an empty store on first start.
var DefaultAdmin = model.User{
	Username: "admin",
	Password: "admin",
	IsAdmin:  true,
	Nickname: "Admin",
}

// Open returns the backend named by driver, storing data at path.
func Open(driver, path string) (UserStore, error) {
	switch driver {
	case DriverCSV, "":
		return NewFile(path), nil
	case DriverSQLite:
		return NewSQLite(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}

// EnsureDefaultAdmin writes DefaultAdmin if the store holds no users.
// It reports whether the record was created.
func EnsureDefaultAdmin(st UserStore) (bool, error) {
	users, err := st.LoadUsers()
	if err != nil {
		return false, fmt.Errorf("store: bootstrap: %w", err)
	}
	if len(users) > 0 {
		return false, nil
	}
	created, err := st.SaveUser(DefaultAdmin)
	if err != nil {
		return false, fmt.Errorf("store: bootstrap: %w", err)
	}
	return created, nil
}
