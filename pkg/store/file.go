package store

import (
	"crypto/subtle"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/NicolasHaas/roomchat/pkg/model"
)

// DefaultFilePath is the flat file used when no path is configured.
const DefaultFilePath = "users.csv"

// FileStore keeps users in an append-only CSV file with one
// username,password,isAdmin,nickname record per line. Passwords are stored
// and compared in clear.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a FileStore backed by path. The file is created on first save.
func NewFile(path string) *FileStore {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileStore{path: path}
}

// Close is a no-op; the file is opened per operation.
func (s *FileStore) Close() error {
	return nil
}

// LoadUsers reads every well-formed record. Malformed lines are skipped.
func (s *FileStore) LoadUsers() ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() ([]model.User, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: open users file: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var users []model.User
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, fmt.Errorf("store: read users file: %w", err)
		}
		if len(rec) < 4 || rec[0] == "" {
			continue
		}
		users = append(users, model.User{
			Username: rec[0],
			Password: rec[1],
			IsAdmin:  rec[2] == "true",
			Nickname: rec[3],
		})
	}
	return users, nil
}

// SaveUser appends user unless the username already exists.
func (s *FileStore) SaveUser(user model.User) (bool, error) {
	if err := user.Validate(); err != nil {
		return false, fmt.Errorf("store: save user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.Username == user.Username {
			return false, nil
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // path from server config
	if err != nil {
		return false, fmt.Errorf("store: open users file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{user.Username, user.Password, strconv.FormatBool(user.IsAdmin), user.Nickname}); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("store: write user: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("store: write user: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("store: close users file: %w", err)
	}
	return true, nil
}

// Authenticate looks the user up and compares the password.
func (s *FileStore) Authenticate(username, password string) (*model.User, error) {
	users, err := s.LoadUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1 {
				found := u
				return &found, nil
			}
			return nil, nil
		}
	}
	return nil, nil
}
