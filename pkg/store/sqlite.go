package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/NicolasHaas/roomchat/pkg/crypto"
	"github.com/NicolasHaas/roomchat/pkg/model"
)

// SQLiteStore keeps users in a SQLite database. Passwords are stored as
// Argon2id hashes, so LoadUsers returns the hash in User.Password.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite database and runs migrations.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrent read performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set WAL: %w", err)
	}
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set busy_timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT    NOT NULL UNIQUE CHECK(length(username) > 0 AND length(username) <= 32),
		password_hash TEXT    NOT NULL,
		salt          TEXT    NOT NULL,
		is_admin      INTEGER NOT NULL DEFAULT 0 CHECK(is_admin IN (0, 1)),
		nickname      TEXT    NOT NULL,
		created_at    TEXT    NOT NULL DEFAULT (datetime('now'))
	);
	`

	if _, err := s.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("store: create schema_migrations: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return fmt.Errorf("store: check schema_migrations: %w", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (0)"); err != nil {
			return fmt.Errorf("store: init schema_migrations: %w", err)
		}
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_migrations LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}

	migrations := []struct {
		version    int
		statements []string
	}{
		{version: 1, statements: []string{schema}},
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("store: migrate v%d: %w", m.version, err)
			}
		}
		if _, err := s.db.ExecContext(ctx, "UPDATE schema_migrations SET version = ?", m.version); err != nil {
			return fmt.Errorf("store: update schema version: %w", err)
		}
	}
	return nil
}

// LoadUsers returns all users ordered by creation.
func (s *SQLiteStore) LoadUsers() ([]model.User, error) {
	rows, err := s.db.QueryContext(context.Background(), "SELECT username, password_hash, is_admin, nickname FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var u model.User
		var isAdmin int
		if err := rows.Scan(&u.Username, &u.Password, &isAdmin, &u.Nickname); err != nil {
			return nil, fmt.Errorf("store: scan user: %w", err)
		}
		u.IsAdmin = isAdmin == 1
		users = append(users, u)
	}
	return users, rows.Err()
}

// SaveUser inserts user with a freshly salted password hash.
func (s *SQLiteStore) SaveUser(user model.User) (bool, error) {
	if err := user.Validate(); err != nil {
		return false, fmt.Errorf("store: save user: %w", err)
	}
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return false, fmt.Errorf("store: save user: %w", err)
	}
	isAdmin := 0
	if user.IsAdmin {
		isAdmin = 1
	}
	res, err := s.db.ExecContext(
		context.Background(),
		"INSERT OR IGNORE INTO users (username, password_hash, salt, is_admin, nickname) VALUES (?, ?, ?, ?, ?)",
		user.Username,
		crypto.HashPasswordHex(user.Password, salt),
		hex.EncodeToString(salt),
		isAdmin,
		user.Nickname,
	)
	if err != nil {
		return false, fmt.Errorf("store: save user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: save user: %w", err)
	}
	return n == 1, nil
}

// Authenticate verifies password against the stored hash.
func (s *SQLiteStore) Authenticate(username, password string) (*model.User, error) {
	u := &model.User{}
	var isAdmin int
	var saltHex string
	err := s.db.QueryRowContext(context.Background(), "SELECT username, password_hash, salt, is_admin, nickname FROM users WHERE username = ?", username).
		Scan(&u.Username, &u.Password, &saltHex, &isAdmin, &u.Nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user: %w", err)
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("store: decode salt: %w", err)
	}
	if !crypto.VerifyPassword(password, salt, u.Password) {
		return nil, nil
	}
	u.IsAdmin = isAdmin == 1
	return u, nil
}
