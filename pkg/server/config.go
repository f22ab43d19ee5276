package server

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/roomchat/pkg/store"
)

// RoomYAML represents a room in YAML config.
type RoomYAML struct {
	Name string `yaml:"name"`
}

// RoomsConfig is the top-level YAML config for rooms.
type RoomsConfig struct {
	Rooms []RoomYAML `yaml:"rooms"`
}

// UserYAML represents a user in YAML export. Passwords are never exported.
type UserYAML struct {
	Username string `yaml:"username"`
	Nickname string `yaml:"nickname"`
	Role     string `yaml:"role"`
}

// UsersExport is the top-level YAML for user export.
type UsersExport struct {
	Users []UserYAML `yaml:"users"`
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys absent from
// the file keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI flag
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadRoomsFromYAML reads a rooms YAML file and creates the rooms it lists.
func LoadRoomsFromYAML(path string, rooms *RoomRegistry) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI config
	if err != nil {
		return 0, fmt.Errorf("read rooms config: %w", err)
	}
	return ImportRoomsFromYAML(data, rooms)
}

// ImportRoomsFromYAML parses YAML data and creates the rooms it lists.
// Rooms that already exist are skipped; invalid names are logged and skipped.
// It returns the number of rooms created.
func ImportRoomsFromYAML(data []byte, rooms *RoomRegistry) (int, error) {
	var cfg RoomsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return 0, fmt.Errorf("parse rooms config: %w", err)
	}

	created := 0
	for _, r := range cfg.Rooms {
		err := rooms.Create(r.Name)
		switch {
		case err == nil:
			created++
			slog.Debug("created room from config", "room", r.Name)
		case errors.Is(err, ErrRoomExists):
		default:
			slog.Error("failed to create room from config", "room", r.Name, "err", err)
		}
	}

	slog.Info("imported rooms from YAML", "count", created)
	return created, nil
}

// ExportUsersYAML exports all users as YAML.
func ExportUsersYAML(st store.UserStore) ([]byte, error) {
	users, err := st.LoadUsers()
	if err != nil {
		return nil, err
	}

	export := UsersExport{}
	for _, u := range users {
		export.Users = append(export.Users, UserYAML{
			Username: u.Username,
			Nickname: u.Nickname,
			Role:     u.Role().String(),
		})
	}
	return yaml.Marshal(&export)
}
