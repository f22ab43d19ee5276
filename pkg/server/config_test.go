package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/NicolasHaas/roomchat/pkg/model"
	"github.com/NicolasHaas/roomchat/pkg/store"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := `
listen_addr: ":7000"
websocket_addr: ":7001"
store_driver: sqlite
store_path: /var/lib/roomchat/users.db
write_timeout: 2s
auth_timeout: 30s
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := DefaultConfig()
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	want := DefaultConfig()
	want.ListenAddr = ":7000"
	want.WebSocketAddr = ":7001"
	want.StoreDriver = store.DriverSQLite
	want.StorePath = "/var/lib/roomchat/users.db"
	want.WriteTimeout = 2 * time.Second
	want.AuthTimeout = 30 * time.Second
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	if err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Fatalf("missing file: expected error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [unterminated"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := LoadConfigFile(path, &cfg); err == nil {
		t.Fatalf("malformed file: expected error")
	}
}

func TestImportRoomsFromYAML(t *testing.T) {
	rooms := NewRoomRegistry()
	if err := rooms.Create("existing"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	data := []byte(`
rooms:
  - name: general
  - name: existing
  - name: Lobby
  - name: "has space"
  - name: random
`)
	created, err := ImportRoomsFromYAML(data, rooms)
	if err != nil {
		t.Fatalf("ImportRoomsFromYAML: %v", err)
	}
	if created != 2 {
		t.Fatalf("created: want 2 got %d", created)
	}
	if diff := cmp.Diff([]string{"existing", "general", "random"}, rooms.List()); diff != "" {
		t.Fatalf("rooms mismatch (-want +got):\n%s", diff)
	}

	if _, err := ImportRoomsFromYAML([]byte("rooms: {"), rooms); err == nil {
		t.Fatalf("malformed YAML: expected error")
	}
}

func TestLoadRoomsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.yaml")
	if err := os.WriteFile(path, []byte("rooms:\n  - name: ops\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rooms := NewRoomRegistry()
	if _, err := LoadRoomsFromYAML(path, rooms); err != nil {
		t.Fatalf("LoadRoomsFromYAML: %v", err)
	}
	if !rooms.Exists("ops") {
		t.Fatalf("room from file not created")
	}
}

func TestExportUsersYAML(t *testing.T) {
	st := store.NewMemory()
	for _, u := range []model.User{
		{Username: "admin", Password: "s3cret", IsAdmin: true, Nickname: "Admin"},
		{Username: "eve", Password: "hunter2", Nickname: "Eve"},
	} {
		if _, err := st.SaveUser(u); err != nil {
			t.Fatalf("SaveUser: %v", err)
		}
	}

	data, err := ExportUsersYAML(st)
	if err != nil {
		t.Fatalf("ExportUsersYAML: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "s3cret") || strings.Contains(out, "hunter2") {
		t.Fatalf("export leaked a password:\n%s", out)
	}
	for _, want := range []string{"username: admin", "role: admin", "username: eve", "role: user", "nickname: Eve"} {
		if !strings.Contains(out, want) {
			t.Fatalf("export missing %q:\n%s", want, out)
		}
	}
}
