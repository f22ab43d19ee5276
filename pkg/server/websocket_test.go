package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/NicolasHaas/roomchat/pkg/store"
)

func TestWebSocketLogin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.WebSocketAddr = "127.0.0.1:0"
	cfg.MetricsAddr = ""
	cfg.MetricsLogInterval = 0

	srv := New(cfg, Dependencies{Store: store.NewMemory()})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+srv.WebSocketAddr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer func() { _ = ws.Close() }()

	if err := ws.WriteMessage(websocket.TextMessage, []byte("LOGIN admin admin")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != "AUTH_SUCCESS true Admin" {
		t.Fatalf("got %q", msg)
	}
}

func TestCheckOrigin(t *testing.T) {
	srv := New(Config{AllowedOrigins: []string{"chat.example.com"}}, Dependencies{})

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "https://chat.example.com", want: true},
		{origin: "https://evil.example.net", want: false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := srv.checkOrigin(r); got != tt.want {
			t.Fatalf("checkOrigin(%q): want %v got %v", tt.origin, tt.want, got)
		}
	}

	open := New(Config{}, Dependencies{})
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "https://anything.test")
	if !open.checkOrigin(r) {
		t.Fatalf("empty allow-list must accept any origin")
	}
}
