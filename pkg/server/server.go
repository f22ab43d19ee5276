// Package server implements the roomchat server: the session and room
// registries, the command dispatcher and the per-connection handler.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/NicolasHaas/roomchat/pkg/protocol"
	"github.com/NicolasHaas/roomchat/pkg/store"
)

// Config holds server configuration. Field tags name the keys of the
// optional YAML config file.
type Config struct {
	ListenAddr     string   `yaml:"listen_addr"`     // TCP bind address (e.g. ":10000")
	WebSocketAddr  string   `yaml:"websocket_addr"`  // HTTP bind address for /ws (empty = disabled)
	AllowedOrigins []string `yaml:"allowed_origins"` // WebSocket Origin allow-list (empty = any)
	MetricsAddr    string   `yaml:"metrics_addr"`    // HTTP bind address for /metrics (empty = disabled)
	StoreDriver    string   `yaml:"store_driver"`    // csv, sqlite or memory
	StorePath      string   `yaml:"store_path"`      // users file or database path
	RoomsFile      string   `yaml:"rooms_file"`      // YAML file defining rooms to create on startup

	SendQueueSize      int           `yaml:"send_queue_size"`      // outbound lines buffered per connection
	WriteTimeout       time.Duration `yaml:"write_timeout"`        // per-line write deadline
	AuthTimeout        time.Duration `yaml:"auth_timeout"`         // pre-auth read deadline (0 = none)
	MetricsLogInterval time.Duration `yaml:"metrics_log_interval"` // periodic metrics log (0 = disabled)

	// CLI-only actions (run and exit)
	ExportUsers bool `yaml:"-"` // export all users as YAML and exit
}

// Dependencies holds external dependencies for the server.
// Server assumes ownership of Store and will Close() it when Run returns.
type Dependencies struct {
	Store store.UserStore
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         ":10000",
		MetricsAddr:        ":10002",
		StoreDriver:        store.DriverCSV,
		StorePath:          store.DefaultFilePath,
		SendQueueSize:      protocol.DefaultQueueSize,
		WriteTimeout:       5 * time.Second,
		MetricsLogInterval: 60 * time.Second,
	}
}

// Server is the main roomchat server.
type Server struct {
	cfg        Config
	hub        *Hub
	dispatcher *Dispatcher
	metrics    *Metrics
	store      store.UserStore

	listener net.Listener
	wsServer *http.Server
	wsAddr   net.Addr

	connMu  sync.Mutex
	connMap map[string]Conn // connection id -> transport, for shutdown

	wg       sync.WaitGroup
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	metrics := NewMetrics()
	hub := NewHub(metrics)
	return &Server{
		cfg:        cfg,
		hub:        hub,
		dispatcher: NewDispatcher(hub, metrics),
		metrics:    metrics,
		store:      deps.Store,
		connMap:    make(map[string]Conn),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Hub returns the registries.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Addr returns the bound TCP address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// WebSocketAddr returns the bound WebSocket address, or nil when disabled.
func (s *Server) WebSocketAddr() net.Addr {
	return s.wsAddr
}

func (s *Server) connOptions() protocol.ConnOptions {
	return protocol.ConnOptions{
		QueueSize:    s.cfg.SendQueueSize,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

func (s *Server) trackConn(id string, c Conn) {
	s.connMu.Lock()
	s.connMap[id] = c
	s.connMu.Unlock()
}

func (s *Server) untrackConn(id string) {
	s.connMu.Lock()
	delete(s.connMap, id)
	s.connMu.Unlock()
}
