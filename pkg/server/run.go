package server

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/NicolasHaas/roomchat/pkg/store"
)

// Start bootstraps the store and the rooms file, then starts every listener.
// It returns once they accept connections.
func (s *Server) Start() error {
	if s.store == nil {
		return fmt.Errorf("server: missing store dependency")
	}

	created, err := store.EnsureDefaultAdmin(s.store)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if created {
		slog.Warn("created default admin account, change its password",
			"user", store.DefaultAdmin.Username)
	}

	if s.cfg.RoomsFile != "" {
		if _, err := LoadRoomsFromYAML(s.cfg.RoomsFile, s.hub.Rooms); err != nil {
			slog.Error("failed to load rooms config", "err", err)
		}
	}

	if err := s.StartListener(); err != nil {
		return err
	}
	if err := s.StartWebSocket(); err != nil {
		s.Shutdown()
		return err
	}
	if err := s.StartMetricsHTTP(); err != nil {
		s.Shutdown()
		return err
	}

	s.metrics.StartPeriodicLog(s.cfg.MetricsLogInterval, s.ctx.Done())
	return nil
}

// Run starts the server and blocks until shutdown signal.
func (s *Server) Run() error {
	if s.store != nil {
		defer func() { _ = s.store.Close() }()
	}
	if err := s.Start(); err != nil {
		return err
	}

	slog.Info("roomchat server running",
		"listen", s.cfg.ListenAddr,
		"websocket", s.cfg.WebSocketAddr,
		"metrics", s.cfg.MetricsAddr,
	)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-s.ctx.Done():
	}

	slog.Info("shutting down...")
	s.Shutdown()
	return nil
}

// Shutdown stops the listeners, closes every open connection and waits for
// the connection handlers to finish. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		if s.wsServer != nil {
			_ = s.wsServer.Close()
		}

		// Close flushes each connection's queue, so close them in parallel.
		s.connMu.Lock()
		for _, c := range s.connMap {
			go func(c Conn) { _ = c.Close() }(c)
		}
		s.connMu.Unlock()

		s.wg.Wait()
	})
}
