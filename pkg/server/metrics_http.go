package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// StartMetricsHTTP starts a lightweight HTTP server that exposes /metrics
// in Prometheus text exposition format. It runs in the background and
// shuts down when the server context is cancelled.
//
// Bind address is :10002 by default, configurable via Config.MetricsAddr.
func (s *Server) StartMetricsHTTP() error {
	addr := s.cfg.MetricsAddr
	if addr == "" {
		return nil // metrics endpoint disabled
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("metrics HTTP listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics HTTP error", "err", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()
	return nil
}

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Write errors to http.ResponseWriter are non-actionable; suppress errcheck.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}
	writeFloat := func(name, help, mtype string, value float64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %f\n", name, value)
	}

	writeFloat("roomchat_uptime_seconds", "Server uptime in seconds.", "gauge", uptime)

	write("roomchat_connections_active", "Current open client connections.", "gauge",
		m.ActiveConnections.Load())
	write("roomchat_connections_total", "Lifetime client connections accepted.", "counter",
		m.TotalConnections.Load())
	write("roomchat_disconnects_total", "Sessions torn down.", "counter",
		m.TotalDisconnects.Load())
	write("roomchat_sessions_online", "Authenticated sessions.", "gauge",
		int64(s.hub.Sessions.Count()))
	write("roomchat_rooms", "Rooms currently registered, Lobby excluded.", "gauge",
		int64(len(s.hub.Rooms.List())))

	write("roomchat_auth_success_total", "Successful authentication attempts.", "counter",
		m.SuccessfulAuths.Load())
	write("roomchat_auth_failed_total", "Failed authentication attempts.", "counter",
		m.FailedAuths.Load())
	write("roomchat_signups_total", "Accounts created.", "counter",
		m.Signups.Load())

	write("roomchat_chat_messages_total", "Room chat lines relayed.", "counter",
		m.ChatMessagesSent.Load())
	write("roomchat_private_messages_total", "Private messages delivered.", "counter",
		m.PrivateMessages.Load())
	write("roomchat_delivery_failures_total", "Lines refused by a recipient transport.", "counter",
		m.DeliveryFailures.Load())

	write("roomchat_rooms_created_total", "Rooms created.", "counter",
		m.RoomsCreated.Load())
	write("roomchat_rooms_deleted_total", "Rooms deleted.", "counter",
		m.RoomsDeleted.Load())
	write("roomchat_kicks_total", "Users kicked.", "counter",
		m.KickCount.Load())
}
