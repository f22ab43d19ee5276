package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections  atomic.Int64 // lifetime connections accepted (TCP and WebSocket)
	ActiveConnections atomic.Int64 // current open connections
	FailedAuths       atomic.Int64 // rejected LOGIN/SIGNUP attempts
	SuccessfulAuths   atomic.Int64 // sessions registered
	Signups           atomic.Int64 // accounts created via SIGNUP
	TotalDisconnects  atomic.Int64 // sessions torn down

	// Message counters
	ChatMessagesSent atomic.Int64 // room chat lines relayed
	PrivateMessages  atomic.Int64 // /msg deliveries
	DeliveryFailures atomic.Int64 // lines a recipient's transport refused

	// Room counters
	RoomsCreated atomic.Int64
	RoomsDeleted atomic.Int64

	// Admin counters
	KickCount atomic.Int64
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	SuccessfulAuths   int64 `json:"successful_auths"`
	FailedAuths       int64 `json:"failed_auths"`
	Signups           int64 `json:"signups"`
	TotalDisconnects  int64 `json:"total_disconnects"`

	ChatMessagesSent int64 `json:"chat_messages_sent"`
	PrivateMessages  int64 `json:"private_messages"`
	DeliveryFailures int64 `json:"delivery_failures"`

	RoomsCreated int64 `json:"rooms_created"`
	RoomsDeleted int64 `json:"rooms_deleted"`

	KickCount int64 `json:"kick_count"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     int64(uptime.Seconds()),
		ActiveConnections: m.ActiveConnections.Load(),
		TotalConnections:  m.TotalConnections.Load(),
		SuccessfulAuths:   m.SuccessfulAuths.Load(),
		FailedAuths:       m.FailedAuths.Load(),
		Signups:           m.Signups.Load(),
		TotalDisconnects:  m.TotalDisconnects.Load(),
		ChatMessagesSent:  m.ChatMessagesSent.Load(),
		PrivateMessages:   m.PrivateMessages.Load(),
		DeliveryFailures:  m.DeliveryFailures.Load(),
		RoomsCreated:      m.RoomsCreated.Load(),
		RoomsDeleted:      m.RoomsDeleted.Load(),
		KickCount:         m.KickCount.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a periodic metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"chat_msgs", s.ChatMessagesSent,
		"private_msgs", s.PrivateMessages,
		"delivery_failures", s.DeliveryFailures,
	)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed. A non-positive interval disables it.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
