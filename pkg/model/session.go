package model

import "time"

// Sender is the writable end of a client connection.
type Sender interface {
	// Send queues one line for delivery. It must not block on the peer.
	Send(line string) error
}

// Session represents an authenticated client connection (in-memory only).
type Session struct {
	ID          uint64
	Conn        Sender
	Username    string
	Nickname    string
	Room        string
	IsAdmin     bool
	ConnectedAt time.Time
}

// Role returns the role granted at authentication time.
func (s *Session) Role() Role {
	return RoleFor(s.IsAdmin)
}
