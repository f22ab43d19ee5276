package client

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/NicolasHaas/roomchat/pkg/model"
	"github.com/NicolasHaas/roomchat/pkg/protocol"
)

// Engine runs the receive loop of an authenticated client and tracks the
// session state the server reports.
type Engine struct {
	client *Client

	mu       sync.RWMutex
	room     string
	nickname string
	isAdmin  bool

	done chan struct{}
	err  error

	// Callbacks; set before Start.
	OnMessage    func(msg protocol.ServerMessage)
	OnDisconnect func(err error) // nil err on a clean close
}

// NewEngine wraps an authenticated client. Sessions start in the Lobby.
func NewEngine(c *Client, auth AuthResult) *Engine {
	return &Engine{
		client:   c,
		room:     model.LobbyName,
		nickname: auth.Nickname,
		isAdmin:  auth.IsAdmin,
		done:     make(chan struct{}),
	}
}

// Start reads server messages in the background until the connection ends.
func (e *Engine) Start() {
	go func() {
		defer close(e.done)
		for {
			msg, err := e.client.ReadMessage()
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
					err = nil
					slog.Debug("connection closed")
				} else {
					slog.Error("read error", "err", err)
				}
				e.err = err
				if e.OnDisconnect != nil {
					e.OnDisconnect(err)
				}
				return
			}
			e.apply(msg)
			if e.OnMessage != nil {
				e.OnMessage(msg)
			}
		}
	}()
}

func (e *Engine) apply(msg protocol.ServerMessage) {
	if msg.Kind != protocol.KindJoinSuccess {
		return
	}
	e.mu.Lock()
	e.room = msg.Body
	e.mu.Unlock()
}

// Send forwards one input line to the server.
func (e *Engine) Send(line string) error {
	return e.client.Send(line)
}

// Room returns the room the server last confirmed.
func (e *Engine) Room() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.room
}

// Nickname returns the display name granted at login.
func (e *Engine) Nickname() string {
	return e.nickname
}

// IsAdmin reports whether the session has admin rights.
func (e *Engine) IsAdmin() bool {
	return e.isAdmin
}

// Done returns a channel that's closed when the connection is lost.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Err returns the error that ended the receive loop, once Done is closed.
func (e *Engine) Err() error {
	<-e.done
	return e.err
}

// Close closes the connection; the receive loop then stops.
func (e *Engine) Close() error {
	return e.client.Close()
}
