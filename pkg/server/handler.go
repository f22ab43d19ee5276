package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/NicolasHaas/roomchat/pkg/model"
	"github.com/NicolasHaas/roomchat/pkg/protocol"
)

// Conn is one client transport as seen by the connection handler.
// protocol.LineConn and protocol.WSConn implement it.
type Conn interface {
	model.Sender
	ReadLine() (string, error)
	SetReadDeadline(t time.Time) error
	Close() error
	RemoteAddr() string
}

var (
	_ Conn = (*protocol.LineConn)(nil)
	_ Conn = (*protocol.WSConn)(nil)
)

// StartListener starts the TCP line listener.
func (s *Server) StartListener() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.listener = ln
	slog.Info("chat listener started", "addr", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("accept error", "err", err)
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.ServeConn(protocol.NewLineConn(conn, s.connOptions()))
			}()
		}
	}()
	return nil
}

// ServeConn runs the full lifecycle of one connection: authentication,
// registration, the command loop and teardown. It returns when the client
// disconnects, sends /exit, or the server shuts down.
func (s *Server) ServeConn(conn Conn) {
	connID := uuid.NewString()
	log := slog.With("conn", connID, "remote", conn.RemoteAddr())

	s.trackConn(connID, conn)
	defer s.untrackConn(connID)
	defer func() { _ = conn.Close() }()
	if s.ctx.Err() != nil {
		return
	}

	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	defer s.metrics.ActiveConnections.Add(-1)
	log.Debug("new connection")

	// Ids are handed out at connect time, so a connection that never
	// authenticates still consumes one.
	id := s.hub.Sessions.NextID()

	if s.cfg.AuthTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.AuthTimeout))
	}
	sess, err := s.authenticate(conn, id)
	if err != nil {
		log.Debug("connection closed before authentication", "err", err)
		return
	}
	_ = conn.SetReadDeadline(time.Time{}) // clear deadline

	log = log.With("session", id, "user", sess.Username)
	log.Info("client authenticated", "nickname", sess.Nickname, "admin", sess.IsAdmin)
	defer s.teardown(id, log)

	for {
		line, err := conn.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Debug("read error", "err", err)
			}
			return
		}
		if !s.dispatcher.HandleLine(id, line) {
			return
		}
	}
}

// teardown deregisters session id and tells its last room. Remove is
// idempotent, so only the first caller broadcasts the farewell.
func (s *Server) teardown(id uint64, log *slog.Logger) {
	var (
		last model.Session
		ok   bool
	)
	s.hub.Sessions.Update(func(tx *SessionTx) {
		last, ok = tx.Remove(id)
		if ok {
			tx.BroadcastToRoom(last.Room, protocol.System(fmt.Sprintf("[%s] %s has left the chat.", last.Room, last.Nickname)))
		}
	})
	if !ok {
		return
	}
	s.metrics.TotalDisconnects.Add(1)
	log.Info("client disconnected", "room", last.Room)
}
