// Package client implements the roomchat client networking: dialing the
// server, authenticating and reading server events.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/NicolasHaas/roomchat/pkg/protocol"
)

// AuthError carries the reason of an AUTH_FAIL reply.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "auth failed: " + e.Reason }

// IsAuthError reports whether err is a rejected LOGIN or SIGNUP.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// AuthResult describes an authenticated session.
type AuthResult struct {
	IsAdmin  bool
	Nickname string
}

// Client is one connection to a roomchat server.
type Client struct {
	conn *protocol.LineConn
}

// Dial connects to the server's TCP listener.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: connect: %w", err)
	}
	return &Client{conn: protocol.NewLineConn(conn, protocol.ConnOptions{})}, nil
}

// Login authenticates an existing account.
func (c *Client) Login(username, password string) (AuthResult, error) {
	return c.authenticate(protocol.LoginLine(username, password))
}

// Signup creates an account and logs in with it.
func (c *Client) Signup(username, password, nickname string) (AuthResult, error) {
	return c.authenticate(protocol.SignupLine(username, password, nickname))
}

func (c *Client) authenticate(line string) (AuthResult, error) {
	if err := c.Send(line); err != nil {
		return AuthResult{}, fmt.Errorf("client: send auth: %w", err)
	}

	msg, err := c.ReadMessage()
	if err != nil {
		return AuthResult{}, fmt.Errorf("client: read auth response: %w", err)
	}

	switch msg.Kind {
	case protocol.KindAuthSuccess:
		isAdmin, nickname, err := protocol.ParseAuthSuccess(msg.Body)
		if err != nil {
			return AuthResult{}, fmt.Errorf("client: %w", err)
		}
		return AuthResult{IsAdmin: isAdmin, Nickname: nickname}, nil
	case protocol.KindAuthFail:
		return AuthResult{}, &AuthError{Reason: msg.Body}
	default:
		return AuthResult{}, fmt.Errorf("client: unexpected response %q", msg.Body)
	}
}

// Send queues one input line: a command, a chat message or an auth request.
func (c *Client) Send(line string) error {
	return c.conn.Send(line)
}

// ReadMessage blocks until the next server line arrives.
func (c *Client) ReadMessage() (protocol.ServerMessage, error) {
	line, err := c.conn.ReadLine()
	if err != nil {
		return protocol.ServerMessage{}, err
	}
	return protocol.ParseServerLine(line), nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
