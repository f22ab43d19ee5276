package protocol

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// WSConn carries the line protocol over a WebSocket. Each text message sent
// by the server is one line; a client message may carry several lines.
type WSConn struct {
	ws      *websocket.Conn
	out     *outbox
	timeout time.Duration
	pending []string
}

// NewWSConn wraps an upgraded WebSocket connection.
func NewWSConn(ws *websocket.Conn, opts ConnOptions) *WSConn {
	ws.SetReadLimit(MaxLineLength)
	c := &WSConn{ws: ws, timeout: opts.WriteTimeout}
	c.out = newOutbox(opts.QueueSize, c.writeLine, c.closeWS)
	return c
}

// ReadLine returns the next line received from the peer.
func (c *WSConn) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("protocol: read message: %w", err)
		}
		c.pending = splitLines(string(data))
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Send queues line for delivery without blocking.
func (c *WSConn) Send(line string) error {
	return c.out.send(line)
}

func (c *WSConn) writeLine(line string) error {
	if c.timeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("protocol: set write deadline: %w", err)
		}
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return fmt.Errorf("protocol: write message: %w", err)
	}
	return nil
}

func (c *WSConn) closeWS() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}

// SetReadDeadline bounds the next ReadLine. The zero time clears it.
func (c *WSConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

// Close sends a close frame and closes the connection.
func (c *WSConn) Close() error {
	return c.out.close()
}

// Err returns the send failure that closed the connection, if any.
func (c *WSConn) Err() error {
	return c.out.err()
}

// RemoteAddr returns the peer address.
func (c *WSConn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}
