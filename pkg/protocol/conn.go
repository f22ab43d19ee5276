package protocol

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// ConnOptions tunes a client transport.
type ConnOptions struct {
	QueueSize    int           // outbound queue length (default DefaultQueueSize)
	WriteTimeout time.Duration // per-line write deadline, 0 = none
}

// LineConn carries newline-delimited lines over a stream connection.
// ReadLine must be called from a single goroutine; Send and Close are safe
// for concurrent use.
type LineConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
	out     *outbox
	timeout time.Duration
}

// NewLineConn wraps conn and starts its writer goroutine.
func NewLineConn(conn net.Conn, opts ConnOptions) *LineConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 512), MaxLineLength)
	c := &LineConn{
		conn:    conn,
		scanner: scanner,
		timeout: opts.WriteTimeout,
	}
	c.out = newOutbox(opts.QueueSize, c.writeLine, conn.Close)
	return c
}

// ReadLine returns the next line without its terminator. It returns io.EOF
// when the peer closes the connection.
func (c *LineConn) ReadLine() (string, error) {
	if c.scanner.Scan() {
		return strings.TrimSuffix(c.scanner.Text(), "\r"), nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", fmt.Errorf("protocol: read line: %w", err)
	}
	return "", io.EOF
}

// Send queues line for delivery without blocking.
func (c *LineConn) Send(line string) error {
	return c.out.send(line)
}

func (c *LineConn) writeLine(line string) error {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("protocol: set write deadline: %w", err)
		}
	}
	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		return fmt.Errorf("protocol: write line: %w", err)
	}
	return nil
}

// SetReadDeadline bounds the next ReadLine. The zero time clears it.
func (c *LineConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Close writes any queued lines and closes the connection. A line that
// cannot be written within the write timeout ends the flush.
func (c *LineConn) Close() error {
	return c.out.close()
}

// Err returns the send failure that closed the connection, if any.
func (c *LineConn) Err() error {
	return c.out.err()
}

// RemoteAddr returns the peer address.
func (c *LineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
