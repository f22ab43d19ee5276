package protocol

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func TestLineConnReadLine(t *testing.T) {
	server, client := net.Pipe()
	lc := NewLineConn(server, ConnOptions{})
	defer func() { _ = lc.Close() }()

	go func() {
		_, _ = io.WriteString(client, "hello\r\nworld\n\n")
		_ = client.Close()
	}()

	for _, want := range []string{"hello", "world", ""} {
		got, err := lc.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine: unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("ReadLine = %q, want %q", got, want)
		}
	}
	if _, err := lc.ReadLine(); err != io.EOF {
		t.Fatalf("ReadLine after close: err = %v, want io.EOF", err)
	}
}

func TestLineConnReadLineTooLong(t *testing.T) {
	server, client := net.Pipe()
	lc := NewLineConn(server, ConnOptions{})
	defer func() { _ = lc.Close() }()

	go func() {
		_, _ = io.WriteString(client, strings.Repeat("x", MaxLineLength+10)+"\n")
	}()

	if _, err := lc.ReadLine(); err == nil || err == io.EOF {
		t.Fatalf("ReadLine: err = %v, want a too-long error", err)
	}
}

func TestLineConnSend(t *testing.T) {
	server, client := net.Pipe()
	lc := NewLineConn(server, ConnOptions{WriteTimeout: time.Second})
	defer func() { _ = lc.Close() }()

	if err := lc.Send("JOIN_SUCCESS Lobby"); err != nil {
		t.Fatalf("Send: unexpected error: %v", err)
	}
	if err := lc.Send("SYS_MSG hi"); err != nil {
		t.Fatalf("Send: unexpected error: %v", err)
	}

	r := bufio.NewReader(client)
	for _, want := range []string{"JOIN_SUCCESS Lobby\n", "SYS_MSG hi\n"} {
		got, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString: unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestLineConnSlowConsumer(t *testing.T) {
	server, client := net.Pipe()
	defer func() { _ = client.Close() }()
	lc := NewLineConn(server, ConnOptions{QueueSize: 1})

	// Nobody reads the client side: one line blocks in the writer and one
	// fills the queue, so the third send cannot succeed.
	var sendErr error
	for i := 0; i < 3 && sendErr == nil; i++ {
		sendErr = lc.Send("MSG 1 a [Lobby] spam")
	}
	if !errors.Is(sendErr, ErrSlowConsumer) {
		t.Fatalf("Send: err = %v, want ErrSlowConsumer", sendErr)
	}
	if !errors.Is(lc.Err(), ErrSlowConsumer) {
		t.Fatalf("Err() = %v, want ErrSlowConsumer", lc.Err())
	}
	if err := lc.Send("after"); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("Send after failure: err = %v, want ErrConnClosed", err)
	}
}

func TestLineConnCloseIdempotent(t *testing.T) {
	server, client := net.Pipe()
	defer func() { _ = client.Close() }()
	lc := NewLineConn(server, ConnOptions{})

	first := lc.Close()
	if second := lc.Close(); second != first {
		t.Fatalf("second Close = %v, want %v", second, first)
	}
	if err := lc.Send("x"); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("Send after Close: err = %v, want ErrConnClosed", err)
	}
}

func TestLineConnCloseFlushes(t *testing.T) {
	server, client := net.Pipe()
	defer func() { _ = client.Close() }()
	lc := NewLineConn(server, ConnOptions{WriteTimeout: time.Second})

	got := make(chan []string, 1)
	go func() {
		var lines []string
		r := bufio.NewReader(client)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				got <- lines
				return
			}
			lines = append(lines, line)
		}
	}()

	for _, line := range []string{"CMD_RESP bye", "SYS_MSG done"} {
		if err := lc.Send(line); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if err := lc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case lines := <-got:
		if len(lines) != 2 || lines[0] != "CMD_RESP bye\n" || lines[1] != "SYS_MSG done\n" {
			t.Fatalf("lines after Close = %q", lines)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("reader did not see EOF after Close")
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("a\r\nb\n")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("splitLines = %q", got)
	}
	if got := splitLines(""); len(got) != 1 || got[0] != "" {
		t.Fatalf("splitLines(empty) = %q", got)
	}
}
