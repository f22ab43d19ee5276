package protocol

import (
	"errors"
	"sync"
)

var (
	// ErrConnClosed is returned by Send once the connection has been closed.
	ErrConnClosed = errors.New("protocol: connection closed")
	// ErrSlowConsumer is returned when a peer's send queue is full. The
	// connection is closed so its reader notices the failure.
	ErrSlowConsumer = errors.New("protocol: send queue full")
)

// DefaultQueueSize is the outbound queue length used when ConnOptions leaves it unset.
const DefaultQueueSize = 64

// outbox is a bounded per-connection send queue drained by one writer goroutine.
// Enqueueing never blocks, so broadcasters never wait on a slow peer.
type outbox struct {
	queue   chan string
	stop    chan struct{} // close requested, flush then shut down
	done    chan struct{} // underlying connection closed
	write   func(line string) error
	closeFn func() error

	stopOnce sync.Once
	doneOnce sync.Once
	mu       sync.Mutex
	cause    error
	closeErr error
}

func newOutbox(size int, write func(string) error, closeFn func() error) *outbox {
	if size <= 0 {
		size = DefaultQueueSize
	}
	o := &outbox{
		queue:   make(chan string, size),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		write:   write,
		closeFn: closeFn,
	}
	go o.run()
	return o
}

func (o *outbox) run() {
	for {
		select {
		case <-o.done:
			return
		case <-o.stop:
			o.flush()
			o.shutdown()
			return
		case line := <-o.queue:
			if err := o.write(line); err != nil {
				o.fail(err)
				return
			}
		}
	}
}

// flush writes whatever is already queued, stopping at the first error.
func (o *outbox) flush() {
	for {
		select {
		case line := <-o.queue:
			if err := o.write(line); err != nil {
				o.record(err)
				return
			}
		default:
			return
		}
	}
}

func (o *outbox) send(line string) error {
	select {
	case <-o.stop:
		return ErrConnClosed
	case <-o.done:
		return ErrConnClosed
	default:
	}
	select {
	case o.queue <- line:
		return nil
	default:
		o.fail(ErrSlowConsumer)
		return ErrSlowConsumer
	}
}

func (o *outbox) record(err error) {
	o.mu.Lock()
	if o.cause == nil {
		o.cause = err
	}
	o.mu.Unlock()
}

// fail records why the connection died and closes it without flushing.
func (o *outbox) fail(err error) {
	o.record(err)
	o.shutdown()
}

func (o *outbox) shutdown() {
	o.doneOnce.Do(func() {
		o.closeErr = o.closeFn()
		close(o.done)
	})
}

// close flushes queued lines, closes the connection and waits for both.
func (o *outbox) close() error {
	o.stopOnce.Do(func() { close(o.stop) })
	<-o.done
	return o.closeErr
}

// err returns the failure that closed the connection, if any.
func (o *outbox) err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cause
}
