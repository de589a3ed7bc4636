// Package transport carries opaque frames between the two peers of a room.
// Implementations live in subpackages: memory pairs peers inside one process,
// ws talks to a relay over WebSocket.
package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/vovakirdan/duopong/internal/session"
)

var (
	ErrRoomNotFound = errors.New("transport: room not found")
	ErrRoomFull     = errors.New("transport: room is full")
	ErrRoomExists   = errors.New("transport: room already exists")
	ErrRoomExpired  = errors.New("transport: room expired")
	ErrPeerGone     = errors.New("transport: peer disconnected")
	ErrClosed       = errors.New("transport: connection closed")
)

// Transport opens connections to rooms. The host creates the room, the guest
// joins an existing one.
type Transport interface {
	Connect(ctx context.Context, room session.RoomID, role session.Role) (Conn, error)
}

// Conn is one peer's end of a room.
type Conn interface {
	// Send queues a frame for the peer. It must not block for long.
	Send(frame []byte) error

	// OnMessage registers the frame handler. Frames received earlier are
	// delivered on registration, in order.
	OnMessage(fn func(frame []byte))

	// OnDisconnect registers the handler called once when the connection
	// ends for any reason other than a local Close.
	OnDisconnect(fn func(err error))

	// Close ends the connection. Safe to call multiple times.
	Close() error
}

// Dispatcher holds a connection's handlers and delivers frames to them. It
// is shared by the transport implementations.
type Dispatcher struct {
	deliver sync.Mutex // Serializes handler calls

	mu        sync.Mutex
	onMessage func([]byte)
	onDisc    func(error)
	pending   [][]byte
	discErr   error
	discSeen  bool
	discFired bool
	closed    bool
}

// OnMessage registers fn and flushes queued frames to it.
func (d *Dispatcher) OnMessage(fn func([]byte)) {
	d.deliver.Lock()
	defer d.deliver.Unlock()

	d.mu.Lock()
	d.onMessage = fn
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	if fn == nil {
		return
	}
	for _, frame := range pending {
		fn(frame)
	}
}

// OnDisconnect registers fn. If the connection already ended, fn runs now.
func (d *Dispatcher) OnDisconnect(fn func(error)) {
	d.mu.Lock()
	d.onDisc = fn
	fire := d.discSeen && !d.discFired && !d.closed && fn != nil
	if fire {
		d.discFired = true
	}
	err := d.discErr
	d.mu.Unlock()

	if fire {
		fn(err)
	}
}

// Deliver hands a received frame to the handler or queues it.
func (d *Dispatcher) Deliver(frame []byte) {
	d.deliver.Lock()
	defer d.deliver.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	fn := d.onMessage
	if fn == nil {
		d.pending = append(d.pending, frame)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	fn(frame)
}

// Disconnect reports the end of the connection. Only the first call counts,
// and nothing is reported after MarkClosed.
func (d *Dispatcher) Disconnect(err error) {
	d.mu.Lock()
	if d.closed || d.discSeen {
		d.mu.Unlock()
		return
	}
	d.discSeen = true
	d.discErr = err
	fn := d.onDisc
	if fn != nil {
		d.discFired = true
	}
	d.mu.Unlock()

	if fn != nil {
		fn(err)
	}
}

// MarkClosed records a local Close. It reports whether this was the first
// call.
func (d *Dispatcher) MarkClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.closed = true
	d.pending = nil
	return true
}

// Closed reports whether MarkClosed was called.
func (d *Dispatcher) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
