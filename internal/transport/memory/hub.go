// Package memory pairs peers of the same process. The SSH server uses it to
// let two terminal sessions play each other without a relay.
package memory

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/duopong/internal/protocol"
	"github.com/vovakirdan/duopong/internal/session"
	"github.com/vovakirdan/duopong/internal/transport"
)

// Config holds configuration for the hub.
type Config struct {
	RoomTimeout   time.Duration // How long a room waits for its guest
	CleanupPeriod time.Duration // How often expired rooms are swept
	BufferSize    int           // State frames buffered per connection before dropping
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RoomTimeout:   10 * time.Minute,
		CleanupPeriod: 30 * time.Second,
		BufferSize:    256,
	}
}

type room struct {
	code      session.RoomID
	host      *conn
	guest     *conn
	createdAt time.Time
}

// Hub is an in-process Transport. Rooms are keyed by code; a code cannot be
// reopened while its room exists or for one RoomTimeout after it closed.
type Hub struct {
	config Config
	logger *log.Logger

	mu     sync.Mutex
	rooms  map[session.RoomID]*room
	closed map[session.RoomID]time.Time

	done     chan struct{}
	stopOnce sync.Once
}

var _ transport.Transport = (*Hub)(nil)

// NewHub creates a hub. A nil logger discards output.
func NewHub(cfg Config, logger *log.Logger) *Hub {
	def := DefaultConfig()
	if cfg.RoomTimeout <= 0 {
		cfg.RoomTimeout = def.RoomTimeout
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = def.CleanupPeriod
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = def.BufferSize
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		config: cfg,
		logger: logger,
		rooms:  make(map[session.RoomID]*room),
		closed: make(map[session.RoomID]time.Time),
		done:   make(chan struct{}),
	}
}

// Start begins the hub's background cleanup.
func (h *Hub) Start() {
	go h.cleanupLoop()
}

// Stop shuts down the hub and closes every connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	var conns []*conn
	for _, r := range h.rooms {
		conns = append(conns, r.host)
		if r.guest != nil {
			conns = append(conns, r.guest)
		}
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Close() //nolint:errcheck // shutdown
	}
}

// Rooms returns the number of open rooms.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Connect opens (host) or joins (guest) a room.
func (h *Hub) Connect(ctx context.Context, code session.RoomID, role session.Role) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, transport.ErrRoomNotFound
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch role {
	case session.RoleHost:
		if _, exists := h.rooms[code]; exists {
			return nil, transport.ErrRoomExists
		}
		if _, used := h.closed[code]; used {
			return nil, transport.ErrRoomExists
		}
		c := h.newConn(code)
		h.rooms[code] = &room{code: code, host: c, createdAt: time.Now()}
		h.logger.Debug("room opened", "room", code)
		return c, nil

	case session.RoleGuest:
		r, exists := h.rooms[code]
		if !exists {
			return nil, transport.ErrRoomNotFound
		}
		if r.guest != nil {
			return nil, transport.ErrRoomFull
		}
		c := h.newConn(code)
		c.peer = r.host
		r.host.peer = c
		r.guest = c
		h.logger.Debug("room joined", "room", code)
		return c, nil

	default:
		return nil, transport.ErrRoomNotFound
	}
}

func (h *Hub) newConn(code session.RoomID) *conn {
	c := &conn{
		hub:   h,
		room:  code,
		limit: h.config.BufferSize,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go c.pump()
	return c
}

// release removes the room of c and ends its partner. Called once per room.
func (h *Hub) release(c *conn, reason error) {
	h.mu.Lock()
	r, exists := h.rooms[c.room]
	if !exists || (r.host != c && r.guest != c) {
		h.mu.Unlock()
		return
	}
	delete(h.rooms, c.room)
	h.closed[c.room] = time.Now()
	partner := r.guest
	if c == r.guest {
		partner = r.host
	}
	h.mu.Unlock()

	h.logger.Debug("room closed", "room", c.room, "reason", reason)
	if partner != nil {
		partner.end(transport.ErrPeerGone)
	}
}

func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(h.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.cleanupExpired()
		case <-h.done:
			return
		}
	}
}

func (h *Hub) cleanupExpired() {
	now := time.Now()
	var expired []*conn

	h.mu.Lock()
	for code, r := range h.rooms {
		if r.guest == nil && now.Sub(r.createdAt) > h.config.RoomTimeout {
			expired = append(expired, r.host)
			delete(h.rooms, code)
			h.closed[code] = now
		}
	}
	for code, at := range h.closed {
		if now.Sub(at) > h.config.RoomTimeout {
			delete(h.closed, code)
		}
	}
	h.mu.Unlock()

	for _, c := range expired {
		h.logger.Info("room expired", "room", c.room)
		c.end(transport.ErrRoomExpired)
	}
}

// conn is one end of a hub room. Frames go through a bounded inbox drained
// by a pump goroutine, so Send never calls into the receiver directly.
type conn struct {
	hub  *Hub
	room session.RoomID
	peer *conn // Guarded by hub.mu

	transport.Dispatcher

	mu    sync.Mutex
	inbox [][]byte
	limit int
	wake  chan struct{}

	done     chan struct{}
	doneOnce sync.Once
}

func (c *conn) Send(frame []byte) error {
	if c.Closed() {
		return transport.ErrClosed
	}
	select {
	case <-c.done:
		return transport.ErrClosed
	default:
	}

	c.hub.mu.Lock()
	peer := c.peer
	c.hub.mu.Unlock()
	if peer == nil {
		// Nobody joined yet
		return nil
	}

	buf := make([]byte, len(frame))
	copy(buf, frame)
	peer.enqueue(buf)
	return nil
}

// enqueue makes room in a full inbox by dropping the oldest state frame,
// which a newer one supersedes. Handshake frames are never dropped: a lost
// ready would stall the game for good. If only handshake frames are queued,
// an incoming state frame is dropped instead.
func (c *conn) enqueue(frame []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	c.mu.Lock()
	if len(c.inbox) >= c.limit {
		i := slices.IndexFunc(c.inbox, protocol.Supersedable)
		switch {
		case i >= 0:
			c.inbox = slices.Delete(c.inbox, i, i+1)
		case protocol.Supersedable(frame):
			c.mu.Unlock()
			return
		}
	}
	c.inbox = append(c.inbox, frame)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *conn) pump() {
	for {
		select {
		case <-c.wake:
		case <-c.done:
			return
		}

		c.mu.Lock()
		frames := c.inbox
		c.inbox = nil
		c.mu.Unlock()

		for _, frame := range frames {
			select {
			case <-c.done:
				return
			default:
			}
			c.Deliver(frame)
		}
	}
}

// end terminates the connection from the remote side.
func (c *conn) end(err error) {
	c.doneOnce.Do(func() {
		close(c.done)
	})
	c.Disconnect(err)
}

func (c *conn) Close() error {
	if !c.MarkClosed() {
		return nil
	}
	c.doneOnce.Do(func() {
		close(c.done)
	})
	c.hub.release(c, transport.ErrClosed)
	return nil
}
