// Package relay pairs two WebSocket clients by room code and forwards their
// binary frames to each other. It does not look inside the frames.
package relay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/duopong/internal/session"
	"github.com/vovakirdan/duopong/internal/storage"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
)

// Close reasons recorded in the ledger.
const (
	ReasonHostLeft  = "host left"
	ReasonGuestLeft = "guest left"
	ReasonExpired   = "expired"
	ReasonShutdown  = "shutdown"
)

// Ledger records room lifecycles. *storage.Store implements it.
type Ledger interface {
	OpenRoom(code string, at time.Time) error
	JoinRoom(code string, at time.Time) error
	CloseRoom(code, reason string, at time.Time) error
}

// Config holds configuration for the relay.
type Config struct {
	Addr          string
	RoomTimeout   time.Duration // How long a room waits for its guest
	CleanupPeriod time.Duration // How often expired rooms are swept
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:          ":8787",
		RoomTimeout:   10 * time.Minute,
		CleanupPeriod: 30 * time.Second,
	}
}

type peer struct {
	id   string
	role session.Role

	mu     sync.Mutex // Guards conn and closed, serializes writes
	conn   *websocket.Conn
	closed bool
}

// attach sets the upgraded connection. It fails when the peer was shut
// while upgrading.
func (p *peer) attach(conn *websocket.Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.conn = conn
	return true
}

func (p *peer) write(typ int, frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.closed {
		return nil
	}
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // reported by WriteMessage
	return p.conn.WriteMessage(typ, frame)
}

// shut sends a close frame and drops the connection.
func (p *peer) shut(code int, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.conn == nil {
		return
	}
	closeConn(p.conn, code, text)
}

func closeConn(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)) //nolint:errcheck // best effort
	conn.Close()                                                                  //nolint:errcheck // closing anyway
}

type room struct {
	code      session.RoomID
	host      *peer
	guest     *peer
	createdAt time.Time
}

func (r *room) partner(p *peer) *peer {
	if p == r.host {
		return r.guest
	}
	return r.host
}

// Server is the relay.
type Server struct {
	config   Config
	ledger   Ledger
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[session.RoomID]*room
	used  map[session.RoomID]time.Time // Closed codes, when no ledger is set
}

// New creates a relay. ledger may be nil; a nil logger discards output.
func New(cfg Config, ledger Ledger, logger *log.Logger) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.RoomTimeout <= 0 {
		cfg.RoomTimeout = def.RoomTimeout
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = def.CleanupPeriod
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		config: cfg,
		ledger: ledger,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients are terminals, not browsers
			CheckOrigin: func(*http.Request) bool { return true },
		},
		rooms: make(map[session.RoomID]*room),
		used:  make(map[session.RoomID]time.Time),
	}
}

// Handler returns the relay's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rooms/{code}", s.handleRoom)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok\n") //nolint:errcheck // client gone
	})
	return mux
}

// Rooms returns the number of open rooms.
func (s *Server) Rooms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Run serves until ctx is done, then closes every room.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("relay listening", "addr", s.config.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.cleanupLoop(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Hijacked connections are not closed by Shutdown
		s.closeAll(ReasonShutdown)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	code, err := session.ParseRoom(r.PathValue("code"))
	if err != nil || code == "" {
		http.Error(w, "invalid room code", http.StatusBadRequest)
		return
	}

	var role session.Role
	switch r.URL.Query().Get("role") {
	case "host":
		role = session.RoleHost
	case "guest":
		role = session.RoleGuest
	default:
		http.Error(w, "role must be host or guest", http.StatusBadRequest)
		return
	}

	p := &peer{id: uuid.NewString(), role: role}
	logger := s.logger.With("room", code, "role", role, "conn", p.id)

	if status, msg := s.reserve(code, p); status != 0 {
		logger.Debug("room rejected", "status", status, "reason", msg)
		http.Error(w, msg, status)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("upgrade failed", "err", err)
		s.unreserve(code, p)
		return
	}

	if !p.attach(conn) {
		closeConn(conn, websocket.CloseGoingAway, "room closed")
		return
	}
	logger.Info("peer connected")

	s.serve(code, p, conn, logger)
}

// reserve claims the role's slot in the room. A non-zero status rejects the
// request.
func (s *Server) reserve(code session.RoomID, p *peer) (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rm, exists := s.rooms[code]

	if p.role == session.RoleHost {
		if exists {
			return http.StatusConflict, "room exists"
		}
		if s.ledger != nil {
			if err := s.ledger.OpenRoom(string(code), now); err != nil {
				if errors.Is(err, storage.ErrRoomUsed) {
					return http.StatusConflict, "room exists"
				}
				s.logger.Error("ledger open failed", "room", code, "err", err)
				return http.StatusInternalServerError, "ledger unavailable"
			}
		} else if _, used := s.used[code]; used {
			return http.StatusConflict, "room exists"
		}
		s.rooms[code] = &room{code: code, host: p, createdAt: now}
		return 0, ""
	}

	if !exists {
		return http.StatusNotFound, "room not found"
	}
	if rm.guest != nil {
		return http.StatusConflict, "room full"
	}
	if s.ledger != nil {
		if err := s.ledger.JoinRoom(string(code), now); err != nil {
			s.logger.Warn("ledger join failed", "room", code, "err", err)
		}
	}
	rm.guest = p
	return 0, ""
}

// unreserve frees the slot of a peer whose upgrade failed.
func (s *Server) unreserve(code session.RoomID, p *peer) {
	s.mu.Lock()
	rm, ok := s.rooms[code]
	if ok && rm.guest == p {
		rm.guest = nil
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	if ok && rm.host == p {
		s.leave(code, p, ReasonHostLeft)
	}
}

func (s *Server) serve(code session.RoomID, p *peer, conn *websocket.Conn, logger *log.Logger) {
	reason := leaveReason(p.role)
	defer func() {
		s.leave(code, p, reason)
		logger.Info("peer disconnected")
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck // reported by ReadMessage
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		typ, frame, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read failed", "err", err)
			}
			return
		}
		if typ != websocket.BinaryMessage {
			continue
		}

		s.mu.Lock()
		var partner *peer
		if rm, ok := s.rooms[code]; ok {
			partner = rm.partner(p)
		}
		s.mu.Unlock()

		if partner == nil {
			continue
		}
		if err := partner.write(websocket.BinaryMessage, frame); err != nil {
			logger.Debug("forward failed", "err", err)
		}
	}
}

// leave removes the room p belongs to and closes the partner.
func (s *Server) leave(code session.RoomID, p *peer, reason string) {
	s.mu.Lock()
	rm, ok := s.rooms[code]
	if !ok || (rm.host != p && rm.guest != p) {
		s.mu.Unlock()
		p.shut(websocket.CloseNormalClosure, reason)
		return
	}
	partner := rm.partner(p)
	delete(s.rooms, code)
	s.used[code] = time.Now()
	s.mu.Unlock()

	s.record(code, reason)
	p.shut(websocket.CloseNormalClosure, reason)
	if partner != nil {
		partner.shut(websocket.CloseGoingAway, reason)
	}
}

func (s *Server) record(code session.RoomID, reason string) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.CloseRoom(string(code), reason, time.Now()); err != nil {
		s.logger.Warn("ledger close failed", "room", code, "err", err)
	}
}

func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupExpired()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) cleanupExpired() {
	now := time.Now()
	var expired []*room

	s.mu.Lock()
	for code, rm := range s.rooms {
		if rm.guest == nil && now.Sub(rm.createdAt) > s.config.RoomTimeout {
			expired = append(expired, rm)
			delete(s.rooms, code)
			s.used[code] = now
		}
	}
	for code, at := range s.used {
		if s.ledger != nil || now.Sub(at) > s.config.RoomTimeout {
			delete(s.used, code)
		}
	}
	s.mu.Unlock()

	for _, rm := range expired {
		s.logger.Info("room expired", "room", rm.code)
		s.record(rm.code, ReasonExpired)
		rm.host.shut(websocket.CloseGoingAway, ReasonExpired)
	}
}

func (s *Server) closeAll(reason string) {
	s.mu.Lock()
	rooms := make([]*room, 0, len(s.rooms))
	for code, rm := range s.rooms {
		rooms = append(rooms, rm)
		delete(s.rooms, code)
	}
	s.mu.Unlock()

	for _, rm := range rooms {
		s.record(rm.code, reason)
		rm.host.shut(websocket.CloseGoingAway, reason)
		if rm.guest != nil {
			rm.guest.shut(websocket.CloseGoingAway, reason)
		}
	}
}

func leaveReason(role session.Role) string {
	if role == session.RoleHost {
		return ReasonHostLeft
	}
	return ReasonGuestLeft
}
