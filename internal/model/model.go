// Package model is the game orchestrator. It owns the simulation state,
// drives the session state machine, and keeps two peers in sync through a
// transport. Renderers read its state and forward input; they never mutate
// it directly.
package model

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/duopong/internal/config"
	"github.com/vovakirdan/duopong/internal/physics"
	"github.com/vovakirdan/duopong/internal/protocol"
	"github.com/vovakirdan/duopong/internal/session"
	"github.com/vovakirdan/duopong/internal/transport"
)

// ErrNoTransport is returned when online play is requested without a
// transport.
var ErrNoTransport = errors.New("model: online play needs a transport")

// Option configures a Model.
type Option func(*Model)

// WithTransport sets the transport used for online play.
func WithTransport(t transport.Transport) Option {
	return func(m *Model) { m.transport = t }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithSeed makes serves reproducible. Every Init restarts the sequence.
func WithSeed(seed int64) Option {
	return func(m *Model) {
		m.seed = seed
		m.seeded = true
	}
}

// Model is one game. All methods are safe for concurrent use: the frame
// loop and transport callbacks are serialized by a single lock.
type Model struct {
	cfg       config.GameConfig
	transport transport.Transport
	logger    *log.Logger
	seed      int64
	seeded    bool

	mu      sync.Mutex
	rng     *rand.Rand
	mode    Mode
	role    session.Role
	room    session.RoomID
	machine *session.Machine

	field  physics.Field
	ball   physics.Ball
	left   physics.Bat
	right  physics.Bat
	score  physics.Score
	bounce physics.Bounce
	serve  physics.Serve

	keys         keymap
	input        input
	remoteIntent physics.Intent
	cpu          *cpu
	seconds      float64 // Time spent playing
	tick         uint64  // Frames simulated while playing

	scheduler *protocol.Scheduler
	applier   *protocol.Applier
	conn      transport.Conn
	cancel    context.CancelFunc
	gen       uint64 // Bumped by Init; callbacks from older sessions are dropped

	// Collected while locked, flushed after unlock
	pending []Event
	outbox  []protocol.Message
	closers []transport.Conn

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New creates a model in the idle ModeNone state.
func New(cfg config.GameConfig, opts ...Option) *Model {
	m := &Model{
		cfg:    cfg,
		logger: log.New(io.Discard),
		subs:   make(map[int]func(Event)),
		keys:   newKeymap(cfg.Keys),
		input:  newInput(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.reset(ModeNone)
	m.machine = session.NewOffline()
	return m
}

// Init recreates all state for mode. It tears down any previous session:
// the connection is closed, a pending dial is canceled, and callbacks from
// it are ignored from now on. For ModeOnline an empty room hosts a new room
// and a room code or URL joins one.
func (m *Model) Init(mode Mode, room string) error {
	var code session.RoomID
	if mode == ModeOnline {
		if m.transport == nil {
			return ErrNoTransport
		}
		var err error
		if code, err = session.ParseRoom(room); err != nil {
			return err
		}
	}

	m.do(func() {
		m.teardown()
		m.gen++
		m.reset(mode)

		switch mode {
		case ModeOnline:
			if code == "" {
				m.role = session.RoleHost
				m.room = session.NewRoomID()
				m.machine = session.NewHost()
				m.emit(RoomOpenedEvent{Room: m.room})
			} else {
				m.role = session.RoleGuest
				m.room = code
				m.machine = session.NewGuest()
			}
			m.scheduler = protocol.NewScheduler(m.cfg.Network.RateHz)
			m.applier = protocol.NewApplier(m.role)

			ctx, cancel := context.WithCancel(context.Background())
			m.cancel = cancel
			go m.connect(ctx, m.gen, m.room, m.role)
		default:
			m.machine = session.NewOffline()
		}

		m.logger.Debug("game initialized", "mode", mode, "role", m.role, "room", m.room)
	})
	return nil
}

// Close ends the current session.
func (m *Model) Close() {
	m.do(func() {
		m.teardown()
		m.gen++
	})
}

// reset rebuilds the court and input. Must be called with the lock held.
func (m *Model) reset(mode Mode) {
	if m.rng == nil || m.seeded {
		seed := m.seed
		if !m.seeded {
			seed = time.Now().UnixNano()
		}
		m.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // gameplay randomness
	}

	cfg := m.cfg
	m.mode = mode
	m.role = session.RoleNone
	m.room = ""
	m.field = physics.Field{W: cfg.Field.Width, H: cfg.Field.Height}
	m.left = physics.NewBat(physics.Left, m.field, cfg.Bats.Width, cfg.Bats.Height, cfg.Bats.Offset)
	m.right = physics.NewBat(physics.Right, m.field, cfg.Bats.Width, cfg.Bats.Height, cfg.Bats.Offset)
	m.score = physics.Score{}
	m.bounce = physics.Bounce{
		SpeedUp:  cfg.Ball.SpeedUp,
		MaxSpeed: cfg.Ball.MaxSpeed,
		Spin:     cfg.Ball.Spin,
	}
	m.serve = physics.Serve{
		Speed:    cfg.Serve.Speed,
		MaxAngle: cfg.Serve.MaxAngle * math.Pi / 180,
	}
	m.ball = physics.Ball{R: cfg.Ball.Radius}
	m.drawTilt()

	toward := physics.Left
	if m.rng.Intn(2) == 1 {
		toward = physics.Right
	}
	physics.ServeBall(&m.ball, m.field, toward, m.serve)
	m.drawTilt()

	m.input.clear()
	m.remoteIntent = physics.IntentNone
	m.cpu = nil
	if mode == ModeSingleplayer {
		m.cpu = newCPU(cfg)
	}
	m.seconds = 0
	m.tick = 0
	m.scheduler = nil
	m.applier = nil
}

// drawTilt picks the angle of the next serve.
func (m *Model) drawTilt() {
	m.serve.Tilt = 0
	if m.cfg.Serve.Random {
		m.serve.Tilt = m.rng.Float64()*2 - 1
	}
}

// teardown releases the current session. Must be called with the lock held.
func (m *Model) teardown() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.conn != nil {
		m.closers = append(m.closers, m.conn)
		m.conn = nil
	}
	m.outbox = nil
}

// do runs fn under the lock, then performs the I/O and notifications fn
// queued. State transitions are reported before the events fn emitted.
func (m *Model) do(fn func()) {
	events, out, conn, closers := m.locked(fn)

	for _, c := range closers {
		c.Close() //nolint:errcheck // session is over
	}
	m.send(conn, out)
	m.dispatch(events)
}

func (m *Model) locked(fn func()) ([]Event, []protocol.Message, transport.Conn, []transport.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.machine.State()
	fn()
	to := m.machine.State()

	events := m.pending
	if from != to {
		events = append([]Event{StateChangedEvent{From: from, To: to}}, events...)
	}
	out, conn, closers := m.outbox, m.conn, m.closers
	m.pending, m.outbox, m.closers = nil, nil, nil
	return events, out, conn, closers
}

// frame runs one per-frame update through do. A panic anywhere in it, an
// event handler included, is logged and the court goes back to where it was
// before the update. It reports whether the update completed.
func (m *Model) frame(fn func()) (ok bool) {
	var (
		snap  snapshot
		taken bool
	)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ok = false
		m.mu.Lock()
		if taken {
			m.restore(snap)
		}
		st := m.machine.State()
		m.mu.Unlock()
		m.logger.Error("frame failed", "panic", r, "state", st)
	}()

	m.do(func() {
		snap, taken = m.snapshot(), true
		fn()
	})
	return true
}

func (m *Model) send(conn transport.Conn, out []protocol.Message) {
	if conn == nil {
		return
	}
	for _, msg := range out {
		frame, err := protocol.Encode(msg)
		if err != nil {
			m.logger.Error("encode failed", "kind", msg.Kind(), "err", err)
			continue
		}
		if err := conn.Send(frame); err != nil {
			if !errors.Is(err, transport.ErrClosed) {
				m.logger.Debug("send failed", "kind", msg.Kind(), "err", err)
			}
			return
		}
	}
}

// connect dials the room and wires the connection to this session.
func (m *Model) connect(ctx context.Context, gen uint64, room session.RoomID, role session.Role) {
	conn, err := m.transport.Connect(ctx, room, role)

	accepted := false
	m.do(func() {
		if gen != m.gen {
			if conn != nil {
				m.closers = append(m.closers, conn)
			}
			return
		}
		m.cancel = nil
		if err != nil {
			m.logger.Warn("connection failed", "room", room, "role", role, "err", err)
			m.machine.JoinFailed()
			return
		}

		m.conn = conn
		accepted = true
		if role == session.RoleGuest {
			m.machine.Joined()
			m.outbox = append(m.outbox, protocol.Hello{})
		}
		m.logger.Info("connected", "room", room, "role", role)
	})
	if !accepted {
		return
	}

	conn.OnMessage(func(frame []byte) { m.receive(gen, frame) })
	conn.OnDisconnect(func(err error) { m.lost(gen, err) })
}

// receive applies one frame from the peer.
func (m *Model) receive(gen uint64, frame []byte) {
	msg, err := protocol.Decode(frame)
	if err != nil {
		m.logger.Debug("ignoring peer message", "err", err)
		return
	}

	m.do(func() {
		if gen != m.gen || m.applier == nil || m.machine.State().Terminal() {
			return
		}

		before := m.score
		switch eff := m.applier.Apply(msg, m.court()); eff {
		case protocol.EffectHello:
			m.machine.PeerJoined()
		case protocol.EffectReady:
			if _, playing := m.machine.RemoteStart(); playing {
				m.emit(PlayingOnlineEvent{})
			}
		case protocol.EffectBat:
			if bat, ok := msg.(protocol.BatState); ok && bat.Side != protocol.OwnedSide(m.role) {
				m.remoteIntent = bat.Intent
			}
		case protocol.EffectBall:
			if m.score != before {
				scorer := physics.Left
				if m.score.Right > before.Right {
					scorer = physics.Right
				}
				m.emit(PointEvent{Scorer: scorer, Score: m.score})
			}
		case protocol.EffectStale, protocol.EffectIgnored, protocol.EffectNone:
			m.logger.Debug("peer message not applied", "kind", msg.Kind(), "effect", eff)
		}
	})
}

// lost handles the end of the peer channel.
func (m *Model) lost(gen uint64, err error) {
	m.do(func() {
		if gen != m.gen {
			return
		}
		m.logger.Info("peer channel closed", "room", m.room, "err", err)
		if m.conn != nil {
			m.closers = append(m.closers, m.conn)
			m.conn = nil
		}
		if m.machine.Disconnected() {
			m.emit(DisconnectedEvent{})
		}
	})
}

func (m *Model) court() protocol.Court {
	return protocol.Court{
		Field: m.field,
		Ball:  &m.ball,
		Score: &m.score,
		Left:  &m.left,
		Right: &m.right,
	}
}

// KeyDown records a key press. Unmapped codes are ignored. The start key
// acts as PlayerStarted.
func (m *Model) KeyDown(code string) {
	m.do(func() {
		b, ok := m.keys[code]
		if !ok {
			return
		}
		if b.act == actionStart {
			if m.input.press(code, b) {
				m.playerStarted()
			}
			return
		}
		b.side = m.controlledSide(b.side)
		if b.side != physics.NoSide {
			m.input.press(code, b)
		}
	})
}

// KeyUp records a key release. Unmapped codes are ignored.
func (m *Model) KeyUp(code string) {
	m.do(func() {
		m.input.release(code)
	})
}

// controlledSide maps a key's bat to the bat it moves in the current mode.
func (m *Model) controlledSide(keySide physics.Side) physics.Side {
	switch m.mode {
	case ModeTwoplayer:
		return keySide
	case ModeSingleplayer:
		return physics.Left
	case ModeOnline:
		return protocol.OwnedSide(m.role)
	default:
		return physics.NoSide
	}
}

// PlayerStarted signals local readiness. Offline it toggles pause; online it
// takes part in the ready handshake.
func (m *Model) PlayerStarted() {
	m.do(m.playerStarted)
}

func (m *Model) playerStarted() {
	switch m.mode {
	case ModeSingleplayer, ModeTwoplayer:
		paused := m.machine.TogglePause()
		m.logger.Debug("pause toggled", "paused", paused)
	case ModeOnline:
		wasReady := m.machine.LocalReady()
		_, playing := m.machine.Start()
		if !wasReady && m.machine.LocalReady() {
			m.outbox = append(m.outbox, protocol.Ready{})
		}
		if playing {
			m.emit(PlayingOnlineEvent{})
		}
	case ModeNone:
	}
}

// FocusLost pauses offline play and releases held keys.
func (m *Model) FocusLost() {
	m.do(func() {
		m.machine.ForcePause()
		m.input.clear()
	})
}

// Tick advances one frame of dt milliseconds: bats, ball, collisions,
// scoring, then outgoing sync. A panic inside the frame is logged and the
// frame leaves the court as it was.
func (m *Model) Tick(dt float64) {
	m.frame(func() {
		m.step(dt)
	})
}

func (m *Model) step(dt float64) {
	if !m.machine.Running() {
		return
	}
	m.seconds += physics.Seconds(dt)
	m.tick++

	m.updateBats(dt)
	if m.simulatesBall() {
		m.updateBall(dt)
		m.detectCollision(physics.Left)
		m.detectCollision(physics.Right)
		m.detectPoint()
	}
	m.syncOut(dt)
}

// UpdateBats moves the locally controlled bats by dt milliseconds.
func (m *Model) UpdateBats(dt float64) {
	m.frame(func() {
		if m.machine.Running() {
			m.updateBats(dt)
		}
	})
}

func (m *Model) updateBats(dt float64) {
	speed := m.cfg.Bats.Speed
	switch m.mode {
	case ModeTwoplayer:
		physics.AdvanceBat(&m.left, m.input.intent(physics.Left), dt, speed, m.field)
		physics.AdvanceBat(&m.right, m.input.intent(physics.Right), dt, speed, m.field)
	case ModeSingleplayer:
		physics.AdvanceBat(&m.left, m.input.intent(physics.Left), dt, speed, m.field)
		if m.cpu != nil {
			m.cpu.drive(&m.right, m.ball, m.field, speed, dt, m.score.Right, m.seconds)
		}
	case ModeOnline:
		own, other := m.batOf(protocol.OwnedSide(m.role)), m.batOf(protocol.OwnedSide(m.role).Opposite())
		if own != nil {
			physics.AdvanceBat(own, m.input.intent(own.Side), dt, speed, m.field)
		}
		// Dead reckoning until the next state arrives
		if other != nil {
			physics.AdvanceBat(other, m.remoteIntent, dt, speed, m.field)
		}
	case ModeNone:
	}
}

// UpdateBall advances the ball by dt milliseconds and bounces it off the
// walls. It does nothing unless this side simulates the ball.
func (m *Model) UpdateBall(dt float64) {
	m.frame(func() {
		if m.machine.Running() && m.simulatesBall() {
			m.updateBall(dt)
		}
	})
}

func (m *Model) updateBall(dt float64) {
	physics.AdvanceBall(&m.ball, dt)
	physics.DetectWallCollision(&m.ball, m.field)
}

// DetectCollision bounces the ball off one bat. It reports whether the ball
// was hit; on a side that does not simulate the ball it does nothing.
func (m *Model) DetectCollision(side physics.Side) bool {
	var hit bool
	ok := m.frame(func() {
		if m.machine.Running() && m.simulatesBall() {
			hit = m.detectCollision(side)
		}
	})
	return ok && hit
}

func (m *Model) detectCollision(side physics.Side) bool {
	bat := m.batOf(side)
	if bat == nil || !physics.DetectCollision(&m.ball, *bat, m.bounce) {
		return false
	}
	m.emit(CollisionEvent{Side: side})
	if m.scheduler != nil {
		m.scheduler.NoteBallEvent()
	}
	return true
}

// DetectPoint scores and re-serves when the ball left the field. It returns
// the scoring side, or NoSide.
func (m *Model) DetectPoint() physics.Side {
	scorer := physics.NoSide
	ok := m.frame(func() {
		if m.machine.Running() && m.simulatesBall() {
			scorer = m.detectPoint()
		}
	})
	if !ok {
		return physics.NoSide
	}
	return scorer
}

func (m *Model) detectPoint() physics.Side {
	scorer := physics.DetectPoint(&m.ball, m.field, &m.score, m.serve)
	if scorer == physics.NoSide {
		return scorer
	}
	m.drawTilt()
	m.emit(PointEvent{Scorer: scorer, Score: m.score})
	if m.scheduler != nil {
		m.scheduler.NoteBallEvent()
	}
	m.logger.Debug("point", "scorer", scorer, "left", m.score.Left, "right", m.score.Right)
	return scorer
}

// syncOut queues the states due for the peer.
func (m *Model) syncOut(dt float64) {
	if m.mode != ModeOnline || m.scheduler == nil {
		return
	}
	own := m.batOf(protocol.OwnedSide(m.role))
	if own == nil {
		return
	}
	intent := m.input.intent(own.Side)

	m.scheduler.Advance(dt)
	m.scheduler.NoteIntent(intent)
	bat, ball := m.scheduler.Due()
	if bat {
		m.outbox = append(m.outbox, protocol.BatStateOf(*own, intent))
	}
	if ball && protocol.Authoritative(m.role) {
		m.outbox = append(m.outbox, protocol.BallStateOf(m.tick, m.ball, m.score))
	}
}

// simulatesBall reports whether this side runs ball physics and scoring.
func (m *Model) simulatesBall() bool {
	switch m.mode {
	case ModeSingleplayer, ModeTwoplayer:
		return true
	case ModeOnline:
		return protocol.Authoritative(m.role)
	default:
		return false
	}
}

func (m *Model) batOf(side physics.Side) *physics.Bat {
	switch side {
	case physics.Left:
		return &m.left
	case physics.Right:
		return &m.right
	default:
		return nil
	}
}

type snapshot struct {
	ball    physics.Ball
	left    physics.Bat
	right   physics.Bat
	score   physics.Score
	serve   physics.Serve
	seconds float64
	tick    uint64
	pending int
	outbox  int
}

func (m *Model) snapshot() snapshot {
	return snapshot{
		ball:    m.ball,
		left:    m.left,
		right:   m.right,
		score:   m.score,
		serve:   m.serve,
		seconds: m.seconds,
		tick:    m.tick,
		pending: len(m.pending),
		outbox:  len(m.outbox),
	}
}

func (m *Model) restore(s snapshot) {
	m.ball, m.left, m.right = s.ball, s.left, s.right
	m.score, m.serve = s.score, s.serve
	m.seconds, m.tick = s.seconds, s.tick
	m.pending = m.pending[:min(s.pending, len(m.pending))]
	m.outbox = m.outbox[:min(s.outbox, len(m.outbox))]
}
