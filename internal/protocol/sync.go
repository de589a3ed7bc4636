package protocol

import (
	"math"

	"github.com/vovakirdan/duopong/internal/physics"
	"github.com/vovakirdan/duopong/internal/session"
)

// DefaultRate is the network tick rate in Hz.
const DefaultRate = 30

// Scheduler decides when a peer sends its state. Both peers send their own
// bat on every network tick and immediately when the bat's intent changes.
// The authoritative peer also sends the ball on every network tick and
// immediately after a collision or a point.
type Scheduler struct {
	interval   float64 // Milliseconds between network ticks
	elapsed    float64
	lastIntent physics.Intent
	bat        bool
	ball       bool
}

// NewScheduler creates a scheduler for the given rate in Hz.
func NewScheduler(rateHz int) *Scheduler {
	if rateHz <= 0 {
		rateHz = DefaultRate
	}
	return &Scheduler{interval: physics.MillisPerSecond / float64(rateHz)}
}

// Interval returns the milliseconds between network ticks.
func (s *Scheduler) Interval() float64 {
	return s.interval
}

// Advance accounts for dt milliseconds of play.
func (s *Scheduler) Advance(dtMillis float64) {
	if dtMillis <= 0 || math.IsNaN(dtMillis) {
		return
	}
	s.elapsed += dtMillis
	if s.elapsed >= s.interval {
		s.elapsed = math.Mod(s.elapsed, s.interval)
		s.bat = true
		s.ball = true
	}
}

// NoteIntent marks the bat for sending when its intent changed.
func (s *Scheduler) NoteIntent(in physics.Intent) {
	if in != s.lastIntent {
		s.lastIntent = in
		s.bat = true
	}
}

// NoteBallEvent marks the ball for sending right away.
func (s *Scheduler) NoteBallEvent() {
	s.ball = true
}

// Due returns which states should be sent now and clears the marks.
func (s *Scheduler) Due() (bat, ball bool) {
	bat, ball = s.bat, s.ball
	s.bat, s.ball = false, false
	return bat, ball
}

// Court is the part of the game state a received message may change.
type Court struct {
	Field physics.Field
	Ball  *physics.Ball
	Score *physics.Score
	Left  *physics.Bat
	Right *physics.Bat
}

func (c Court) bat(side physics.Side) *physics.Bat {
	switch side {
	case physics.Left:
		return c.Left
	case physics.Right:
		return c.Right
	default:
		return nil
	}
}

// Effect describes what applying a message did.
type Effect int

const (
	EffectNone    Effect = iota
	EffectHello          // Peer announced itself
	EffectReady          // Peer pressed start
	EffectBat            // A bat moved
	EffectBall           // Ball and score replaced
	EffectStale          // Older than the last applied ball state
	EffectIgnored        // Not meaningful for this role
)

// String returns a human-readable name for the effect.
func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectHello:
		return "hello"
	case EffectReady:
		return "ready"
	case EffectBat:
		return "bat"
	case EffectBall:
		return "ball"
	case EffectStale:
		return "stale"
	case EffectIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Applier applies received messages to a court. The newest state always
// wins; there is no retransmission, so a lost message is simply superseded.
type Applier struct {
	role     session.Role
	lastTick uint64
	seen     bool
}

// NewApplier creates an applier for the local role.
func NewApplier(role session.Role) *Applier {
	return &Applier{role: role}
}

// Apply changes the court according to msg.
func (a *Applier) Apply(msg Message, c Court) Effect {
	switch m := msg.(type) {
	case Hello:
		if a.role != session.RoleHost {
			return EffectIgnored
		}
		return EffectHello
	case Ready:
		return EffectReady
	case BatState:
		bat := c.bat(m.Side)
		if bat == nil {
			return EffectIgnored
		}
		// A state for our own side is a correction and is applied too.
		bat.Y = m.Y
		physics.ClampBat(bat, c.Field)
		return EffectBat
	case BallState:
		if Authoritative(a.role) || c.Ball == nil || c.Score == nil {
			return EffectIgnored
		}
		if a.seen && m.Tick < a.lastTick {
			return EffectStale
		}
		a.seen = true
		a.lastTick = m.Tick
		c.Ball.X, c.Ball.Y = m.X, m.Y
		c.Ball.VX, c.Ball.VY = m.VX, m.VY
		c.Score.Left, c.Score.Right = m.Left, m.Right
		return EffectBall
	default:
		return EffectIgnored
	}
}
