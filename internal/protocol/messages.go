// Package protocol defines what two peers exchange during an online game,
// how those messages are encoded, when they are sent, and how a received
// message changes the local court.
//
// The host (the peer that opened the room) is authoritative for the ball
// and the score and owns the left bat. The guest owns the right bat and
// renders whatever ball state the host sent last.
package protocol

import (
	"github.com/vovakirdan/duopong/internal/physics"
	"github.com/vovakirdan/duopong/internal/session"
)

// Kind tags a message on the wire.
type Kind uint8

const (
	KindHello Kind = iota + 1
	KindReady
	KindBat
	KindBall
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindHello:
		return "hello"
	case KindReady:
		return "ready"
	case KindBat:
		return "bat"
	case KindBall:
		return "ball"
	default:
		return "unknown"
	}
}

// Message is a peer message.
type Message interface {
	Kind() Kind
}

// Hello is sent by the guest right after joining so the host learns a peer
// is present.
type Hello struct{}

// Kind implements Message.
func (Hello) Kind() Kind { return KindHello }

// Ready signals that the sender's player pressed start.
type Ready struct{}

// Kind implements Message.
func (Ready) Kind() Kind { return KindReady }

// BatState carries one bat's position and intent.
type BatState struct {
	Side   physics.Side
	Y      float64
	Intent physics.Intent
}

// Kind implements Message.
func (BatState) Kind() Kind { return KindBat }

// BallState is the authoritative ball and score.
type BallState struct {
	Tick   uint64 // Sender's simulation tick, used to drop stale states
	X, Y   float64
	VX, VY float64
	Left   int
	Right  int
}

// Kind implements Message.
func (BallState) Kind() Kind { return KindBall }

// BallStateOf captures the ball and score at the given tick.
func BallStateOf(tick uint64, b physics.Ball, s physics.Score) BallState {
	return BallState{
		Tick:  tick,
		X:     b.X,
		Y:     b.Y,
		VX:    b.VX,
		VY:    b.VY,
		Left:  s.Left,
		Right: s.Right,
	}
}

// BatStateOf captures a bat and the intent currently moving it.
func BatStateOf(bat physics.Bat, in physics.Intent) BatState {
	return BatState{Side: bat.Side, Y: bat.Y, Intent: in}
}

// Authoritative reports whether the role runs ball physics and scoring.
func Authoritative(r session.Role) bool {
	return r == session.RoleHost
}

// OwnedSide returns the bat a role controls.
func OwnedSide(r session.Role) physics.Side {
	switch r {
	case session.RoleHost:
		return physics.Left
	case session.RoleGuest:
		return physics.Right
	default:
		return physics.NoSide
	}
}
