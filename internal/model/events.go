package model

import (
	"slices"

	"github.com/vovakirdan/duopong/internal/physics"
	"github.com/vovakirdan/duopong/internal/session"
)

// Event is a notification emitted by the model.
type Event interface {
	modelEvent()
}

// RoomOpenedEvent is sent when a host has a room code to share.
type RoomOpenedEvent struct {
	Room session.RoomID
}

func (RoomOpenedEvent) modelEvent() {}

// PlayingOnlineEvent is sent once per online session when both peers are
// ready and the rally begins.
type PlayingOnlineEvent struct{}

func (PlayingOnlineEvent) modelEvent() {}

// DisconnectedEvent is sent when the peer channel closes.
type DisconnectedEvent struct{}

func (DisconnectedEvent) modelEvent() {}

// CollisionEvent is sent when the ball strikes a bat.
type CollisionEvent struct {
	Side physics.Side
}

func (CollisionEvent) modelEvent() {}

// PointEvent is sent when a side scores.
type PointEvent struct {
	Scorer physics.Side
	Score  physics.Score
}

func (PointEvent) modelEvent() {}

// StateChangedEvent is sent on every session state transition.
type StateChangedEvent struct {
	From session.State
	To   session.State
}

func (StateChangedEvent) modelEvent() {}

// Subscribe registers fn for every event. Handlers run on the goroutine that
// caused the event, after the model lock is released, so they may call back
// into the model. The returned function removes the subscription.
func (m *Model) Subscribe(fn func(Event)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Model) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}

	m.subMu.Lock()
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	m.subMu.Unlock()
	slices.Sort(ids)

	for _, evt := range events {
		for _, id := range ids {
			m.subMu.Lock()
			fn, ok := m.subs[id]
			m.subMu.Unlock()
			if ok {
				fn(evt)
			}
		}
	}
}

func (m *Model) emit(evt Event) {
	m.pending = append(m.pending, evt)
}
