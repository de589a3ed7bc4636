package model

import (
	"github.com/vovakirdan/duopong/internal/physics"
	"github.com/vovakirdan/duopong/internal/session"
)

// State returns the session state.
func (m *Model) State() session.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.machine.State()
}

// Paused reports whether offline play is paused.
func (m *Model) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.machine.Paused()
}

// Running reports whether the simulation advances on Tick.
func (m *Model) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.machine.Running()
}

// LocalReady reports whether the local player already signaled ready online.
func (m *Model) LocalReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.machine.LocalReady()
}

// Ball returns the ball in field units.
func (m *Model) Ball() physics.Ball {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ball
}

// LeftBat returns the left bat.
func (m *Model) LeftBat() physics.Bat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.left
}

// RightBat returns the right bat.
func (m *Model) RightBat() physics.Bat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.right
}

// Points returns the (left, right) score.
func (m *Model) Points() physics.Score {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

// Field returns the abstract court size.
func (m *Model) Field() physics.Field {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.field
}

// RoomID returns the online room code, empty offline.
func (m *Model) RoomID() session.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.room
}

// Mode returns the mode of the last Init.
func (m *Model) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Role returns the online role, RoleNone offline.
func (m *Model) Role() session.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.role
}
