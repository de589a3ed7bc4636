package session

// Machine holds the session state and the ready handshake.
// It performs no I/O; callers feed it transport and input facts.
type Machine struct {
	state       State
	paused      bool
	localReady  bool
	remoteReady bool
	announced   bool // Playing has been reported once
}

// NewOffline creates a machine for local play, paused until the first start.
func NewOffline() *Machine {
	return &Machine{state: Offline, paused: true}
}

// NewHost creates a machine for the side that opened a room.
func NewHost() *Machine {
	return &Machine{state: WaitingOpponentToConnect}
}

// NewGuest creates a machine for the side joining a room.
func NewGuest() *Machine {
	return &Machine{state: Connecting}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Paused reports whether offline play is paused. Always false online.
func (m *Machine) Paused() bool {
	return m.state == Offline && m.paused
}

// Running reports whether the simulation should advance.
func (m *Machine) Running() bool {
	switch m.state {
	case Offline:
		return !m.paused
	case Playing:
		return true
	default:
		return false
	}
}

// LocalReady reports whether the local player has signaled ready online.
func (m *Machine) LocalReady() bool {
	return m.localReady
}

// Joined records a successful join. Returns true if the state changed.
func (m *Machine) Joined() bool {
	if m.state != Connecting {
		return false
	}
	m.state = WaitingOpponentToStart
	return true
}

// JoinFailed records that the connection could not be established.
func (m *Machine) JoinFailed() bool {
	switch m.state {
	case Connecting, WaitingOpponentToConnect:
		m.state = ConnectionFailed
		return true
	default:
		return false
	}
}

// PeerJoined records that a guest entered the host's room.
func (m *Machine) PeerJoined() bool {
	if m.state != WaitingOpponentToConnect {
		return false
	}
	m.state = WaitingOpponentToStart
	return true
}

// Start records local readiness. It returns playing=true only on the call
// that moves the machine into Playing for the first time.
func (m *Machine) Start() (changed, playing bool) {
	switch m.state {
	case WaitingOpponentToStart:
		// The opponent's ready message completes the handshake.
		m.localReady = true
		return false, false
	case WaitingPlayer:
		m.localReady = true
		return true, m.enterPlaying()
	default:
		return false, false
	}
}

// RemoteStart records the opponent's readiness.
func (m *Machine) RemoteStart() (changed, playing bool) {
	if m.state != WaitingOpponentToStart || m.remoteReady {
		return false, false
	}
	m.remoteReady = true
	if m.localReady {
		return true, m.enterPlaying()
	}
	m.state = WaitingPlayer
	return true, false
}

// Disconnected records the peer channel closing. Offline and terminal
// states are unaffected.
func (m *Machine) Disconnected() bool {
	if !m.state.Online() || m.state.Terminal() {
		return false
	}
	m.state = OpponentDisconnected
	return true
}

// TogglePause flips offline pause. Returns the new paused value.
func (m *Machine) TogglePause() bool {
	if m.state != Offline {
		return false
	}
	m.paused = !m.paused
	return m.paused
}

// ForcePause pauses offline play, as on focus loss.
func (m *Machine) ForcePause() {
	if m.state == Offline {
		m.paused = true
	}
}

func (m *Machine) enterPlaying() bool {
	m.state = Playing
	if m.announced {
		return false
	}
	m.announced = true
	return true
}
