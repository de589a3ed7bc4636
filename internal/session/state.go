// Package session tracks whether a game is offline, rendezvousing with a
// peer, playing online, or over because the connection went away.
package session

// State is the lifecycle stage of a game session.
type State int

const (
	// Offline is local play on one device. Pause is tracked separately.
	Offline State = iota

	// WaitingPlayer means the opponent has signaled ready and the local
	// player has not started yet. Offline play never enters it: the pause
	// before the first start is Offline with Machine.Paused reporting true.
	WaitingPlayer

	// Connecting is a guest attempting to join a room.
	Connecting

	// ConnectionFailed is terminal: the join never completed.
	ConnectionFailed

	// WaitingOpponentToConnect is a host with an open room and no guest.
	WaitingOpponentToConnect

	// WaitingOpponentToStart means both peers are connected and the
	// opponent has not signaled ready.
	WaitingOpponentToStart

	// Playing is an active online rally.
	Playing

	// OpponentDisconnected is terminal: the peer channel closed.
	OpponentDisconnected
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Offline:
		return "offline"
	case WaitingPlayer:
		return "waiting for player"
	case Connecting:
		return "connecting"
	case ConnectionFailed:
		return "connection failed"
	case WaitingOpponentToConnect:
		return "waiting for opponent to connect"
	case WaitingOpponentToStart:
		return "waiting for opponent to start"
	case Playing:
		return "playing"
	case OpponentDisconnected:
		return "opponent disconnected"
	default:
		return "unknown"
	}
}

// Online reports whether the state belongs to an online session.
func (s State) Online() bool {
	switch s {
	case Offline:
		return false
	case WaitingPlayer, Connecting, ConnectionFailed, WaitingOpponentToConnect,
		WaitingOpponentToStart, Playing, OpponentDisconnected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition can leave the state.
func (s State) Terminal() bool {
	switch s {
	case ConnectionFailed, OpponentDisconnected:
		return true
	case Offline, WaitingPlayer, Connecting, WaitingOpponentToConnect,
		WaitingOpponentToStart, Playing:
		return false
	default:
		return false
	}
}

// States lists every state in declaration order.
func States() []State {
	return []State{
		Offline,
		WaitingPlayer,
		Connecting,
		ConnectionFailed,
		WaitingOpponentToConnect,
		WaitingOpponentToStart,
		Playing,
		OpponentDisconnected,
	}
}
