package model

import (
	"fmt"
	"strings"
)

// Mode selects how the game is played.
type Mode int

const (
	// ModeNone is the idle court shown before a mode is chosen.
	ModeNone Mode = iota

	// ModeSingleplayer is one player against the CPU on the right bat.
	ModeSingleplayer

	// ModeTwoplayer is two players sharing a keyboard.
	ModeTwoplayer

	// ModeOnline is two peers connected through a transport.
	ModeOnline
)

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeSingleplayer:
		return "singleplayer"
	case ModeTwoplayer:
		return "twoplayer"
	case ModeOnline:
		return "online"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as printed by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, nil
	case "singleplayer", "single", "1p":
		return ModeSingleplayer, nil
	case "twoplayer", "two", "2p":
		return ModeTwoplayer, nil
	case "online":
		return ModeOnline, nil
	default:
		return ModeNone, fmt.Errorf("model: unknown mode %q", s)
	}
}
