// Package tui is the terminal front end: a Bubble Tea program that polls the
// game model once per frame, a mode menu, and an SSH server that hands every
// session its own program.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultFPS is the frame rate of the render loop.
const DefaultFPS = 60

// FrameMsg is sent once per rendered frame.
type FrameMsg time.Time

// frameCmd returns a command that sends a FrameMsg after one frame interval.
func frameCmd(fps int) tea.Cmd {
	if fps <= 0 {
		fps = DefaultFPS
	}
	interval := time.Second / time.Duration(fps)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}
