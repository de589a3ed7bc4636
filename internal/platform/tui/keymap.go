package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/duopong/internal/config"
)

// KeyMap holds the bindings the front end interprets itself. Paddle and
// start keys come from the game config and are passed to the model as-is;
// they appear here only for the help line.
type KeyMap struct {
	Quit   key.Binding
	Back   key.Binding
	Help   key.Binding
	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	LeftMove  key.Binding
	RightMove key.Binding
	Start     key.Binding
}

// NewKeyMap builds the bindings for the given game keys.
func NewKeyMap(k config.KeysConfig) KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc", "menu"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k", "w"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "s"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		LeftMove: key.NewBinding(
			key.WithKeys(append(append([]string{}, k.LeftUp...), k.LeftDown...)...),
			key.WithHelp(helpKeys(k.LeftUp, k.LeftDown), "left bat"),
		),
		RightMove: key.NewBinding(
			key.WithKeys(append(append([]string{}, k.RightUp...), k.RightDown...)...),
			key.WithHelp(helpKeys(k.RightUp, k.RightDown), "right bat"),
		),
		Start: key.NewBinding(
			key.WithKeys(k.Start...),
			key.WithHelp(firstKey(k.Start), "start/pause"),
		),
	}
}

func firstKey(keys []string) string {
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			return k
		}
	}
	return "?"
}

func helpKeys(up, down []string) string {
	return firstKey(up) + "/" + firstKey(down)
}

// IsStart reports whether msg is one of the configured start keys.
func (km KeyMap) IsStart(msg tea.KeyMsg) bool {
	return key.Matches(msg, km.Start)
}

// ShortHelp implements help.KeyMap.
func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.LeftMove, km.RightMove, km.Start, km.Back, km.Quit}
}

// FullHelp implements help.KeyMap.
func (km KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.LeftMove, km.RightMove, km.Start},
		{km.Back, km.Help, km.Quit},
	}
}

// menuHelp lists the bindings shown under the menu.
type menuHelp KeyMap

func (km menuHelp) ShortHelp() []key.Binding {
	return []key.Binding{km.Up, km.Down, km.Select, km.Back, km.Quit}
}

func (km menuHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{km.ShortHelp()}
}

// MenuAction is a menu-level action derived from a key.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionQuit
)

// MenuAction translates a key to a menu action.
func (km KeyMap) MenuAction(msg tea.KeyMsg) MenuAction {
	switch {
	case key.Matches(msg, km.Quit):
		return MenuActionQuit
	case key.Matches(msg, km.Up):
		return MenuActionUp
	case key.Matches(msg, km.Down):
		return MenuActionDown
	case key.Matches(msg, km.Select), msg.String() == " ":
		return MenuActionSelect
	case key.Matches(msg, km.Back):
		return MenuActionBack
	default:
		return MenuActionNone
	}
}
