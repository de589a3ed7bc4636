package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/duopong/internal/config"
	"github.com/vovakirdan/duopong/internal/model"
	"github.com/vovakirdan/duopong/internal/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Choice is what the player picked in the menu.
type Choice struct {
	Mode model.Mode
	Room string // Code to join; empty hosts when Mode is online
}

type menuItem struct {
	title string
	mode  model.Mode
	join  bool
}

// MenuModel lets the player pick a mode and, to join, type a room code.
type MenuModel struct {
	items   []menuItem
	cursor  int
	width   int
	height  int
	keys    KeyMap
	help    help.Model
	code    textinput.Model
	editing bool
	err     string

	selected *Choice
	quitting bool
}

// NewMenuModel creates the menu. Online entries are shown only when online
// play is available.
func NewMenuModel(keys config.KeysConfig, online bool, width, height int) MenuModel {
	items := []menuItem{
		{title: "Single player (vs CPU)", mode: model.ModeSingleplayer},
		{title: "Two players", mode: model.ModeTwoplayer},
	}
	if online {
		items = append(items,
			menuItem{title: "Host online game", mode: model.ModeOnline},
			menuItem{title: "Join online game", mode: model.ModeOnline, join: true},
		)
	}

	code := textinput.New()
	code.Placeholder = "ROOM CODE or link"
	code.CharLimit = 256
	code.Width = 32
	code.Prompt = "#"

	h := help.New()
	h.Width = width
	return MenuModel{
		items:  items,
		width:  width,
		height: height,
		keys:   NewKeyMap(keys),
		help:   h,
		code:   code,
	}
}

// Init implements tea.Model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.handleCodeKey(msg)
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	}
	if m.editing {
		var cmd tea.Cmd
		m.code, cmd = m.code.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keys.MenuAction(msg) {
	case MenuActionQuit, MenuActionBack:
		m.quitting = true
		return m, tea.Quit
	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case MenuActionSelect:
		if len(m.items) == 0 {
			return m, nil
		}
		item := m.items[m.cursor]
		if item.join {
			m.editing = true
			m.err = ""
			m.code.SetValue("")
			return m, m.code.Focus()
		}
		m.selected = &Choice{Mode: item.mode}
		return m, nil
	case MenuActionNone:
	}
	return m, nil
}

func (m MenuModel) handleCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.editing = false
		m.err = ""
		m.code.Blur()
		return m, nil
	case tea.KeyEnter:
		room, err := parseJoinCode(m.code.Value())
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.editing = false
		m.code.Blur()
		m.selected = &Choice{Mode: model.ModeOnline, Room: string(room)}
		return m, nil
	}

	var cmd tea.Cmd
	m.code, cmd = m.code.Update(msg)
	return m, cmd
}

// parseJoinCode accepts a code, "#CODE" or a link and rejects empty input,
// which would host instead of join.
func parseJoinCode(s string) (session.RoomID, error) {
	room, err := session.ParseRoom(s)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRoom) {
			return "", errors.New("room codes use letters and digits only")
		}
		return "", err
	}
	if room == "" {
		return "", errors.New("enter a room code")
	}
	return room, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centerText(titleStyle.Render("D U O P O N G"), m.width))
	b.WriteString("\n\n")

	for i, item := range m.items {
		line := "  " + item.title
		if i == m.cursor {
			line = selectedStyle.Render("> " + item.title)
		}
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString("\n")
		b.WriteString(centerText("Room to join:", m.width))
		b.WriteString("\n")
		b.WriteString(centerText(m.code.View(), m.width))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(centerText(errorStyle.Render(m.err), m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(m.help.View(menuHelp(m.keys)), m.width))
	b.WriteString("\n")
	return b.String()
}

// SetError shows err under the menu, for failures starting the chosen game.
func (m *MenuModel) SetError(err error) {
	m.err = fmt.Sprintf("could not start: %v", err)
	m.selected = nil
}

// Selected returns the choice, or nil while the player is still picking.
func (m MenuModel) Selected() *Choice {
	return m.selected
}

// IsQuitting reports whether the player left the menu.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// centerText centers text within width, measuring printable cells.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
