package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/duopong/internal/storage"
)

// DefaultRoomLimit is how many ledger rows the rooms screen loads.
const DefaultRoomLimit = 100

// RoomLister reads the relay's room ledger.
type RoomLister interface {
	RecentRooms(limit int) ([]storage.Room, error)
}

// RoomFilter narrows the rooms screen.
type RoomFilter int

const (
	FilterAll RoomFilter = iota
	FilterOpen
	FilterClosed
)

var roomFilters = []RoomFilter{FilterAll, FilterOpen, FilterClosed}

// String returns the tab title for the filter.
func (f RoomFilter) String() string {
	switch f {
	case FilterAll:
		return "All"
	case FilterOpen:
		return "Open"
	case FilterClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

func (f RoomFilter) match(r storage.Room) bool {
	switch f {
	case FilterOpen:
		return r.Active()
	case FilterClosed:
		return !r.Active()
	case FilterAll:
		return true
	default:
		return true
	}
}

// RoomsKeyMap defines the key bindings for the rooms screen.
type RoomsKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k RoomsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Next, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k RoomsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Next, k.Prev},
		{k.Refresh, k.Quit},
	}
}

// DefaultRoomsKeyMap returns default key bindings.
func DefaultRoomsKeyMap() RoomsKeyMap {
	return RoomsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next filter"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev filter"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// RoomsModel shows the relay's recent rooms in a table.
type RoomsModel struct {
	ledger   RoomLister
	limit    int
	filter   RoomFilter
	rooms    []storage.Room
	err      error
	table    table.Model
	help     help.Model
	keys     RoomsKeyMap
	width    int
	height   int
	quitting bool
}

// NewRoomsModel creates the rooms screen and loads the ledger.
func NewRoomsModel(ledger RoomLister, limit, width, height int) RoomsModel {
	if limit <= 0 {
		limit = DefaultRoomLimit
	}
	m := RoomsModel{
		ledger: ledger,
		limit:  limit,
		keys:   DefaultRoomsKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.load()
	return m
}

// RoomColumns are the column titles of a rooms listing.
var RoomColumns = []string{"Code", "Created", "Joined", "Closed", "Reason"}

// RoomRow formats a ledger record as one row of RoomColumns.
func RoomRow(r storage.Room) []string {
	reason := r.CloseReason
	if r.Active() {
		reason = "open"
	}
	return []string{r.Code, formatTime(r.CreatedAt), formatTime(r.JoinedAt), formatTime(r.ClosedAt), reason}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 02 15:04:05")
}

func (m *RoomsModel) createTable() table.Model {
	widths := []int{8, 16, 16, 16, 12}
	columns := make([]table.Column, len(RoomColumns))
	for i, title := range RoomColumns {
		columns[i] = table.Column{Title: title, Width: widths[i]}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (m *RoomsModel) load() {
	if m.ledger == nil {
		m.rooms, m.err = nil, nil
	} else {
		m.rooms, m.err = m.ledger.RecentRooms(m.limit)
	}
	m.updateTableRows()
}

func (m *RoomsModel) updateTableRows() {
	rows := make([]table.Row, 0, len(m.rooms))
	for _, r := range m.rooms {
		if m.filter.match(r) {
			rows = append(rows, RoomRow(r))
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init implements tea.Model.
func (m RoomsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the rooms screen.
func (m RoomsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.filter = roomFilters[(int(m.filter)+1)%len(roomFilters)]
			m.updateTableRows()
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.filter = roomFilters[(int(m.filter)+len(roomFilters)-1)%len(roomFilters)]
			m.updateTableRows()
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.load()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the rooms screen.
func (m RoomsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(centerText(titleStyle.Render("RELAY ROOMS"), m.width))
	b.WriteString("\n\n")

	tabStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)
	tabs := make([]string, len(roomFilters))
	for i, f := range roomFilters {
		if f == m.filter {
			tabs[i] = activeTabStyle.Render(f.String())
		} else {
			tabs[i] = tabStyle.Render(f.String())
		}
	}
	b.WriteString(centerText(lipgloss.JoinHorizontal(lipgloss.Top, tabs...), m.width))
	b.WriteString("\n\n")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(centerText(boxStyle.Render(m.tableContent()), m.width))

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m RoomsModel) tableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Could not read rooms: %v", m.err))
	}
	if len(m.table.Rows()) == 0 {
		return emptyStyle.Render("No rooms recorded yet.")
	}
	return m.table.View()
}

// RunRooms runs the rooms screen until the user quits.
func RunRooms(ledger RoomLister, limit, width, height int) error {
	p := tea.NewProgram(
		NewRoomsModel(ledger, limit, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
