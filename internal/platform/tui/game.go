package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/duopong/internal/config"
	"github.com/vovakirdan/duopong/internal/model"
	"github.com/vovakirdan/duopong/internal/physics"
	"github.com/vovakirdan/duopong/internal/session"
)

// maxFrameGap caps dt so a stalled terminal does not teleport the ball.
const maxFrameGap = 100 * time.Millisecond

// eventBuffer is how many model events may queue between two frames.
const eventBuffer = 64

const flashDuration = 1500 * time.Millisecond

var (
	scoreStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// GameOptions configures a GameModel.
type GameOptions struct {
	Config config.GameConfig
	FPS    int

	// ShareBase is prefixed to "#CODE" in the hint a host shows, e.g. a
	// relay URL or an ssh command.
	ShareBase string

	Width  int
	Height int
	Logger *log.Logger

	// Now replaces time.Now for key hold tracking.
	Now func() time.Time
}

// GameModel renders a game model and feeds it terminal input.
type GameModel struct {
	game   *model.Model
	opts   GameOptions
	keys   KeyMap
	help   help.Model
	canvas *Canvas
	hold   *holdTracker
	events chan model.Event
	stop   func()
	logger *log.Logger

	width  int
	height int
	last   time.Time

	share      string
	flash      string
	flashUntil time.Time

	backToMenu bool
	quitting   bool
}

// NewGameModel wraps game. It subscribes to the model's events immediately
// so nothing emitted by a following Start is missed.
func NewGameModel(game *model.Model, opts GameOptions) GameModel {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	events := make(chan model.Event, eventBuffer)
	stop := game.Subscribe(func(e model.Event) {
		select {
		case events <- e:
		default:
			logger.Debug("event dropped", "event", fmt.Sprintf("%T", e))
		}
	})

	m := GameModel{
		game:   game,
		opts:   opts,
		keys:   NewKeyMap(opts.Config.Keys),
		help:   help.New(),
		hold:   newHoldTracker(DefaultHoldFirst, DefaultHoldRepeat),
		events: events,
		stop:   stop,
		logger: logger,
		width:  opts.Width,
		height: opts.Height,
	}
	m.canvas = NewCanvas(m.courtSize())
	m.help.Width = m.width
	return m
}

// Start initializes the model for mode. room is a code or URL to join;
// empty hosts when mode is online.
func (m GameModel) Start(mode model.Mode, room string) error {
	return m.game.Init(mode, room)
}

// Init starts the frame loop.
func (m GameModel) Init() tea.Cmd {
	return frameCmd(m.opts.FPS)
}

// Update handles messages.
func (m GameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.canvas.Resize(m.courtSize())
		return m, nil
	case tea.BlurMsg:
		for _, code := range m.hold.releaseAll() {
			m.game.KeyUp(code)
		}
		m.game.FocusLost()
		return m, nil
	case FrameMsg:
		return m.handleFrame(time.Time(msg))
	}
	return m, nil
}

func (m GameModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.keys.MenuAction(msg) == MenuActionQuit:
		m.leave()
		m.quitting = true
		return m, tea.Quit
	case m.keys.MenuAction(msg) == MenuActionBack:
		m.leave()
		m.backToMenu = true
		return m, nil
	case msg.String() == "?":
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	code := msg.String()
	if m.keys.IsStart(msg) {
		m.game.KeyDown(code)
		m.game.KeyUp(code)
		return m, nil
	}
	if m.hold.press(code, m.opts.Now()) {
		m.game.KeyDown(code)
	}
	return m, nil
}

func (m GameModel) handleFrame(t time.Time) (tea.Model, tea.Cmd) {
	if m.backToMenu || m.quitting {
		return m, nil
	}

	for _, code := range m.hold.expire(m.opts.Now()) {
		m.game.KeyUp(code)
	}

	var dt time.Duration
	if !m.last.IsZero() {
		dt = min(max(t.Sub(m.last), 0), maxFrameGap)
	}
	m.last = t
	m.game.Tick(float64(dt) / float64(time.Millisecond))

	m.drainEvents(t)
	return m, frameCmd(m.opts.FPS)
}

func (m *GameModel) drainEvents(now time.Time) {
	for {
		select {
		case e := <-m.events:
			m.handleEvent(e, now)
		default:
			return
		}
	}
}

func (m *GameModel) handleEvent(e model.Event, now time.Time) {
	switch e := e.(type) {
	case model.RoomOpenedEvent:
		m.share = e.Room.Fragment(m.opts.ShareBase)
	case model.PlayingOnlineEvent:
		m.setFlash("Go!", now)
	case model.PointEvent:
		m.setFlash(m.sideLabel(e.Scorer)+" scores", now)
	case model.DisconnectedEvent:
		m.setFlash("Connection lost", now)
	case model.StateChangedEvent:
		m.logger.Debug("state changed", "from", e.From, "to", e.To)
	case model.CollisionEvent:
	}
}

func (m *GameModel) setFlash(text string, now time.Time) {
	m.flash = text
	m.flashUntil = now.Add(flashDuration)
}

func (m *GameModel) leave() {
	m.stop()
	m.game.Init(model.ModeNone, "") //nolint:errcheck // offline init cannot fail
}

// courtSize leaves one row for the score and two for status and help.
func (m GameModel) courtSize() (int, int) {
	return m.width, m.height - 3
}

// View renders the score, court, status and help lines.
func (m GameModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width < 20 || m.height < 10 {
		return "Terminal too small"
	}

	DrawCourt(m.canvas, Court{
		Field: m.game.Field(),
		Ball:  m.game.Ball(),
		Left:  m.game.LeftBat(),
		Right: m.game.RightBat(),
	})

	var b strings.Builder
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.scoreLine()))
	b.WriteString("\n")
	b.WriteString(RenderCanvas(m.canvas))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.statusView()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m GameModel) scoreLine() string {
	s := m.game.Points()
	return scoreStyle.Render(fmt.Sprintf("%s  %d : %d  %s",
		m.sideLabel(physics.Left), s.Left, s.Right, m.sideLabel(physics.Right)))
}

func (m GameModel) statusView() string {
	if m.flash != "" && m.last.Before(m.flashUntil) {
		return statusStyle.Render(m.flash)
	}
	line, alert := statusLine(m.game.State(), m.game.Paused(), m.game.LocalReady(), m.game.RoomID(), m.share)
	if alert {
		return alertStyle.Render(line)
	}
	if m.share != "" && m.game.State() == session.WaitingOpponentToConnect {
		return hintStyle.Render(line)
	}
	return statusStyle.Render(line)
}

// statusLine describes state for the player. alert marks terminal states.
func statusLine(st session.State, paused, localReady bool, room session.RoomID, share string) (line string, alert bool) {
	switch st {
	case session.Offline:
		if paused {
			return "Paused: press space to play", false
		}
		return "", false
	case session.WaitingPlayer:
		return "Opponent is ready: press space to start", false
	case session.Connecting:
		return fmt.Sprintf("Joining room %s...", room), false
	case session.ConnectionFailed:
		return fmt.Sprintf("Could not join room %s. Press esc for the menu", room), true
	case session.WaitingOpponentToConnect:
		if share == "" {
			share = string(room)
		}
		return "Waiting for an opponent. Share " + share, false
	case session.WaitingOpponentToStart:
		if localReady {
			return "Waiting for the opponent to press start", false
		}
		return "Opponent connected: press space when ready", false
	case session.Playing:
		return "", false
	case session.OpponentDisconnected:
		return "Opponent left. Press esc for the menu", true
	default:
		return "", false
	}
}

func (m GameModel) sideLabel(side physics.Side) string {
	switch m.game.Mode() {
	case model.ModeSingleplayer:
		if side == physics.Left {
			return "YOU"
		}
		return "CPU"
	case model.ModeOnline:
		own := physics.Left
		if m.game.Role() == session.RoleGuest {
			own = physics.Right
		}
		if side == own {
			return "YOU"
		}
		return "THEM"
	case model.ModeNone, model.ModeTwoplayer:
	}
	if side == physics.Left {
		return "P1"
	}
	return "P2"
}

// BackToMenu reports whether the player asked for the menu.
func (m GameModel) BackToMenu() bool {
	return m.backToMenu
}

// IsQuitting reports whether the player asked to quit.
func (m GameModel) IsQuitting() bool {
	return m.quitting
}
