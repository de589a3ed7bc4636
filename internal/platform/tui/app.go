package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/duopong/internal/config"
	"github.com/vovakirdan/duopong/internal/model"
)

// AppConfig configures an AppModel.
type AppConfig struct {
	Game   *model.Model
	Config config.GameConfig
	Online bool // Whether the game has a transport for online play
	FPS    int

	// ShareBase prefixes the room code in the host's share hint.
	ShareBase string

	Width  int
	Height int
	Logger *log.Logger

	// Start skips the menu and starts this game right away.
	Start *Choice
}

// AppModel is the top-level flow: menu, then game, then back to the menu.
type AppModel struct {
	cfg      AppConfig
	menu     MenuModel
	game     *GameModel
	quitting bool
}

// NewAppModel creates the top-level model.
func NewAppModel(cfg AppConfig) AppModel {
	return AppModel{
		cfg:  cfg,
		menu: NewMenuModel(cfg.Config.Keys, cfg.Online, cfg.Width, cfg.Height),
	}
}

// Init starts the preselected game, if any.
func (m AppModel) Init() tea.Cmd {
	if m.cfg.Start == nil {
		return nil
	}
	choice := *m.cfg.Start
	return func() tea.Msg {
		return startMsg(choice)
	}
}

type startMsg Choice

// Update handles messages.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.cfg.Width, m.cfg.Height = wsm.Width, wsm.Height
	}
	if start, ok := msg.(startMsg); ok {
		return m.start(Choice(start))
	}

	if m.game != nil {
		return m.updateGame(msg)
	}
	return m.updateMenu(msg)
}

func (m AppModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	if menu, ok := next.(MenuModel); ok {
		m.menu = menu
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		m.cfg.Game.Close()
		return m, tea.Quit
	}
	if choice := m.menu.Selected(); choice != nil {
		return m.start(*choice)
	}
	return m, cmd
}

func (m AppModel) start(choice Choice) (tea.Model, tea.Cmd) {
	game := NewGameModel(m.cfg.Game, GameOptions{
		Config:    m.cfg.Config,
		FPS:       m.cfg.FPS,
		ShareBase: m.cfg.ShareBase,
		Width:     m.cfg.Width,
		Height:    m.cfg.Height,
		Logger:    m.cfg.Logger,
	})
	if err := game.Start(choice.Mode, choice.Room); err != nil {
		game.stop()
		if m.cfg.Logger != nil {
			m.cfg.Logger.Warn("could not start game", "mode", choice.Mode, "error", err)
		}
		m.menu = NewMenuModel(m.cfg.Config.Keys, m.cfg.Online, m.cfg.Width, m.cfg.Height)
		m.menu.SetError(err)
		return m, nil
	}
	m.game = &game
	return m, game.Init()
}

func (m AppModel) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.game.Update(msg)
	if game, ok := next.(GameModel); ok {
		m.game = &game
	}

	if m.game.IsQuitting() {
		m.quitting = true
		m.cfg.Game.Close()
		return m, tea.Quit
	}
	if m.game.BackToMenu() {
		m.game = nil
		m.menu = NewMenuModel(m.cfg.Config.Keys, m.cfg.Online, m.cfg.Width, m.cfg.Height)
		return m, m.menu.Init()
	}
	return m, cmd
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.quitting {
		return ""
	}
	if m.game != nil {
		return m.game.View()
	}
	return m.menu.View()
}

// Run runs the app on the local terminal until the player quits.
func Run(cfg AppConfig) error {
	p := tea.NewProgram(
		NewAppModel(cfg),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)
	_, err := p.Run()
	return err
}
