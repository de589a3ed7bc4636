package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/duopong/internal/config"
	"github.com/vovakirdan/duopong/internal/model"
	"github.com/vovakirdan/duopong/internal/transport/memory"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.duopong/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// ShareHost is how players reach this server, used in the room hint,
	// e.g. "-p 23234 pong.example.com".
	ShareHost string

	Game config.GameConfig
	FPS  int

	// Seed makes every session's game reproducible when non-zero.
	Seed int64
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
		ShareHost:   "-p 23234 localhost",
		Game:        config.DefaultGameConfig(),
		FPS:         DefaultFPS,
	}
}

// SSHServer serves the game over SSH. Sessions on the same server play
// each other online through an in-process hub.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	hub    *memory.Hub
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "duopong-ssh",
		})
	}
	if err := cfg.Game.Validate(); err != nil {
		return nil, err
	}

	srv := &SSHServer{
		config: cfg,
		hub:    memory.NewHub(memory.DefaultConfig(), logger.WithPrefix("hub")),
		logger: logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".duopong", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// teaHandler creates a program for each SSH session.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		wish.Fatalln(sess, "duopong needs a terminal: connect with ssh -t")
		return nil, nil
	}

	start, err := ParseCommand(sess.Command())
	if err != nil {
		wish.Fatalln(sess, err.Error())
		return nil, nil
	}

	logger := s.logger.With("user", sess.User())
	opts := []model.Option{model.WithTransport(s.hub), model.WithLogger(logger)}
	if s.config.Seed != 0 {
		opts = append(opts, model.WithSeed(s.config.Seed))
	}
	game := model.New(s.config.Game, opts...)

	// The program may outlive a dropped connection by a frame or two.
	go func() {
		<-sess.Context().Done()
		game.Close()
	}()

	app := NewAppModel(AppConfig{
		Game:      game,
		Config:    s.config.Game,
		Online:    true,
		FPS:       s.config.FPS,
		ShareBase: "ssh " + s.config.ShareHost + " -t online",
		Width:     pty.Window.Width,
		Height:    pty.Window.Height,
		Logger:    logger,
		Start:     start,
	})
	return app, []tea.ProgramOption{tea.WithAltScreen(), tea.WithReportFocus()}
}

// ParseCommand reads the game to start from an SSH command line: "single",
// "two", "online" to host, or "online#CODE" and "#CODE" to join. No command
// opens the menu.
func ParseCommand(args []string) (*Choice, error) {
	cmd := strings.TrimSpace(strings.Join(args, " "))
	if cmd == "" {
		return nil, nil
	}

	name, room, _ := strings.Cut(cmd, "#")
	mode, err := model.ParseMode(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("unknown command %q: use single, two, online or online#CODE", cmd)
	}
	if mode == model.ModeNone {
		if room == "" {
			return nil, nil
		}
		mode = model.ModeOnline
	}
	if mode != model.ModeOnline && room != "" {
		return nil, fmt.Errorf("room codes only apply to online games")
	}
	return &Choice{Mode: mode, Room: room}, nil
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.logger.Info("session started",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
			"command", strings.Join(sess.Command(), " "),
		)
		next(sess)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves until ctx is done, then shuts down.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)
	s.hub.Start()
	defer s.hub.Stop()

	errc := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
