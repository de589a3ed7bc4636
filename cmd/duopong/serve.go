package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/duopong/internal/platform/tui"
)

var (
	flagSSHAddr         string
	flagHostKey         string
	flagIdleTimeout     int
	flagShareHost       string
	flagServeDifficulty string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game over SSH",
	Long: `Start an SSH server that lets users connect and play.

Each SSH connection gets its own session with the mode menu. Online games
pair sessions on this server with each other, no relay needed.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.duopong/host_key

Examples:
  duopong serve                           # Listen on :23234
  duopong serve --ssh :2222 --share-host "-p 2222 pong.example.com"

Users can connect with:
  ssh -p 23234 localhost                  # menu
  ssh -p 23234 localhost -t single        # straight into a game
  ssh -p 23234 localhost -t online        # host a room
  ssh -p 23234 localhost -t online#CODE   # join a room`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	def := tui.DefaultSSHServerConfig()
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", def.Address, "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagShareHost, "share-host", def.ShareHost, "ssh arguments players use to reach this server, shown in room hints")
	serveCmd.Flags().StringVar(&flagServeDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
}

func runServe(_ *cobra.Command, _ []string) error {
	logger, closeLog, err := newLogger("duopong-ssh", os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	game, err := loadGameConfig(flagServeDifficulty, logger)
	if err != nil {
		return err
	}

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: expandHome(flagHostKey),
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		ShareHost:   flagShareHost,
		Game:        game,
		FPS:         flagFPS,
		Seed:        flagSeed,
	}

	server, err := tui.NewSSHServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("cannot create server: %w", err)
	}

	fmt.Printf("Starting duopong SSH server on %s\n", server.Addr())
	fmt.Printf("Connect with: ssh %s\n", cfg.ShareHost)
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.ListenAndServe(ctx)
}
