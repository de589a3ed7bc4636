package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/duopong/internal/model"
	"github.com/vovakirdan/duopong/internal/platform/tui"
	"github.com/vovakirdan/duopong/internal/transport/ws"
)

var (
	flagMode       string
	flagRoom       string
	flagRelay      string
	flagDifficulty string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play pong",
	Long: `Play pong in this terminal.

Without --mode or --room a menu lets you pick how to play.

Modes:
  single   - You (left bat) against the CPU
  two      - Two players on one keyboard
  online   - Host a room on the relay, or join one with --room

Controls:
  W/S           - Left bat
  Up/Down, K/J  - Right bat (single player: any of these move your bat)
  Space         - Start / pause, and ready up online
  Esc           - Back to the menu
  Q/Ctrl+C      - Quit

Difficulty options (single player):
  easy, normal, hard, fixed

Examples:
  duopong play
  duopong play --mode single --difficulty hard
  duopong play --mode online --relay http://pong.example:8787
  duopong play --room http://pong.example:8787/#ABC123
  duopong play --room ABC123 --relay http://pong.example:8787`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagMode, "mode", "", "Game mode: single, two, online")
	playCmd.Flags().StringVar(&flagRoom, "room", "", "Room code or link to join")
	playCmd.Flags().StringVar(&flagRelay, "relay", "", "Relay URL (default from config)")
	playCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	// stdout belongs to the renderer
	logger, closeLog, err := newLogger("duopong", nil)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadGameConfig(flagDifficulty, logger)
	if err != nil {
		return err
	}

	mode, err := model.ParseMode(flagMode)
	if err != nil {
		return err
	}
	if flagRoom != "" {
		if mode == model.ModeNone {
			mode = model.ModeOnline
		}
		if mode != model.ModeOnline {
			return fmt.Errorf("--room only applies to online games")
		}
	}

	relayURL := cfg.Network.Relay
	if cmd.Flags().Changed("relay") {
		relayURL = flagRelay
	} else if base, ok := relayFromRoom(flagRoom); ok {
		relayURL = base
	}

	opts := []model.Option{model.WithLogger(logger)}
	if flagSeed != 0 {
		opts = append(opts, model.WithSeed(flagSeed))
	}
	online := relayURL != ""
	if online {
		client, err := ws.NewClient(relayURL, logger.WithPrefix("ws"))
		if err != nil {
			return err
		}
		opts = append(opts, model.WithTransport(client))
	}
	if mode == model.ModeOnline && !online {
		return fmt.Errorf("online play needs a relay: pass --relay or set network.relay")
	}
	game := model.New(cfg, opts...)
	defer game.Close()

	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = w, h
	}

	var start *tui.Choice
	if mode != model.ModeNone {
		start = &tui.Choice{Mode: mode, Room: flagRoom}
	}

	return tui.Run(tui.AppConfig{
		Game:      game,
		Config:    cfg,
		Online:    online,
		FPS:       flagFPS,
		ShareBase: strings.TrimRight(relayURL, "/") + "/",
		Width:     width,
		Height:    height,
		Logger:    logger,
		Start:     start,
	})
}

// relayFromRoom returns the relay a room link points at, so a shared link
// is enough to join.
func relayFromRoom(room string) (string, bool) {
	if !strings.Contains(room, "://") {
		return "", false
	}
	u, err := url.Parse(room)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return "", false
	}
	u.Fragment, u.RawQuery = "", ""
	return u.String(), true
}
