// duopong is a two-paddle pong for the terminal, playable against the CPU,
// against a friend on the same keyboard, or online through a relay.
//
// Usage:
//
//	duopong play              - Open the mode menu
//	duopong play --mode single
//	duopong play --mode online                      - Host a room
//	duopong play --room http://relay:8787/#ABC123   - Join a room
//	duopong relay             - Run the relay server
//	duopong serve             - Serve the game over SSH
//	duopong rooms             - Show the relay's recent rooms
//
// Global flags:
//
//	--seed <value>   - RNG seed for reproducible serves
//	--config <path>  - Game config YAML
//	--log <path>     - Write logs to a file
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/duopong/internal/config"
)

var (
	flagSeed     int64
	flagConfig   string
	flagLog      string
	flagLogLevel string
	flagFPS      int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "duopong",
	Short: "Two-paddle pong in your terminal",
	Long: `duopong is a pong game for the terminal.

Play against the CPU, against a friend on the same keyboard, or online:
one player hosts a room and shares its code, the other joins with it.

Available commands:
  play    - Play (menu, single, two players, or online)
  relay   - Run the relay that pairs online players
  serve   - Serve the game over SSH
  rooms   - Show recent rooms from the relay ledger

Examples:
  duopong play
  duopong play --mode two
  duopong play --mode online --relay http://localhost:8787
  duopong relay --addr :8787
  duopong serve --ssh :2222`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom game config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLog, "log", "", "Write logs to this file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Frames per second")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(roomsCmd)
}

// newLogger writes to --log when set, otherwise to fallback. A nil
// fallback discards output. The returned function closes the log file.
func newLogger(prefix string, fallback io.Writer) (*log.Logger, func(), error) {
	out, closeFn := fallback, func() {}
	if flagLog != "" {
		path := expandHome(flagLog)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("cannot create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open log file: %w", err)
		}
		out, closeFn = f, func() { f.Close() }
	}
	if out == nil {
		out = io.Discard
	}

	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	})
	return logger, closeFn, nil
}

// loadGameConfig loads --config (or the default search path) and applies a
// difficulty preset.
func loadGameConfig(difficulty string, logger *log.Logger) (config.GameConfig, error) {
	cfg, source, err := config.Load(flagConfig)
	if err != nil {
		return config.GameConfig{}, err
	}
	preset, err := config.ParsePreset(difficulty)
	if err != nil {
		return config.GameConfig{}, err
	}
	config.ApplyPreset(&cfg, preset)
	logger.Debug("config loaded", "source", source, "difficulty", preset)
	return cfg, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
