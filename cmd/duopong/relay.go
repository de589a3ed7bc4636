package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/duopong/internal/relay"
	"github.com/vovakirdan/duopong/internal/storage"
)

const defaultDBPath = "~/.duopong/relay.db"

var (
	flagRelayAddr   string
	flagRelayDB     string
	flagRoomTimeout time.Duration
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the relay that pairs online players",
	Long: `Run the WebSocket relay.

A host opens a room with a fresh code and a guest joins it with the same
code. The relay forwards frames between them and closes the partner when
either side leaves. A room code is never reused. Rooms that no guest joins
expire after --room-timeout. Every room is recorded in a SQLite ledger.

Examples:
  duopong relay
  duopong relay --addr :9000 --db ./relay.db
  duopong relay --room-timeout 2m`,
	Args: cobra.NoArgs,
	RunE: runRelay,
}

func init() {
	def := relay.DefaultConfig()
	relayCmd.Flags().StringVar(&flagRelayAddr, "addr", def.Addr, "HTTP listen address")
	relayCmd.Flags().StringVar(&flagRelayDB, "db", defaultDBPath, "Path to the room ledger database")
	relayCmd.Flags().DurationVar(&flagRoomTimeout, "room-timeout", def.RoomTimeout, "How long a room waits for its guest")
}

func runRelay(_ *cobra.Command, _ []string) error {
	logger, closeLog, err := newLogger("relay", os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := storage.Open(flagRelayDB)
	if err != nil {
		return fmt.Errorf("cannot open room ledger: %w", err)
	}
	defer store.Close()

	cfg := relay.DefaultConfig()
	cfg.Addr = flagRelayAddr
	cfg.RoomTimeout = flagRoomTimeout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := relay.New(cfg, store, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	logger.Info("relay stopped")
	return nil
}
