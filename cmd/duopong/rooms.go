package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/duopong/internal/platform/tui"
	"github.com/vovakirdan/duopong/internal/storage"
)

var (
	flagRoomsDB    string
	flagRoomsLimit int
	flagRoomsPlain bool
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Show recent rooms from the relay ledger",
	Long: `Show the rooms the relay opened, newest first.

On a terminal this opens an interactive table; --plain (or a pipe) prints
a plain listing instead.

Examples:
  duopong rooms
  duopong rooms --limit 50 --plain
  duopong rooms --db ./relay.db`,
	Args: cobra.NoArgs,
	RunE: runRooms,
}

func init() {
	roomsCmd.Flags().StringVar(&flagRoomsDB, "db", defaultDBPath, "Path to the room ledger database")
	roomsCmd.Flags().IntVar(&flagRoomsLimit, "limit", 20, "Number of rooms to show")
	roomsCmd.Flags().BoolVar(&flagRoomsPlain, "plain", false, "Print a plain listing")
}

func runRooms(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagRoomsDB)
	if err != nil {
		return fmt.Errorf("cannot open room ledger: %w", err)
	}
	defer store.Close()

	fd := int(os.Stdout.Fd())
	if !flagRoomsPlain && term.IsTerminal(fd) {
		width, height, err := term.GetSize(fd)
		if err != nil {
			width, height = 80, 24
		}
		return tui.RunRooms(store, flagRoomsLimit, width, height)
	}

	rooms, err := store.RecentRooms(flagRoomsLimit)
	if err != nil {
		return fmt.Errorf("cannot read rooms: %w", err)
	}
	if len(rooms) == 0 {
		fmt.Println("No rooms recorded yet.")
		return nil
	}

	format := "  %-8s  %-15s  %-15s  %-15s  %s\n"
	fmt.Printf(format, toArgs(tui.RoomColumns)...)
	fmt.Printf(format, toArgs(underline(tui.RoomColumns))...)
	for _, r := range rooms {
		fmt.Printf(format, toArgs(tui.RoomRow(r))...)
	}
	return nil
}

func underline(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.Repeat("-", len(c))
	}
	return out
}

func toArgs(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}
