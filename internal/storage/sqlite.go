// Package storage keeps the relay's room ledger in SQLite.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var (
	// ErrRoomUsed is returned when a room code was opened before.
	ErrRoomUsed = errors.New("storage: room code already used")

	// ErrRoomNotOpen is returned when joining a room that is unknown,
	// already joined, or closed.
	ErrRoomNotOpen = errors.New("storage: room is not open")
)

// Store manages the SQLite database connection for the room ledger.
type Store struct {
	db *sql.DB
}

// Room is one ledger record. Zero times mean the event has not happened.
type Room struct {
	Code        string
	CreatedAt   time.Time
	JoinedAt    time.Time
	ClosedAt    time.Time
	CloseReason string
}

// Active reports whether the room has not been closed.
func (r Room) Active() bool {
	return r.ClosedAt.IsZero()
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// The relay writes from many connection goroutines
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rooms (
			code TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			joined_at INTEGER,
			closed_at INTEGER,
			close_reason TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_rooms_created ON rooms(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// OpenRoom records a new room. A code can be opened only once.
func (s *Store) OpenRoom(code string, at time.Time) error {
	result, err := s.db.Exec(
		"INSERT OR IGNORE INTO rooms (code, created_at) VALUES (?, ?)",
		code, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot open room: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot open room: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRoomUsed, code)
	}
	return nil
}

// JoinRoom records the guest joining an open room.
func (s *Store) JoinRoom(code string, at time.Time) error {
	result, err := s.db.Exec(
		`UPDATE rooms SET joined_at = ?
		 WHERE code = ? AND joined_at IS NULL AND closed_at IS NULL`,
		at.UnixMilli(), code,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot join room: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot join room: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRoomNotOpen, code)
	}
	return nil
}

// CloseRoom records why a room ended. Closing twice keeps the first record.
func (s *Store) CloseRoom(code, reason string, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE rooms SET closed_at = ?, close_reason = ?
		 WHERE code = ? AND closed_at IS NULL`,
		at.UnixMilli(), reason, code,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot close room: %w", err)
	}
	return nil
}

// RoomUsed reports whether a code was ever opened.
func (s *Store) RoomUsed(code string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM rooms WHERE code = ?", code).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("storage: cannot query room: %w", err)
	}
	return n > 0, nil
}

// RecentRooms returns the newest rooms first.
func (s *Store) RecentRooms(limit int) ([]Room, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT code, created_at, joined_at, closed_at, close_reason
		 FROM rooms
		 ORDER BY created_at DESC, code
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		var created int64
		var joined, closed sql.NullInt64
		if err := rows.Scan(&r.Code, &created, &joined, &closed, &r.CloseReason); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created)
		r.JoinedAt = fromMillis(joined)
		r.ClosedAt = fromMillis(closed)
		rooms = append(rooms, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return rooms, nil
}

func fromMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.UnixMilli(v.Int64)
}
