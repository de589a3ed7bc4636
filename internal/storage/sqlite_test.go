package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreNestedPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "relay.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestRoomLifecycle(t *testing.T) {
	store := openTestStore(t)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.OpenRoom("ABC123", t0); err != nil {
		t.Fatalf("OpenRoom() failed: %v", err)
	}
	if err := store.JoinRoom("ABC123", t0.Add(time.Second)); err != nil {
		t.Fatalf("JoinRoom() failed: %v", err)
	}
	if err := store.CloseRoom("ABC123", "guest left", t0.Add(time.Minute)); err != nil {
		t.Fatalf("CloseRoom() failed: %v", err)
	}
	// Second close keeps the first reason
	if err := store.CloseRoom("ABC123", "host left", t0.Add(2*time.Minute)); err != nil {
		t.Fatalf("CloseRoom() failed: %v", err)
	}

	rooms, err := store.RecentRooms(10)
	if err != nil {
		t.Fatalf("RecentRooms() failed: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("Expected 1 room, got %d", len(rooms))
	}

	r := rooms[0]
	if r.Code != "ABC123" {
		t.Errorf("Expected code ABC123, got %s", r.Code)
	}
	if !r.CreatedAt.Equal(t0) {
		t.Errorf("Expected created at %v, got %v", t0, r.CreatedAt)
	}
	if !r.JoinedAt.Equal(t0.Add(time.Second)) {
		t.Errorf("Expected joined at %v, got %v", t0.Add(time.Second), r.JoinedAt)
	}
	if !r.ClosedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("Expected closed at %v, got %v", t0.Add(time.Minute), r.ClosedAt)
	}
	if r.CloseReason != "guest left" {
		t.Errorf("Expected reason %q, got %q", "guest left", r.CloseReason)
	}
	if r.Active() {
		t.Error("Expected closed room to be inactive")
	}
}

func TestRoomCodeUsedOnce(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()

	used, err := store.RoomUsed("ONCE")
	if err != nil {
		t.Fatalf("RoomUsed() failed: %v", err)
	}
	if used {
		t.Error("Expected fresh code to be unused")
	}

	if err := store.OpenRoom("ONCE", now); err != nil {
		t.Fatalf("OpenRoom() failed: %v", err)
	}
	if err := store.OpenRoom("ONCE", now); !errors.Is(err, ErrRoomUsed) {
		t.Errorf("Expected ErrRoomUsed, got %v", err)
	}

	used, err = store.RoomUsed("ONCE")
	if err != nil {
		t.Fatalf("RoomUsed() failed: %v", err)
	}
	if !used {
		t.Error("Expected code to be used")
	}
}

func TestJoinRoomRequiresOpenRoom(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()

	if err := store.JoinRoom("MISSING", now); !errors.Is(err, ErrRoomNotOpen) {
		t.Errorf("Expected ErrRoomNotOpen for unknown room, got %v", err)
	}

	if err := store.OpenRoom("TWICE", now); err != nil {
		t.Fatal(err)
	}
	if err := store.JoinRoom("TWICE", now); err != nil {
		t.Fatal(err)
	}
	if err := store.JoinRoom("TWICE", now); !errors.Is(err, ErrRoomNotOpen) {
		t.Errorf("Expected ErrRoomNotOpen for second join, got %v", err)
	}

	if err := store.OpenRoom("SHUT", now); err != nil {
		t.Fatal(err)
	}
	if err := store.CloseRoom("SHUT", "expired", now); err != nil {
		t.Fatal(err)
	}
	if err := store.JoinRoom("SHUT", now); !errors.Is(err, ErrRoomNotOpen) {
		t.Errorf("Expected ErrRoomNotOpen for closed room, got %v", err)
	}
}

func TestRecentRoomsLimit(t *testing.T) {
	store := openTestStore(t)
	base := time.Now()

	for i := 0; i < 15; i++ {
		code := string(rune('A'+i)) + "ROOM"
		if err := store.OpenRoom(code, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("OpenRoom() failed: %v", err)
		}
	}

	rooms, err := store.RecentRooms(5)
	if err != nil {
		t.Fatalf("RecentRooms() failed: %v", err)
	}
	if len(rooms) != 5 {
		t.Fatalf("Expected 5 rooms, got %d", len(rooms))
	}
	if rooms[0].Code != "OROOM" {
		t.Errorf("Expected newest room OROOM first, got %s", rooms[0].Code)
	}
	if !rooms[0].Active() || !rooms[0].JoinedAt.IsZero() {
		t.Errorf("Expected open unjoined room, got %+v", rooms[0])
	}
}
