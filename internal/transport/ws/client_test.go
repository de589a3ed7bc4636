package ws

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vovakirdan/duopong/internal/relay"
	"github.com/vovakirdan/duopong/internal/session"
	"github.com/vovakirdan/duopong/internal/transport"
)

func newTestClient(t *testing.T) (*Client, *relay.Server) {
	t.Helper()
	srv := relay.New(relay.DefaultConfig(), nil, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := NewClient(ts.URL+"/#IGNORED", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

func TestNewClientSchemes(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://localhost:8787", "ws://localhost:8787/rooms/ABC?role=host", false},
		{"https://pong.example.com/base/", "wss://pong.example.com/base/rooms/ABC?role=host", false},
		{"ws://127.0.0.1:1/#XYZ", "ws://127.0.0.1:1/rooms/ABC?role=host", false},
		{"ftp://nope", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := NewClient(tt.in, nil)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			if got := c.RoomURL("ABC", session.RoleHost); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClientThroughRelay(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	host, err := c.Connect(ctx, "WSROOM", session.RoleHost)
	if err != nil {
		t.Fatalf("host connect: %v", err)
	}
	defer host.Close()

	hostIn := make(chan []byte, 1)
	host.OnMessage(func(f []byte) { hostIn <- f })
	hostGone := make(chan error, 1)
	host.OnDisconnect(func(err error) { hostGone <- err })

	for srv.Rooms() != 1 {
		time.Sleep(5 * time.Millisecond)
	}

	guest, err := c.Connect(ctx, "WSROOM", session.RoleGuest)
	if err != nil {
		t.Fatalf("guest connect: %v", err)
	}
	if err := guest.Send([]byte("hi")); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case f := <-hostIn:
		if string(f) != "hi" {
			t.Errorf("expected %q, got %q", "hi", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("host did not receive frame")
	}

	guest.Close()
	select {
	case err := <-hostGone:
		if !errors.Is(err, transport.ErrPeerGone) {
			t.Errorf("expected ErrPeerGone, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("host was not told the guest left")
	}

	if err := guest.Send([]byte("late")); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestClientRoomErrors(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Connect(ctx, "MISSING", session.RoleGuest); !errors.Is(err, transport.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}

	host, err := c.Connect(ctx, "TAKEN", session.RoleHost)
	if err != nil {
		t.Fatal(err)
	}
	defer host.Close()
	for srv.Rooms() != 1 {
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := c.Connect(ctx, "TAKEN", session.RoleHost); !errors.Is(err, transport.ErrRoomExists) {
		t.Errorf("expected ErrRoomExists, got %v", err)
	}

	guest, err := c.Connect(ctx, "TAKEN", session.RoleGuest)
	if err != nil {
		t.Fatal(err)
	}
	defer guest.Close()

	if _, err := c.Connect(ctx, "TAKEN", session.RoleGuest); !errors.Is(err, transport.ErrRoomFull) {
		t.Errorf("expected ErrRoomFull, got %v", err)
	}
}
