package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/duopong/internal/protocol"
	"github.com/vovakirdan/duopong/internal/session"
	"github.com/vovakirdan/duopong/internal/transport"
)

func newTestHub(t *testing.T, cfg Config) *Hub {
	t.Helper()
	h := NewHub(cfg, nil)
	t.Cleanup(h.Stop)
	return h
}

func recv(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	select {
	case frame := <-ch:
		return string(frame)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return ""
	}
}

func TestHubPairsPeers(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	ctx := context.Background()

	host, err := h.Connect(ctx, "ABC123", session.RoleHost)
	if err != nil {
		t.Fatalf("host connect: %v", err)
	}
	guest, err := h.Connect(ctx, "ABC123", session.RoleGuest)
	if err != nil {
		t.Fatalf("guest connect: %v", err)
	}

	hostIn := make(chan []byte, 4)
	guestIn := make(chan []byte, 4)
	host.OnMessage(func(f []byte) { hostIn <- f })
	guest.OnMessage(func(f []byte) { guestIn <- f })

	if err := guest.Send([]byte("hello")); err != nil {
		t.Fatalf("guest send: %v", err)
	}
	if got := recv(t, hostIn); got != "hello" {
		t.Errorf("expected host to receive %q, got %q", "hello", got)
	}

	if err := host.Send([]byte("ball")); err != nil {
		t.Fatalf("host send: %v", err)
	}
	if got := recv(t, guestIn); got != "ball" {
		t.Errorf("expected guest to receive %q, got %q", "ball", got)
	}
}

func TestHubRoomErrors(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	ctx := context.Background()

	if _, err := h.Connect(ctx, "NOPE", session.RoleGuest); !errors.Is(err, transport.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}

	if _, err := h.Connect(ctx, "FULL1", session.RoleHost); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Connect(ctx, "FULL1", session.RoleHost); !errors.Is(err, transport.ErrRoomExists) {
		t.Errorf("expected ErrRoomExists, got %v", err)
	}
	if _, err := h.Connect(ctx, "FULL1", session.RoleGuest); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Connect(ctx, "FULL1", session.RoleGuest); !errors.Is(err, transport.ErrRoomFull) {
		t.Errorf("expected ErrRoomFull, got %v", err)
	}
}

func TestHubCanceledContext(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Connect(ctx, "CTX1", session.RoleHost); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if h.Rooms() != 0 {
		t.Errorf("expected no rooms, got %d", h.Rooms())
	}
}

func TestHubCloseNotifiesPartner(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	ctx := context.Background()

	host, _ := h.Connect(ctx, "BYE1", session.RoleHost)
	guest, _ := h.Connect(ctx, "BYE1", session.RoleGuest)

	hostGone := make(chan error, 1)
	guestGone := make(chan error, 1)
	host.OnDisconnect(func(err error) { hostGone <- err })
	guest.OnDisconnect(func(err error) { guestGone <- err })

	if err := guest.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case err := <-hostGone:
		if !errors.Is(err, transport.ErrPeerGone) {
			t.Errorf("expected ErrPeerGone, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("host was not notified")
	}

	select {
	case err := <-guestGone:
		t.Errorf("expected no disconnect for local close, got %v", err)
	default:
	}

	if err := guest.Send([]byte("late")); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
	if h.Rooms() != 0 {
		t.Errorf("expected room removed, got %d rooms", h.Rooms())
	}
	if _, err := h.Connect(ctx, "BYE1", session.RoleHost); !errors.Is(err, transport.ErrRoomExists) {
		t.Errorf("expected closed room code to stay reserved, got %v", err)
	}
}

func TestHubExpiresEmptyRooms(t *testing.T) {
	h := newTestHub(t, Config{RoomTimeout: time.Millisecond, CleanupPeriod: time.Hour})
	host, _ := h.Connect(context.Background(), "OLD1", session.RoleHost)

	gone := make(chan error, 1)
	host.OnDisconnect(func(err error) { gone <- err })

	time.Sleep(5 * time.Millisecond)
	h.cleanupExpired()

	select {
	case err := <-gone:
		if !errors.Is(err, transport.ErrRoomExpired) {
			t.Errorf("expected ErrRoomExpired, got %v", err)
		}
	default:
		t.Fatal("expected host to be disconnected")
	}
	if h.Rooms() != 0 {
		t.Errorf("expected no rooms, got %d", h.Rooms())
	}
}

func TestHubSendBeforeJoin(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	host, _ := h.Connect(context.Background(), "EARLY", session.RoleHost)

	if err := host.Send([]byte("nobody")); err != nil {
		t.Errorf("expected send without peer to succeed, got %v", err)
	}
}

func TestHubKeepsHandshakeFramesWhenFull(t *testing.T) {
	h := newTestHub(t, Config{BufferSize: 2})
	ctx := context.Background()

	host, _ := h.Connect(ctx, "FULL1", session.RoleHost)
	guest, _ := h.Connect(ctx, "FULL1", session.RoleGuest)

	entered := make(chan struct{})
	gate := make(chan struct{})
	got := make(chan protocol.Message, 16)
	var once sync.Once
	host.OnMessage(func(f []byte) {
		// Hold the first frame so the rest pile up in the inbox
		once.Do(func() {
			close(entered)
			<-gate
		})
		msg, err := protocol.Decode(f)
		if err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		got <- msg
	})

	send := func(m protocol.Message) {
		t.Helper()
		frame, err := protocol.Encode(m)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if err := guest.Send(frame); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	send(protocol.BallState{Tick: 0})
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first frame")
	}

	send(protocol.Ready{})
	for tick := uint64(1); tick <= 5; tick++ {
		send(protocol.BallState{Tick: tick})
	}
	close(gate)

	want := []protocol.Message{
		protocol.BallState{Tick: 0},
		protocol.Ready{},
		protocol.BallState{Tick: 5},
	}
	for i, w := range want {
		select {
		case m := <-got:
			if m != w {
				t.Errorf("frame %d: expected %+v, got %+v", i, w, m)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for frame %d (%+v)", i, w)
		}
	}
	select {
	case m := <-got:
		t.Errorf("expected superseded states to be dropped, got %+v", m)
	case <-time.After(20 * time.Millisecond):
	}
}
