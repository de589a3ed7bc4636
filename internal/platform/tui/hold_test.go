package tui

import (
	"slices"
	"testing"
	"time"
)

func TestHoldTracker(t *testing.T) {
	start := time.Unix(0, 0)
	h := newHoldTracker(500*time.Millisecond, 150*time.Millisecond)

	if !h.press("w", start) {
		t.Fatal("expected first press to be new")
	}
	if h.press("w", start.Add(100*time.Millisecond)) {
		t.Error("expected repeat to extend the hold")
	}
	// Repeat at 100ms moved the deadline to 250ms.
	if got := h.expire(start.Add(200 * time.Millisecond)); len(got) != 0 {
		t.Errorf("expected key still held, released %v", got)
	}
	if got := h.expire(start.Add(250 * time.Millisecond)); !slices.Equal(got, []string{"w"}) {
		t.Errorf("expected w released, got %v", got)
	}
	if !h.press("w", start.Add(300*time.Millisecond)) {
		t.Error("expected press after release to be new")
	}
}

func TestHoldTrackerFirstWindow(t *testing.T) {
	start := time.Unix(0, 0)
	h := newHoldTracker(0, 0)

	h.press("s", start)
	if got := h.expire(start.Add(DefaultHoldFirst - time.Millisecond)); len(got) != 0 {
		t.Errorf("expected key held through the first window, released %v", got)
	}
	if got := h.expire(start.Add(DefaultHoldFirst)); len(got) != 1 {
		t.Errorf("expected key released at the end of the first window, got %v", got)
	}
}

func TestHoldTrackerReleaseAll(t *testing.T) {
	h := newHoldTracker(time.Second, time.Second)
	now := time.Unix(0, 0)
	h.press("up", now)
	h.press("s", now)
	h.press("down", now)

	if got := h.releaseAll(); !slices.Equal(got, []string{"down", "s", "up"}) {
		t.Errorf("expected sorted release of all keys, got %v", got)
	}
	if got := h.releaseAll(); len(got) != 0 {
		t.Errorf("expected nothing left, got %v", got)
	}
}
