package tui

import (
	"slices"
	"time"
)

// Terminals report key presses and auto-repeats but never releases. A key
// counts as held until no repeat arrived within the window: the first window
// covers the auto-repeat delay, later ones the repeat interval.
const (
	DefaultHoldFirst  = 500 * time.Millisecond
	DefaultHoldRepeat = 150 * time.Millisecond
)

type holdTracker struct {
	first  time.Duration
	repeat time.Duration
	until  map[string]time.Time
}

func newHoldTracker(first, repeat time.Duration) *holdTracker {
	if first <= 0 {
		first = DefaultHoldFirst
	}
	if repeat <= 0 {
		repeat = DefaultHoldRepeat
	}
	return &holdTracker{first: first, repeat: repeat, until: make(map[string]time.Time)}
}

// press records a press at now and reports whether the key was not held.
func (h *holdTracker) press(code string, now time.Time) bool {
	if _, held := h.until[code]; held {
		h.until[code] = now.Add(h.repeat)
		return false
	}
	h.until[code] = now.Add(h.first)
	return true
}

// expire releases and returns keys whose window ended at or before now.
func (h *holdTracker) expire(now time.Time) []string {
	var released []string
	for code, t := range h.until {
		if !now.Before(t) {
			released = append(released, code)
		}
	}
	for _, code := range released {
		delete(h.until, code)
	}
	slices.Sort(released)
	return released
}

// releaseAll releases every held key.
func (h *holdTracker) releaseAll() []string {
	released := make([]string, 0, len(h.until))
	for code := range h.until {
		released = append(released, code)
	}
	clear(h.until)
	slices.Sort(released)
	return released
}
