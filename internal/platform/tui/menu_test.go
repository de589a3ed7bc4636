package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/duopong/internal/config"
	"github.com/vovakirdan/duopong/internal/model"
)

func menuStep(t *testing.T, m MenuModel, msgs ...tea.Msg) MenuModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		if m, ok = next.(MenuModel); !ok {
			t.Fatalf("expected MenuModel, got %T", next)
		}
	}
	return m
}

func newTestMenu(online bool) MenuModel {
	return NewMenuModel(config.DefaultGameConfig().Keys, online, 80, 24)
}

func TestMenuOfflineChoices(t *testing.T) {
	m := newTestMenu(false)
	if len(m.items) != 2 {
		t.Fatalf("expected 2 offline entries, got %d", len(m.items))
	}

	m = menuStep(t, m, keyDown, keyDown, keyDown, keyEnter)
	got := m.Selected()
	if got == nil || got.Mode != model.ModeTwoplayer {
		t.Errorf("expected two-player choice, got %+v", got)
	}
}

func TestMenuHost(t *testing.T) {
	m := menuStep(t, newTestMenu(true), keyDown, keyDown, keyEnter)
	got := m.Selected()
	if got == nil || got.Mode != model.ModeOnline || got.Room != "" {
		t.Errorf("expected online host choice, got %+v", got)
	}
}

func TestMenuJoin(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "code", input: "ab12cd", want: "AB12CD"},
		{name: "link", input: "https://pong.example/#zz99", want: "ZZ99"},
		{name: "empty", input: "", wantErr: "enter a room code"},
		{name: "bad characters", input: "ab-12", wantErr: "letters and digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := menuStep(t, newTestMenu(true), keyDown, keyDown, keyDown, keyEnter)
			if !m.editing {
				t.Fatal("expected join to open code entry")
			}
			if tt.input != "" {
				m = menuStep(t, m, runes(tt.input))
			}
			m = menuStep(t, m, keyEnter)

			if tt.wantErr != "" {
				if m.Selected() != nil {
					t.Errorf("expected no choice, got %+v", m.Selected())
				}
				if !strings.Contains(m.err, tt.wantErr) {
					t.Errorf("expected error containing %q, got %q", tt.wantErr, m.err)
				}
				return
			}
			got := m.Selected()
			if got == nil || got.Mode != model.ModeOnline || got.Room != tt.want {
				t.Errorf("expected join %q, got %+v", tt.want, got)
			}
		})
	}
}

func TestMenuCodeEntryKeys(t *testing.T) {
	m := menuStep(t, newTestMenu(true), keyDown, keyDown, keyDown, keyEnter)

	// q is text while editing
	m = menuStep(t, m, runes("q"))
	if m.IsQuitting() {
		t.Error("expected q to be typed, not quit")
	}
	if m.code.Value() != "q" {
		t.Errorf("expected typed code %q, got %q", "q", m.code.Value())
	}

	m = menuStep(t, m, keyEsc)
	if m.editing {
		t.Error("expected esc to leave code entry")
	}
	if m.IsQuitting() {
		t.Error("expected esc in code entry not to quit")
	}

	m = menuStep(t, m, runes("q"))
	if !m.IsQuitting() {
		t.Error("expected q to quit from the list")
	}
}

func TestMenuSetError(t *testing.T) {
	m := newTestMenu(true)
	m.SetError(model.ErrNoTransport)
	if !strings.Contains(m.View(), "could not start") {
		t.Error("expected start error in view")
	}
}
