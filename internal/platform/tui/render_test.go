package tui

import (
	"strings"
	"testing"

	"github.com/vovakirdan/duopong/internal/physics"
)

func testCourt() Court {
	f := physics.Field{W: 100, H: 60}
	return Court{
		Field: f,
		Ball:  physics.Ball{X: 50, Y: 30, R: 1},
		Left:  physics.NewBat(physics.Left, f, 2, 12, 3),
		Right: physics.NewBat(physics.Right, f, 2, 12, 3),
	}
}

func findRune(c *Canvas, r rune) (int, int, bool) {
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			if c.Get(x, y).Rune == r {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

func TestDrawCourtMapsField(t *testing.T) {
	// 100x60 field onto 100 columns and 60 court rows plus two walls
	c := NewCanvas(100, 62)
	court := testCourt()
	court.Ball.X, court.Ball.Y = 10.5, 20.2
	DrawCourt(c, court)

	x, y, ok := findRune(c, '●')
	if !ok {
		t.Fatal("expected a ball on the canvas")
	}
	if x != 10 || y != 21 {
		t.Errorf("expected ball at (10, 21), got (%d, %d)", x, y)
	}

	if c.Get(0, 0).Rune != '▀' || c.Get(99, 61).Rune != '▄' {
		t.Error("expected walls on the first and last rows")
	}
}

func TestDrawCourtBats(t *testing.T) {
	c := NewCanvas(100, 62)
	court := testCourt()
	DrawCourt(c, court)

	// Left bat: x = 4, y spans 24..36 field units, rows 25..36
	count := 0
	for y := 0; y < c.Height(); y++ {
		if c.Get(4, y).Rune == '█' {
			count++
			if y < 25 || y > 36 {
				t.Errorf("left bat cell outside its span at row %d", y)
			}
		}
	}
	if count != 12 {
		t.Errorf("expected 12 left bat cells, got %d", count)
	}

	found := false
	for y := 0; y < c.Height(); y++ {
		if c.Get(96, y).Rune == '█' && c.Get(96, y).Color == ColorRight {
			found = true
		}
	}
	if !found {
		t.Error("expected the right bat in column 96")
	}
}

func TestDrawCourtClampsToCanvas(t *testing.T) {
	c := NewCanvas(20, 8)
	court := testCourt()
	court.Ball.X, court.Ball.Y = -5, 500
	DrawCourt(c, court)

	x, y, ok := findRune(c, '●')
	if !ok {
		t.Fatal("expected the ball to stay on the canvas")
	}
	if x != 0 || y != c.Height()-2 {
		t.Errorf("expected ball clamped to (0, %d), got (%d, %d)", c.Height()-2, x, y)
	}
}

func TestDrawCourtTooSmall(t *testing.T) {
	c := NewCanvas(2, 2)
	DrawCourt(c, testCourt())
	if strings.TrimSpace(c.String()) != "" {
		t.Errorf("expected a blank canvas, got %q", c.String())
	}
}

func TestRenderCanvasKeepsRunes(t *testing.T) {
	c := NewCanvas(40, 12)
	DrawCourt(c, testCourt())

	out := RenderCanvas(c)
	if !strings.Contains(out, "●") || !strings.Contains(out, "█") {
		t.Error("expected ball and bats in rendered output")
	}
	if got := strings.Count(out, "\n"); got != c.Height()-1 {
		t.Errorf("expected %d line breaks, got %d", c.Height()-1, got)
	}
}
