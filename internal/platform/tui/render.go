package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/duopong/internal/physics"
)

var colorStyles = map[Color]lipgloss.Style{
	ColorDefault: lipgloss.NewStyle(),
	ColorDim:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	ColorBall:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
	ColorLeft:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	ColorRight:   lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	ColorAccent:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	ColorAlert:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
}

// RenderCanvas converts a canvas to a styled string, grouping runs of the
// same color to keep escape sequences short.
func RenderCanvas(c *Canvas) string {
	var sb strings.Builder
	sb.Grow(c.Width()*c.Height()*2 + c.Height())

	for y := range c.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}
		x := 0
		for x < c.Width() {
			start := c.Get(x, y).Color
			var run strings.Builder
			for x < c.Width() {
				cell := c.Get(x, y)
				if cell.Color != start {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}
			style, ok := colorStyles[start]
			if !ok {
				style = colorStyles[ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// Court is what the renderer needs from the model for one frame.
type Court struct {
	Field physics.Field
	Ball  physics.Ball
	Left  physics.Bat
	Right physics.Bat
}

// grid maps field coordinates onto canvas cells. Row 0 and the last row are
// the walls; the court occupies the rows between them.
type grid struct {
	field physics.Field
	cols  int
	rows  int
}

func (g grid) col(x float64) int {
	c := int(math.Floor(x / g.field.W * float64(g.cols)))
	return min(max(c, 0), g.cols-1)
}

func (g grid) row(y float64) int {
	r := int(math.Floor(y / g.field.H * float64(g.rows)))
	return 1 + min(max(r, 0), g.rows-1)
}

// DrawCourt paints walls, net, bats and ball. Canvases too small to hold a
// court are left blank.
func DrawCourt(c *Canvas, court Court) {
	c.Clear()
	if c.Width() < 3 || c.Height() < 3 || court.Field.W <= 0 || court.Field.H <= 0 {
		return
	}
	g := grid{field: court.Field, cols: c.Width(), rows: c.Height() - 2}

	c.DrawHLine(0, 0, c.Width(), '▀', ColorDim)
	c.DrawHLine(0, c.Height()-1, c.Width(), '▄', ColorDim)
	for y := 1; y < c.Height()-1; y += 2 {
		c.Set(c.Width()/2, y, '┊', ColorDim)
	}

	drawBat(c, g, court.Left, ColorLeft)
	drawBat(c, g, court.Right, ColorRight)
	c.Set(g.col(court.Ball.X), g.row(court.Ball.Y), '●', ColorBall)
}

func drawBat(c *Canvas, g grid, bat physics.Bat, color Color) {
	top := g.row(bat.Y - bat.H/2)
	// The bottom edge belongs to the cell above it.
	bottom := g.row(math.Nextafter(bat.Y+bat.H/2, math.Inf(-1)))
	c.DrawVLine(g.col(bat.X), top, bottom-top+1, '█', color)
}
