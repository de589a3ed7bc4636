package tui

import "strings"

// Color is a foreground color for a canvas cell.
type Color uint8

const (
	ColorDefault Color = iota
	ColorDim
	ColorBall
	ColorLeft
	ColorRight
	ColorAccent
	ColorAlert
)

// Cell is one character of the canvas.
type Cell struct {
	Rune  rune
	Color Color
}

// Canvas is a fixed-size character buffer the court is painted into before
// it is turned into a styled string.
type Canvas struct {
	width  int
	height int
	cells  [][]Cell
}

// NewCanvas creates a blank canvas. Negative sizes are treated as zero.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{width: max(0, width), height: max(0, height)}
	c.allocate()
	c.Clear()
	return c
}

func (c *Canvas) allocate() {
	c.cells = make([][]Cell, c.height)
	for y := range c.cells {
		c.cells[y] = make([]Cell, c.width)
	}
}

// Width returns the canvas width in cells.
func (c *Canvas) Width() int {
	return c.width
}

// Height returns the canvas height in cells.
func (c *Canvas) Height() int {
	return c.height
}

// Resize changes the canvas size and clears it.
func (c *Canvas) Resize(width, height int) {
	width, height = max(0, width), max(0, height)
	if width == c.width && height == c.height {
		c.Clear()
		return
	}
	c.width, c.height = width, height
	c.allocate()
	c.Clear()
}

// Clear fills the canvas with blanks.
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = Cell{Rune: ' '}
		}
	}
}

// Set places a rune at (x, y). Out-of-bounds coordinates are ignored.
func (c *Canvas) Set(x, y int, r rune, color Color) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.cells[y][x] = Cell{Rune: r, Color: color}
}

// Get returns the cell at (x, y), a blank outside the canvas.
func (c *Canvas) Get(x, y int) Cell {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return Cell{Rune: ' '}
	}
	return c.cells[y][x]
}

// DrawText writes text starting at (x, y), clipped to the canvas.
func (c *Canvas) DrawText(x, y int, text string, color Color) {
	i := 0
	for _, r := range text {
		c.Set(x+i, y, r, color)
		i++
	}
}

// DrawTextCentered writes text centered on row y.
func (c *Canvas) DrawTextCentered(y int, text string, color Color) {
	n := len([]rune(text))
	c.DrawText((c.width-n)/2, y, text, color)
}

// DrawHLine draws a horizontal run of r.
func (c *Canvas) DrawHLine(x, y, length int, r rune, color Color) {
	for i := 0; i < length; i++ {
		c.Set(x+i, y, r, color)
	}
}

// DrawVLine draws a vertical run of r.
func (c *Canvas) DrawVLine(x, y, length int, r rune, color Color) {
	for i := 0; i < length; i++ {
		c.Set(x, y+i, r, color)
	}
}

// String returns the canvas without styling, rows joined by newlines.
func (c *Canvas) String() string {
	var sb strings.Builder
	sb.Grow(c.width*c.height + c.height)
	for y := 0; y < c.height; y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}
		for x := 0; x < c.width; x++ {
			sb.WriteRune(c.cells[y][x].Rune)
		}
	}
	return sb.String()
}

// Row returns row y without styling.
func (c *Canvas) Row(y int) string {
	if y < 0 || y >= c.height {
		return strings.Repeat(" ", c.width)
	}
	var sb strings.Builder
	for _, cell := range c.cells[y] {
		sb.WriteRune(cell.Rune)
	}
	return sb.String()
}
