package physics

import "math"

// MillisPerSecond converts caller-supplied frame deltas (milliseconds) into
// the engine's internal unit (seconds). Velocities and bat speeds are
// expressed in field units per second.
const MillisPerSecond = 1000.0

// Seconds converts a frame delta in milliseconds to seconds.
// Negative and NaN deltas are treated as zero elapsed time.
func Seconds(dtMillis float64) float64 {
	if dtMillis <= 0 || math.IsNaN(dtMillis) {
		return 0
	}
	return dtMillis / MillisPerSecond
}

// Side identifies one half of the court.
type Side int

const (
	NoSide Side = iota
	Left
	Right
)

// String returns a human-readable name for the side.
func (s Side) String() string {
	switch s {
	case NoSide:
		return "none"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Opposite returns the other side of the court.
func (s Side) Opposite() Side {
	switch s {
	case Left:
		return Right
	case Right:
		return Left
	default:
		return NoSide
	}
}

// Field is the abstract court. Its size never depends on the display.
type Field struct {
	W float64
	H float64
}

// Center returns the center point of the field.
func (f Field) Center() (float64, float64) {
	return f.W / 2, f.H / 2
}

// Ball is the moving ball. Velocity is in field units per second.
type Ball struct {
	X, Y   float64
	VX, VY float64
	R      float64
}

// Bounds returns the ball's bounding box.
func (b Ball) Bounds() Rect {
	return CenteredRect(b.X, b.Y, 2*b.R, 2*b.R)
}

// Speed returns the magnitude of the ball's velocity.
func (b Ball) Speed() float64 {
	return math.Hypot(b.VX, b.VY)
}

// Intent is the movement direction requested for a bat.
// Y grows downward, so up is negative.
type Intent int

const (
	IntentUp   Intent = -1
	IntentNone Intent = 0
	IntentDown Intent = 1
)

// IntentFrom derives an intent from held directions. Holding both cancels out.
func IntentFrom(up, down bool) Intent {
	switch {
	case up && !down:
		return IntentUp
	case down && !up:
		return IntentDown
	default:
		return IntentNone
	}
}

// Bat is a paddle. X is fixed per side, Y is the vertical center.
type Bat struct {
	Side Side
	X, Y float64
	W, H float64
}

// NewBat places a bat of size w x h at the given side, offset from the edge
// and vertically centered.
func NewBat(side Side, f Field, w, h, offset float64) Bat {
	x := offset + w/2
	if side == Right {
		x = f.W - offset - w/2
	}
	return Bat{Side: side, X: x, Y: f.H / 2, W: w, H: h}
}

// Bounds returns the bat's rectangle.
func (b Bat) Bounds() Rect {
	return CenteredRect(b.X, b.Y, b.W, b.H)
}

// Score is the ordered (left, right) point tally.
type Score struct {
	Left  int
	Right int
}

// Add credits one point to the given side.
func (s *Score) Add(side Side) {
	switch side {
	case Left:
		s.Left++
	case Right:
		s.Right++
	}
}

// Of returns the points of one side.
func (s Score) Of(side Side) int {
	switch side {
	case Left:
		return s.Left
	case Right:
		return s.Right
	default:
		return 0
	}
}

// Bounce tunes the bat reflection.
type Bounce struct {
	SpeedUp  float64 // Multiplier applied to |VX| on every bat hit
	MaxSpeed float64 // Cap for |VX| and |VY|, 0 disables the cap
	Spin     float64 // VY change per unit of off-center impact, relative to |VX|
}

// Serve describes how the ball is put back in play.
type Serve struct {
	Speed    float64 // Magnitude of the serve velocity
	MaxAngle float64 // Widest serve angle in radians
	Tilt     float64 // Fraction of MaxAngle in [-1, 1]
}

// AdvanceBall integrates the ball position linearly over dt milliseconds.
func AdvanceBall(b *Ball, dtMillis float64) {
	sec := Seconds(dtMillis)
	b.X += b.VX * sec
	b.Y += b.VY * sec
}

// AdvanceBat moves the bat by speed*dt in the intent direction and keeps it
// fully inside the field.
func AdvanceBat(bat *Bat, in Intent, dtMillis, speed float64, f Field) {
	bat.Y += float64(in) * speed * Seconds(dtMillis)
	ClampBat(bat, f)
}

// ClampBat keeps the bat's top edge at or below y=0 and its bottom edge at
// or above y=H, so the whole bat stays on the field.
func ClampBat(bat *Bat, f Field) {
	half := bat.H / 2
	if bat.H >= f.H {
		bat.Y = f.H / 2
		return
	}
	bat.Y = Clamp(bat.Y, half, f.H-half)
}

// DetectCollision reflects the ball off a bat when their boxes overlap and
// the ball travels toward the bat. The ball is moved just outside the bat
// face, so running it again on the result never triggers a second bounce.
func DetectCollision(b *Ball, bat Bat, p Bounce) bool {
	box := bat.Bounds()
	if !b.Bounds().Intersects(box) {
		return false
	}

	switch bat.Side {
	case Left:
		if b.VX >= 0 {
			return false
		}
	case Right:
		if b.VX <= 0 {
			return false
		}
	default:
		return false
	}

	speedUp := p.SpeedUp
	if speedUp <= 0 {
		speedUp = 1
	}
	b.VX = -b.VX * speedUp
	b.VX = capMagnitude(b.VX, p.MaxSpeed)

	// Off-center hits add vertical speed
	hit := Clamp((b.Y-box.Y)/box.H, 0, 1)
	b.VY += (hit - 0.5) * p.Spin * math.Abs(b.VX)
	b.VY = capMagnitude(b.VY, p.MaxSpeed)

	if bat.Side == Left {
		b.X = box.Right() + b.R
	} else {
		b.X = box.X - b.R
	}
	return true
}

// DetectWallCollision reflects VY off the top and bottom boundaries.
func DetectWallCollision(b *Ball, f Field) bool {
	if b.Y-b.R < 0 {
		b.Y = b.R
		b.VY = math.Abs(b.VY)
		return true
	}
	if b.Y+b.R > f.H {
		b.Y = f.H - b.R
		b.VY = -math.Abs(b.VY)
		return true
	}
	return false
}

// DetectPoint checks whether the ball left the field horizontally. Leaving on
// the left scores for the right side and vice versa. On a point the scorer's
// tally grows by one and the ball is re-served from the center toward the
// side that conceded.
func DetectPoint(b *Ball, f Field, s *Score, serve Serve) Side {
	var scorer Side
	switch {
	case b.X < 0:
		scorer = Right
	case b.X > f.W:
		scorer = Left
	default:
		return NoSide
	}

	s.Add(scorer)
	ServeBall(b, f, scorer.Opposite(), serve)
	return scorer
}

// ServeBall resets the ball to the field center moving toward the given side.
func ServeBall(b *Ball, f Field, toward Side, serve Serve) {
	b.X, b.Y = f.Center()

	angle := Clamp(serve.Tilt, -1, 1) * serve.MaxAngle
	dir := 1.0
	if toward == Left {
		dir = -1.0
	}
	b.VX = dir * serve.Speed * math.Cos(angle)
	b.VY = serve.Speed * math.Sin(angle)
}

func capMagnitude(v, limit float64) float64 {
	if limit > 0 && math.Abs(v) > limit {
		return math.Copysign(limit, v)
	}
	return v
}
