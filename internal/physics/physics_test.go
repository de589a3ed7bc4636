package physics

import (
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func testField() Field {
	return Field{W: 100, H: 60}
}

func TestSecondsConversion(t *testing.T) {
	tests := []struct {
		name     string
		dt       float64
		expected float64
	}{
		{"one second", 1000, 1},
		{"one frame at 60fps", 1000.0 / 60.0, 1.0 / 60.0},
		{"zero", 0, 0},
		{"negative", -16, 0},
		{"nan", math.NaN(), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Seconds(tc.dt); !almostEqual(got, tc.expected) {
				t.Errorf("Seconds(%v) = %v, expected %v", tc.dt, got, tc.expected)
			}
		})
	}
}

func TestAdvanceBallIsLinear(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		start := Ball{
			X:  rng.Float64() * 100,
			Y:  rng.Float64() * 60,
			VX: (rng.Float64() - 0.5) * 200,
			VY: (rng.Float64() - 0.5) * 200,
			R:  1,
		}
		dt1 := rng.Float64() * 50
		dt2 := rng.Float64() * 50

		split := start
		AdvanceBall(&split, dt1)
		AdvanceBall(&split, dt2)

		whole := start
		AdvanceBall(&whole, dt1+dt2)

		if math.Abs(split.X-whole.X) > 1e-6 || math.Abs(split.Y-whole.Y) > 1e-6 {
			t.Fatalf("advance not linear: split=(%f,%f) whole=(%f,%f)", split.X, split.Y, whole.X, whole.Y)
		}
		if split.VX != start.VX || split.VY != start.VY {
			t.Fatalf("advance changed velocity: %+v -> %+v", start, split)
		}
	}
}

func TestAdvanceBallUsesMilliseconds(t *testing.T) {
	b := Ball{X: 10, Y: 10, VX: 5, VY: -2, R: 1}
	AdvanceBall(&b, 1000)

	if !almostEqual(b.X, 15) || !almostEqual(b.Y, 8) {
		t.Errorf("after 1000ms ball at (%f, %f), expected (15, 8)", b.X, b.Y)
	}
}

func TestAdvanceBatAlwaysClamped(t *testing.T) {
	f := testField()
	rng := rand.New(rand.NewSource(99))
	intents := []Intent{IntentUp, IntentNone, IntentDown}

	bat := NewBat(Left, f, 2, 12, 4)
	for i := 0; i < 5000; i++ {
		in := intents[rng.Intn(len(intents))]
		dt := rng.Float64() * 500
		AdvanceBat(&bat, in, dt, 70, f)

		if bat.Y-bat.H/2 < 0 {
			t.Fatalf("bat top above field: y=%f h=%f", bat.Y, bat.H)
		}
		if bat.Y+bat.H/2 > f.H {
			t.Fatalf("bat bottom below field: y=%f h=%f", bat.Y, bat.H)
		}
	}
}

func TestAdvanceBatMovesBySpeed(t *testing.T) {
	f := testField()
	bat := NewBat(Right, f, 2, 12, 4)
	startY := bat.Y

	AdvanceBat(&bat, IntentUp, 100, 70, f)
	if !almostEqual(bat.Y, startY-7) {
		t.Errorf("bat moved to %f, expected %f", bat.Y, startY-7)
	}

	AdvanceBat(&bat, IntentNone, 100, 70, f)
	if !almostEqual(bat.Y, startY-7) {
		t.Errorf("IntentNone should not move bat, got %f", bat.Y)
	}
}

func TestIntentFrom(t *testing.T) {
	tests := []struct {
		up, down bool
		expected Intent
	}{
		{false, false, IntentNone},
		{true, false, IntentUp},
		{false, true, IntentDown},
		{true, true, IntentNone},
	}

	for _, tc := range tests {
		if got := IntentFrom(tc.up, tc.down); got != tc.expected {
			t.Errorf("IntentFrom(%v, %v) = %d, expected %d", tc.up, tc.down, got, tc.expected)
		}
	}
}

func TestNewBatPlacement(t *testing.T) {
	f := testField()
	left := NewBat(Left, f, 2, 12, 4)
	right := NewBat(Right, f, 2, 12, 4)

	if left.X != 5 {
		t.Errorf("left bat X = %f, expected 5", left.X)
	}
	if right.X != 95 {
		t.Errorf("right bat X = %f, expected 95", right.X)
	}
	if left.Y != 30 || right.Y != 30 {
		t.Errorf("bats should start centered, got %f and %f", left.Y, right.Y)
	}
}

func TestDetectCollisionReflects(t *testing.T) {
	f := testField()
	bounce := Bounce{SpeedUp: 1.1, MaxSpeed: 1000}

	tests := []struct {
		name  string
		bat   Bat
		ball  Ball
		wantX float64
	}{
		{
			name:  "left bat",
			bat:   NewBat(Left, f, 2, 12, 4),
			ball:  Ball{X: 6.5, Y: 30, VX: -40, VY: 0, R: 1},
			wantX: 7,
		},
		{
			name:  "right bat",
			bat:   NewBat(Right, f, 2, 12, 4),
			ball:  Ball{X: 93.5, Y: 30, VX: 40, VY: 0, R: 1},
			wantX: 93,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.ball
			if !DetectCollision(&b, tc.bat, bounce) {
				t.Fatal("expected collision")
			}
			if math.Signbit(b.VX) == math.Signbit(tc.ball.VX) {
				t.Errorf("VX not reflected: %f -> %f", tc.ball.VX, b.VX)
			}
			if !almostEqual(math.Abs(b.VX), 44) {
				t.Errorf("|VX| = %f, expected 44 after speed-up", math.Abs(b.VX))
			}
			if !almostEqual(b.X, tc.wantX) {
				t.Errorf("ball X = %f, expected %f (just outside bat)", b.X, tc.wantX)
			}
		})
	}
}

func TestDetectCollisionDoesNotDoubleBounce(t *testing.T) {
	f := testField()
	bat := NewBat(Left, f, 2, 12, 4)
	b := Ball{X: 6, Y: 33, VX: -40, VY: 5, R: 1}

	if !DetectCollision(&b, bat, Bounce{SpeedUp: 1.05, MaxSpeed: 200, Spin: 0.5}) {
		t.Fatal("expected first collision")
	}
	after := b

	if DetectCollision(&b, bat, Bounce{SpeedUp: 1.05, MaxSpeed: 200, Spin: 0.5}) {
		t.Error("second call on unchanged state must not collide again")
	}
	if b != after {
		t.Errorf("second call mutated the ball: %+v -> %+v", after, b)
	}
}

func TestDetectCollisionIgnoresBallMovingAway(t *testing.T) {
	f := testField()
	bat := NewBat(Left, f, 2, 12, 4)
	b := Ball{X: 5.5, Y: 30, VX: 40, R: 1}

	if DetectCollision(&b, bat, Bounce{SpeedUp: 1}) {
		t.Error("ball moving away from the bat should not bounce")
	}
}

func TestDetectCollisionMiss(t *testing.T) {
	f := testField()
	bat := NewBat(Left, f, 2, 12, 4)
	b := Ball{X: 6, Y: 50, VX: -40, R: 1}

	if DetectCollision(&b, bat, Bounce{SpeedUp: 1}) {
		t.Error("ball far below the bat should not collide")
	}
}

func TestDetectCollisionSpinAndCap(t *testing.T) {
	f := testField()
	bat := NewBat(Right, f, 2, 12, 4)
	// Impact near the bottom edge of the bat.
	b := Ball{X: 93.5, Y: 35.5, VX: 90, VY: 0, R: 1}

	DetectCollision(&b, bat, Bounce{SpeedUp: 2, MaxSpeed: 100, Spin: 0.5})

	if b.VX != -100 {
		t.Errorf("VX = %f, expected capped -100", b.VX)
	}
	if b.VY <= 0 {
		t.Errorf("low hit should push the ball down, VY = %f", b.VY)
	}
	if b.VY > 100 {
		t.Errorf("VY = %f exceeds cap", b.VY)
	}
}

func TestDetectWallCollision(t *testing.T) {
	f := testField()

	top := Ball{X: 50, Y: 0.5, VX: 10, VY: -20, R: 1}
	if !DetectWallCollision(&top, f) {
		t.Fatal("expected top wall bounce")
	}
	if top.VY != 20 || top.Y != 1 {
		t.Errorf("top bounce gave y=%f vy=%f", top.Y, top.VY)
	}

	bottom := Ball{X: 50, Y: 59.8, VX: 10, VY: 20, R: 1}
	if !DetectWallCollision(&bottom, f) {
		t.Fatal("expected bottom wall bounce")
	}
	if bottom.VY != -20 || bottom.Y != 59 {
		t.Errorf("bottom bounce gave y=%f vy=%f", bottom.Y, bottom.VY)
	}

	mid := Ball{X: 50, Y: 30, VY: 20, R: 1}
	if DetectWallCollision(&mid, f) {
		t.Error("ball in the middle should not bounce")
	}
}

func TestScenarioPointForLeft(t *testing.T) {
	// A ball moving +x leaves past the right bound: the left side scores.
	f := Field{W: 8, H: 6}
	cx, cy := f.Center()
	b := Ball{X: cx, Y: cy, VX: 5, VY: 0, R: 0.5}
	var score Score

	AdvanceBall(&b, 1000)
	if b.X <= f.W {
		t.Fatalf("ball should be past the right bound, x=%f", b.X)
	}

	scorer := DetectPoint(&b, f, &score, Serve{Speed: 5})
	if scorer != Left {
		t.Errorf("scorer = %v, expected left", scorer)
	}
	if score != (Score{Left: 1, Right: 0}) {
		t.Errorf("score = %+v, expected {1 0}", score)
	}
	if b.X != cx || b.Y != cy {
		t.Errorf("ball at (%f, %f), expected center (%f, %f)", b.X, b.Y, cx, cy)
	}
	if b.VX <= 0 {
		t.Errorf("serve should head toward the right side that conceded, VX = %f", b.VX)
	}
}

func TestDetectPointIsExclusiveAndMonotonic(t *testing.T) {
	f := testField()
	rng := rand.New(rand.NewSource(3))
	var score Score

	for i := 0; i < 500; i++ {
		b := Ball{X: rng.Float64()*140 - 20, Y: 30, VX: 1, R: 1}
		before := score

		scorer := DetectPoint(&b, f, &score, Serve{Speed: 40, MaxAngle: 0.5, Tilt: rng.Float64()*2 - 1})

		gained := (score.Left - before.Left) + (score.Right - before.Right)
		switch scorer {
		case NoSide:
			if gained != 0 {
				t.Fatalf("no point but score changed %+v -> %+v", before, score)
			}
		default:
			if gained != 1 || score.Of(scorer) != before.Of(scorer)+1 {
				t.Fatalf("point for %v changed score %+v -> %+v", scorer, before, score)
			}
			if cx, cy := f.Center(); b.X != cx || b.Y != cy {
				t.Fatalf("ball not reset to center after point: (%f, %f)", b.X, b.Y)
			}
		}
		if score.Left < before.Left || score.Right < before.Right {
			t.Fatalf("score decreased %+v -> %+v", before, score)
		}
	}
}

func TestServeBallSpeedAndDirection(t *testing.T) {
	f := testField()
	serve := Serve{Speed: 45, MaxAngle: math.Pi / 6, Tilt: 1}

	var b Ball
	ServeBall(&b, f, Left, serve)

	if b.VX >= 0 {
		t.Errorf("serve toward left should have negative VX, got %f", b.VX)
	}
	if !almostEqual(b.Speed(), 45) {
		t.Errorf("serve speed = %f, expected 45", b.Speed())
	}
	if !almostEqual(b.VY, 45*math.Sin(math.Pi/6)) {
		t.Errorf("serve VY = %f, expected full tilt", b.VY)
	}
}

func TestScoreAddIgnoresNoSide(t *testing.T) {
	var s Score
	s.Add(NoSide)
	if s != (Score{}) {
		t.Errorf("adding NoSide changed score: %+v", s)
	}
}
