package model

import (
	"math"

	"github.com/vovakirdan/duopong/internal/config"
	"github.com/vovakirdan/duopong/internal/physics"
)

// cpu drives a bat in singleplayer. It follows the ball only while the ball
// comes toward it, at a speed scaled by its skill.
type cpu struct {
	cfg        config.CPUConfig
	difficulty *config.DifficultyManager
}

func newCPU(cfg config.GameConfig) *cpu {
	return &cpu{
		cfg:        cfg.CPU,
		difficulty: config.NewDifficultyManager(cfg.Difficulty),
	}
}

func (c *cpu) drive(bat *physics.Bat, ball physics.Ball, f physics.Field, baseSpeed, dt float64, points int, seconds float64) {
	approaching := (bat.Side == physics.Right && ball.VX > 0) || (bat.Side == physics.Left && ball.VX < 0)
	if !approaching {
		return
	}

	diff := ball.Y - bat.Y
	if math.Abs(diff) <= c.cfg.DeadZone*bat.H/2 {
		return
	}

	speed := c.difficulty.Speed(baseSpeed, points, seconds) * c.difficulty.Skill(c.cfg, points, seconds)
	step := speed * physics.Seconds(dt)
	if step >= math.Abs(diff) {
		bat.Y = ball.Y
		physics.ClampBat(bat, f)
		return
	}

	in := physics.IntentDown
	if diff < 0 {
		in = physics.IntentUp
	}
	physics.AdvanceBat(bat, in, dt, speed, f)
}
