package config

import "math"

// DifficultyManager calculates dynamic game parameters based on score/time.
type DifficultyManager struct {
	cfg          DifficultyConfig
	initialLevel float64
}

// NewDifficultyManager creates a new difficulty manager.
func NewDifficultyManager(cfg DifficultyConfig) *DifficultyManager {
	return &DifficultyManager{
		cfg:          cfg,
		initialLevel: clampF(cfg.InitialLevel, 0.0, 1.0),
	}
}

// IsEnabled returns whether difficulty progression is active.
func (d *DifficultyManager) IsEnabled() bool {
	return d.cfg.Enabled && d.cfg.Progression.Type != "none"
}

// Level returns the current difficulty level (0.0 to 1.0) from the points
// scored so far and the seconds played.
func (d *DifficultyManager) Level(points int, seconds float64) float64 {
	if !d.IsEnabled() {
		return d.initialLevel
	}

	maxAt := d.cfg.Progression.MaxAt
	if maxAt <= 0 {
		maxAt = 1
	}

	var progress float64
	switch d.cfg.Progression.Type {
	case "score":
		progress = float64(points) / maxAt
	case "time":
		progress = seconds / maxAt
	default:
		return d.initialLevel
	}

	progress = clampF(progress, 0.0, 1.0)
	return d.initialLevel + progress*(1.0-d.initialLevel)
}

// Speed scales baseSpeed from base to base * (1 + speed_multiplier).
func (d *DifficultyManager) Speed(baseSpeed float64, points int, seconds float64) float64 {
	return baseSpeed * (1.0 + d.Level(points, seconds)*d.cfg.Scaling.SpeedMultiplier)
}

// Skill interpolates the CPU tracking accuracy for the current level.
func (d *DifficultyManager) Skill(cpu CPUConfig, points int, seconds float64) float64 {
	level := d.Level(points, seconds)
	return clampF(cpu.MinSkill+level*(cpu.MaxSkill-cpu.MinSkill), 0.0, 1.0)
}

// clampF restricts a float64 to [lo, hi].
func clampF(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}
