// Package config provides YAML-based game configuration loading and
// difficulty management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned by Validate for unusable configurations.
var ErrInvalid = errors.New("config: invalid configuration")

// GameConfig contains all configuration for a game of pong.
type GameConfig struct {
	Field      FieldConfig      `yaml:"field"`
	Ball       BallConfig       `yaml:"ball"`
	Bats       BatsConfig       `yaml:"bats"`
	Serve      ServeConfig      `yaml:"serve"`
	CPU        CPUConfig        `yaml:"cpu"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
	Network    NetworkConfig    `yaml:"network"`
	Keys       KeysConfig       `yaml:"keys"`
}

// FieldConfig defines the abstract court. It never depends on the display.
type FieldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// BallConfig defines the ball and how bat hits change it.
type BallConfig struct {
	Radius   float64 `yaml:"radius"`
	SpeedUp  float64 `yaml:"speed_up"`  // |vx| multiplier per bat hit
	MaxSpeed float64 `yaml:"max_speed"` // Per-axis cap, 0 disables
	Spin     float64 `yaml:"spin"`      // vy added per off-center hit, relative to |vx|
}

// BatsConfig defines both bats.
type BatsConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Offset float64 `yaml:"offset"` // Gap between the field edge and the bat
	Speed  float64 `yaml:"speed"`  // Field units per second
}

// ServeConfig defines how the ball is put in play.
type ServeConfig struct {
	Speed    float64 `yaml:"speed"`     // Base speed, field units per second
	MaxAngle float64 `yaml:"max_angle"` // Degrees off the horizontal
	Random   bool    `yaml:"random"`    // Random angle within MaxAngle
}

// CPUConfig defines the computer opponent in singleplayer.
type CPUConfig struct {
	MinSkill float64 `yaml:"min_skill"` // Tracking accuracy at the lowest level
	MaxSkill float64 `yaml:"max_skill"` // Tracking accuracy at the highest level
	DeadZone float64 `yaml:"dead_zone"` // Fraction of bat height the CPU tolerates
}

// DifficultyConfig defines the difficulty progression system.
type DifficultyConfig struct {
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig defines how difficulty increases.
type ProgressionConfig struct {
	Type  string  `yaml:"type"`   // "score", "time", or "none"
	MaxAt float64 `yaml:"max_at"` // Points or seconds at which max difficulty is reached
}

// ScalingConfig defines the magnitude of difficulty changes.
type ScalingConfig struct {
	SpeedMultiplier float64 `yaml:"speed_multiplier"` // Added to CPU bat speed at max difficulty
}

// NetworkConfig defines online synchronization.
type NetworkConfig struct {
	RateHz int    `yaml:"rate_hz"` // State messages per second
	Relay  string `yaml:"relay"`   // Default relay URL for online play
}

// KeysConfig maps key names to actions. Names follow the terminal key
// names, e.g. "w", "up", "space".
type KeysConfig struct {
	LeftUp    []string `yaml:"left_up"`
	LeftDown  []string `yaml:"left_down"`
	RightUp   []string `yaml:"right_up"`
	RightDown []string `yaml:"right_down"`
	Start     []string `yaml:"start"`
}

// Validate reports the first unusable value.
func (c GameConfig) Validate() error {
	checks := []struct {
		name string
		val  float64
	}{
		{"field.width", c.Field.Width},
		{"field.height", c.Field.Height},
		{"ball.radius", c.Ball.Radius},
		{"bats.width", c.Bats.Width},
		{"bats.height", c.Bats.Height},
		{"bats.speed", c.Bats.Speed},
		{"serve.speed", c.Serve.Speed},
	}
	for _, chk := range checks {
		if !(chk.val > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalid, chk.name, chk.val)
		}
	}

	if c.Bats.Height >= c.Field.Height {
		return fmt.Errorf("%w: bats.height %v does not fit field.height %v", ErrInvalid, c.Bats.Height, c.Field.Height)
	}
	if c.Bats.Offset < 0 || 2*(c.Bats.Offset+c.Bats.Width) >= c.Field.Width {
		return fmt.Errorf("%w: bats do not fit field.width %v", ErrInvalid, c.Field.Width)
	}
	if c.Ball.SpeedUp < 1 {
		return fmt.Errorf("%w: ball.speed_up must be at least 1, got %v", ErrInvalid, c.Ball.SpeedUp)
	}
	if c.Ball.MaxSpeed < 0 {
		return fmt.Errorf("%w: ball.max_speed must not be negative", ErrInvalid)
	}
	if c.Serve.MaxAngle < 0 || c.Serve.MaxAngle >= 90 {
		return fmt.Errorf("%w: serve.max_angle must be in [0, 90), got %v", ErrInvalid, c.Serve.MaxAngle)
	}
	if c.Network.RateHz <= 0 {
		return fmt.Errorf("%w: network.rate_hz must be positive, got %d", ErrInvalid, c.Network.RateHz)
	}
	switch c.Difficulty.Progression.Type {
	case "score", "time", "none", "":
	default:
		return fmt.Errorf("%w: unknown difficulty progression %q", ErrInvalid, c.Difficulty.Progression.Type)
	}
	return nil
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// ParsePreset validates a preset name. Empty means normal.
func ParsePreset(s string) (DifficultyPreset, error) {
	switch p := DifficultyPreset(s); p {
	case "":
		return DifficultyNormal, nil
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed:
		return p, nil
	default:
		return "", fmt.Errorf("config: unknown difficulty %q (want easy, normal, hard or fixed)", s)
	}
}

// InitialLevelForPreset returns the initial_level for a difficulty preset.
func InitialLevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.0
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}

// ApplyPreset modifies the config based on a difficulty preset.
func ApplyPreset(cfg *GameConfig, preset DifficultyPreset) {
	if preset == DifficultyFixed {
		cfg.Difficulty.Enabled = false
	} else {
		cfg.Difficulty.Enabled = true
		cfg.Difficulty.InitialLevel = InitialLevelForPreset(preset)
	}

	switch preset {
	case DifficultyEasy:
		cfg.Serve.Speed *= 0.8
		cfg.CPU.MaxSkill = min(cfg.CPU.MaxSkill, 0.7)
	case DifficultyHard:
		cfg.Serve.Speed *= 1.25
		cfg.Ball.SpeedUp = max(cfg.Ball.SpeedUp, 1.08)
	}
}
