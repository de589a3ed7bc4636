package config

import (
	_ "embed"
)

//go:embed defaults/pong.yaml
var defaultPongYAML []byte

// DefaultGameConfig returns the built-in configuration.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Field: FieldConfig{
			Width:  100,
			Height: 60,
		},
		Ball: BallConfig{
			Radius:   1,
			SpeedUp:  1.05,
			MaxSpeed: 160,
			Spin:     0.6,
		},
		Bats: BatsConfig{
			Width:  2,
			Height: 12,
			Offset: 3,
			Speed:  70,
		},
		Serve: ServeConfig{
			Speed:    50,
			MaxAngle: 30,
			Random:   true,
		},
		CPU: CPUConfig{
			MinSkill: 0.6,
			MaxSkill: 0.85,
			DeadZone: 0.25,
		},
		Difficulty: DifficultyConfig{
			Enabled:      true,
			InitialLevel: 0.0,
			Progression: ProgressionConfig{
				Type:  "time",
				MaxAt: 600, // 10 minutes
			},
			Scaling: ScalingConfig{
				SpeedMultiplier: 0.5,
			},
		},
		Network: NetworkConfig{
			RateHz: 30,
			Relay:  "http://localhost:8787",
		},
		Keys: KeysConfig{
			LeftUp:    []string{"w"},
			LeftDown:  []string{"s"},
			RightUp:   []string{"up", "k"},
			RightDown: []string{"down", "j"},
			Start:     []string{"space", " "},
		},
	}
}
