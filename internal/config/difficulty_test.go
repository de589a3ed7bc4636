package config

import (
	"math"
	"testing"
)

func TestDifficultyLevel(t *testing.T) {
	cfg := DifficultyConfig{
		Enabled:      true,
		InitialLevel: 0.2,
		Progression:  ProgressionConfig{Type: "time", MaxAt: 100},
		Scaling:      ScalingConfig{SpeedMultiplier: 0.5},
	}
	d := NewDifficultyManager(cfg)

	tests := []struct {
		seconds float64
		want    float64
	}{
		{0, 0.2},
		{50, 0.6},
		{100, 1.0},
		{500, 1.0},
	}
	for _, tt := range tests {
		if got := d.Level(0, tt.seconds); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Level(0, %v): expected %v, got %v", tt.seconds, tt.want, got)
		}
	}

	if got := d.Speed(10, 0, 100); math.Abs(got-15) > 1e-9 {
		t.Errorf("expected speed 15 at max level, got %v", got)
	}
}

func TestDifficultyScore(t *testing.T) {
	d := NewDifficultyManager(DifficultyConfig{
		Enabled:     true,
		Progression: ProgressionConfig{Type: "score", MaxAt: 10},
	})
	if got := d.Level(5, 9999); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected level 0.5 at half score, got %v", got)
	}
}

func TestDifficultyDisabled(t *testing.T) {
	d := NewDifficultyManager(DifficultyConfig{
		Enabled:      false,
		InitialLevel: 0.3,
		Progression:  ProgressionConfig{Type: "time", MaxAt: 1},
	})
	if d.IsEnabled() {
		t.Error("expected progression disabled")
	}
	if got := d.Level(100, 100); got != 0.3 {
		t.Errorf("expected fixed level 0.3, got %v", got)
	}
}

func TestDifficultySkill(t *testing.T) {
	d := NewDifficultyManager(DifficultyConfig{
		Enabled:     true,
		Progression: ProgressionConfig{Type: "time", MaxAt: 10},
	})
	cpu := CPUConfig{MinSkill: 0.5, MaxSkill: 0.9}

	if got := d.Skill(cpu, 0, 0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected min skill at start, got %v", got)
	}
	if got := d.Skill(cpu, 0, 10); math.Abs(got-0.9) > 1e-9 {
		t.Errorf("expected max skill at end, got %v", got)
	}
}
