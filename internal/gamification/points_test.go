package gamification

import (
	"testing"

	"focustask/internal/models"
)

func TestPointsForDifficulty(t *testing.T) {
	cases := []struct {
		difficulty string
		want       int64
	}{
		{models.DifficultyEasy, 10},
		{models.DifficultyMedium, 25},
		{models.DifficultyHard, 50},
		{"unknown", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := PointsForDifficulty(tc.difficulty); got != tc.want {
			t.Fatalf("PointsForDifficulty(%q) = %d, want %d", tc.difficulty, got, tc.want)
		}
	}
}

func TestLevelForXP_Thresholds(t *testing.T) {
	cases := []struct {
		xp   int64
		want int
	}{
		{-10, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{900, 4},
		{8100, 10},
		{8099, 9},
	}
	for _, tc := range cases {
		if got := LevelForXP(tc.xp); got != tc.want {
			t.Fatalf("LevelForXP(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
}

func TestLevelForXP_Monotonic(t *testing.T) {
	previous := 0
	for xp := int64(0); xp <= 10000; xp += 37 {
		level := LevelForXP(xp)
		if level < previous {
			t.Fatalf("level decreased from %d to %d at xp=%d", previous, level, xp)
		}
		previous = level
	}
}

func TestXPForLevel_RoundTrip(t *testing.T) {
	for level := 1; level <= 50; level++ {
		threshold := XPForLevel(level)
		if got := LevelForXP(threshold); got != level {
			t.Fatalf("LevelForXP(XPForLevel(%d)) = %d", level, got)
		}
		if level > 1 {
			if got := LevelForXP(threshold - 1); got != level-1 {
				t.Fatalf("LevelForXP(%d) = %d, want %d", threshold-1, got, level-1)
			}
		}
	}
}

func TestProgressPercent_Clamped(t *testing.T) {
	for xp := int64(-50); xp <= 5000; xp += 63 {
		percent := ProgressPercent(xp)
		if percent < 0 || percent > 100 {
			t.Fatalf("ProgressPercent(%d) = %d, out of range", xp, percent)
		}
	}
	if got := ProgressPercent(0); got != 0 {
		t.Fatalf("ProgressPercent(0) = %d, want 0", got)
	}
	if got := ProgressPercent(100); got != 0 {
		t.Fatalf("ProgressPercent(100) = %d, want 0 at level start", got)
	}
	if got := ProgressPercent(250); got != 50 {
		t.Fatalf("ProgressPercent(250) = %d, want 50", got)
	}
}
