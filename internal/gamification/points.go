// Package gamification implements the points, level, streak, achievement
// and reward rules applied when users complete tasks.
package gamification

import (
	"math"

	"focustask/internal/models"
)

// Points awarded per difficulty tier.
const (
	PointsEasy   int64 = 10
	PointsMedium int64 = 25
	PointsHard   int64 = 50
)

// PointsForDifficulty returns the award for a difficulty tier. Unknown
// tiers earn nothing.
func PointsForDifficulty(difficulty string) int64 {
	switch difficulty {
	case models.DifficultyEasy:
		return PointsEasy
	case models.DifficultyMedium:
		return PointsMedium
	case models.DifficultyHard:
		return PointsHard
	default:
		return 0
	}
}

// XPForLevel returns the experience threshold at which a user reaches the
// given level. Level 1 starts at zero; each level n requires 100*(n-1)^2.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	n := int64(level - 1)
	return 100 * n * n
}

// LevelForXP returns the level reached with the given experience. Levels
// never decrease because experience never decreases.
func LevelForXP(xp int64) int {
	if xp <= 0 {
		return 1
	}
	level := 1 + int(math.Sqrt(float64(xp)/100))
	for XPForLevel(level+1) <= xp {
		level++
	}
	for level > 1 && XPForLevel(level) > xp {
		level--
	}
	return level
}

// ProgressPercent returns how far the user is through the current level,
// clamped to [0, 100].
func ProgressPercent(xp int64) int {
	level := LevelForXP(xp)
	floor := XPForLevel(level)
	ceil := XPForLevel(level + 1)
	if ceil <= floor {
		return 100
	}
	percent := int((xp - floor) * 100 / (ceil - floor))
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
