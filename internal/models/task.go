package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Task difficulty tiers, ordered easiest to hardest.
const (
	DifficultyEasy   = "facile"
	DifficultyMedium = "moyen"
	DifficultyHard   = "difficile"
)

// Task lifecycle states.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// ValidDifficulty reports whether d is one of the known difficulty tiers.
func ValidDifficulty(d string) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// Task represents a user-owned task with its scheduled day and lifecycle state.
type Task struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	UserID uint64 `gorm:"not null;index" json:"user_id"` // Owning user.

	Name        string `gorm:"type:text;not null" json:"name"` // Task name.
	Description string `gorm:"type:text" json:"description"`   // Optional description.

	Difficulty string         `gorm:"type:varchar(16);not null" json:"difficulty"`      // facile, moyen or difficile.
	Date       datatypes.Date `gorm:"not null;index" json:"date"`                       // Scheduled day, date only.
	Status     string         `gorm:"type:varchar(16);not null;default:'pending'" json:"status"` // Lifecycle state.

	CompletedAt  *time.Time `json:"completed_at"`                       // Set iff status is completed.
	PointsEarned int64      `gorm:"not null;default:0" json:"points_earned"` // Frozen at first completion.

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                            // Soft-delete marker.
}
