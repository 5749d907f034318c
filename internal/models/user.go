package models

import "time"

// User represents a registered account with its progression snapshot.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Username     string `gorm:"type:text;not null;uniqueIndex" json:"username"` // Unique login name.
	Email        string `gorm:"type:text;not null;uniqueIndex" json:"email"`    // Unique email address.
	PasswordHash string `gorm:"type:text;not null" json:"-"`                    // Bcrypt password hash.

	FirstName string `gorm:"type:text" json:"first_name"` // Optional first name.
	LastName  string `gorm:"type:text" json:"last_name"`  // Optional last name.
	PhotoURL  string `gorm:"type:text" json:"photo_url"`  // Optional avatar reference.

	Level            int   `gorm:"not null;default:1" json:"level"`             // Derived from experience points.
	ExperiencePoints int64 `gorm:"not null;default:0" json:"experience_points"` // Progression currency driving level.
	TotalPoints      int64 `gorm:"not null;default:0" json:"total_points"`      // Non-decreasing reward-gating ledger.
	TasksCompleted   int64 `gorm:"not null;default:0" json:"tasks_completed"`   // Lifetime completed task count.
	CurrentStreak    int   `gorm:"not null;default:0" json:"current_streak"`    // Consecutive days with a completion.

	Settings *Settings `gorm:"foreignKey:UserID" json:"-"` // One-to-one preferences row.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}
