package models

import "time"

// Settings holds a user's preferences. One row per user, created at
// registration with defaults and removed together with the account.
type Settings struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex" json:"user_id"` // Owning user.

	NotificationsEnabled bool `gorm:"not null;default:false" json:"notifications_enabled"` // Push-style notification toggle.
	EmailNotifications   bool `gorm:"not null;default:false" json:"email_notifications"`   // Email notification toggle.
	SoundEffects         bool `gorm:"not null;default:true" json:"sound_effects"`          // UI sound effects toggle.

	DailyReminderTime string `gorm:"type:varchar(8);not null;default:'09:00'" json:"daily_reminder_time"` // HH:MM reminder time.
	Theme             string `gorm:"type:varchar(16);not null;default:'light'" json:"theme"`              // UI theme.
	Language          string `gorm:"type:varchar(8);not null;default:'fr'" json:"language"`               // UI language.
	Timezone          string `gorm:"type:varchar(64);not null;default:'Europe/Paris'" json:"timezone"`    // User timezone.
	DailyGoal         int    `gorm:"not null;default:5" json:"daily_goal"`                                // Daily task completion target.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}
