package models

import "time"

// Reward is a read-only catalog entry gated by accumulated total points.
type Reward struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Title       string `gorm:"type:varchar(255);not null" json:"title"` // Display title.
	Description string `gorm:"type:text" json:"description"`            // Display description.
	Icon        string `gorm:"type:varchar(64)" json:"icon"`            // Display icon reference.
	Category    string `gorm:"type:varchar(64);index" json:"category"`  // Grouping for stats displays.

	PointsRequired int64   `gorm:"not null;default:0" json:"points_required"` // Total points needed to unlock.
	AchievementID  *uint64 `gorm:"index" json:"achievement_id,omitempty"`     // Optional linked achievement.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
}

// UserReward records a single unlock of a reward by a user.
type UserReward struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	UserID   uint64 `gorm:"not null;uniqueIndex:idx_user_rewards_pair" json:"user_id"`   // Unlocking user.
	RewardID uint64 `gorm:"not null;uniqueIndex:idx_user_rewards_pair" json:"reward_id"` // Unlocked reward.

	UnlockedAt time.Time `gorm:"not null;autoCreateTime" json:"unlocked_at"` // Unlock timestamp.
}
