package models

import "time"

// Achievement condition types evaluated by the gamification engine.
const (
	ConditionTasksCompleted = "tasks_completed"
	ConditionStreakDays     = "streak_days"
	ConditionTotalPoints    = "total_points"
	ConditionLevel          = "level"
)

// Achievement is a read-only catalog entry shared by all users.
type Achievement struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Title       string `gorm:"type:varchar(255);not null" json:"title"` // Display title.
	Description string `gorm:"type:text" json:"description"`            // Display description.
	Icon        string `gorm:"type:varchar(64)" json:"icon"`            // Display icon reference.

	ConditionType  string `gorm:"type:varchar(32);not null" json:"condition_type"` // Stat the condition evaluates.
	ConditionValue int64  `gorm:"not null" json:"condition_value"`                 // Threshold the stat must reach.
	PointsReward   int64  `gorm:"not null;default:0" json:"points_reward"`         // Points credited on unlock.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
}

// UserAchievement records a single unlock of an achievement by a user.
type UserAchievement struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	UserID        uint64 `gorm:"not null;uniqueIndex:idx_user_achievements_pair" json:"user_id"`        // Unlocking user.
	AchievementID uint64 `gorm:"not null;uniqueIndex:idx_user_achievements_pair" json:"achievement_id"` // Unlocked achievement.

	UnlockedAt time.Time `gorm:"not null;autoCreateTime" json:"unlocked_at"` // Unlock timestamp.
}
