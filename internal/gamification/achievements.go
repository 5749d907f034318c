package gamification

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"focustask/internal/db"
	"focustask/internal/models"
)

// conditionMet reports whether the user's stats satisfy the achievement
// condition.
func conditionMet(user *models.User, achievement models.Achievement) bool {
	switch achievement.ConditionType {
	case models.ConditionTasksCompleted:
		return user.TasksCompleted >= achievement.ConditionValue
	case models.ConditionStreakDays:
		return int64(user.CurrentStreak) >= achievement.ConditionValue
	case models.ConditionTotalPoints:
		return user.TotalPoints >= achievement.ConditionValue
	case models.ConditionLevel:
		return int64(user.Level) >= achievement.ConditionValue
	default:
		return false
	}
}

// CheckAndUnlock evaluates every locked achievement against the user's
// current stats and unlocks those whose condition is met. Unlock rewards
// feed back into total points and experience, so evaluation loops until no
// further condition becomes satisfied. The user struct is updated in place.
func (e *Engine) CheckAndUnlock(ctx context.Context, tx *gorm.DB, user *models.User) ([]models.Achievement, error) {
	var unlockedIDs []uint64
	if errPluck := tx.WithContext(ctx).Model(&models.UserAchievement{}).
		Where("user_id = ?", user.ID).
		Pluck("achievement_id", &unlockedIDs).Error; errPluck != nil {
		return nil, fmt.Errorf("gamification: list unlocked achievements: %w", errPluck)
	}

	query := tx.WithContext(ctx).Order("id ASC")
	if len(unlockedIDs) > 0 {
		query = query.Where("id NOT IN ?", unlockedIDs)
	}
	var locked []models.Achievement
	if errFind := query.Find(&locked).Error; errFind != nil {
		return nil, fmt.Errorf("gamification: load achievement catalog: %w", errFind)
	}

	var unlocked []models.Achievement
	for progressed := true; progressed; {
		progressed = false
		remaining := locked[:0]
		for _, achievement := range locked {
			if !conditionMet(user, achievement) {
				remaining = append(remaining, achievement)
				continue
			}
			granted, errUnlock := e.unlockAchievement(ctx, tx, user, achievement)
			if errUnlock != nil {
				return nil, errUnlock
			}
			if granted {
				unlocked = append(unlocked, achievement)
				progressed = true
			}
		}
		locked = remaining
	}

	if level := LevelForXP(user.ExperiencePoints); level != user.Level {
		if errLevel := tx.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("level", level).Error; errLevel != nil {
			return nil, fmt.Errorf("gamification: update level for user %d: %w", user.ID, errLevel)
		}
		user.Level = level
	}
	return unlocked, nil
}

// unlockAchievement records the unlock and credits its reward. A concurrent
// unlock of the same pair loses the unique index race and is skipped.
func (e *Engine) unlockAchievement(ctx context.Context, tx *gorm.DB, user *models.User, achievement models.Achievement) (bool, error) {
	record := models.UserAchievement{UserID: user.ID, AchievementID: achievement.ID}
	if errCreate := tx.WithContext(ctx).Create(&record).Error; errCreate != nil {
		if db.IsUniqueViolation(errCreate) {
			return false, nil
		}
		return false, fmt.Errorf("gamification: unlock achievement %d: %w", achievement.ID, errCreate)
	}

	if achievement.PointsReward > 0 {
		if errCredit := tx.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"total_points":      gorm.Expr("total_points + ?", achievement.PointsReward),
				"experience_points": gorm.Expr("experience_points + ?", achievement.PointsReward),
			}).Error; errCredit != nil {
			return false, fmt.Errorf("gamification: credit achievement reward: %w", errCredit)
		}
		user.TotalPoints += achievement.PointsReward
		user.ExperiencePoints += achievement.PointsReward
	}

	if level := LevelForXP(user.ExperiencePoints); level != user.Level {
		user.Level = level
	}
	return true, nil
}

// UnlockMissing re-evaluates the full catalog for a user and unlocks every
// achievement whose condition is already met. It backfills users whose
// stats advanced while an achievement was added to the catalog.
func (e *Engine) UnlockMissing(ctx context.Context, userID uint64) ([]models.Achievement, *models.User, error) {
	var unlocked []models.Achievement
	var user models.User
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.First(&user, userID).Error; errFind != nil {
			return fmt.Errorf("gamification: load user %d: %w", userID, errFind)
		}
		var errUnlock error
		unlocked, errUnlock = e.CheckAndUnlock(ctx, tx, &user)
		return errUnlock
	})
	if errTx != nil {
		return nil, nil, errTx
	}
	return unlocked, &user, nil
}

// AchievementProgress describes how close a user is to one achievement.
type AchievementProgress struct {
	Achievement models.Achievement // Catalog entry.
	Current     int64              // Current value of the tracked stat.
	Target      int64              // Condition threshold.
	Percent     int                // Progress percent, clamped to [0, 100].
	Unlocked    bool               // Whether the user already holds it.
}

// Progress returns per-achievement progress for the whole catalog.
func (e *Engine) Progress(ctx context.Context, userID uint64) ([]AchievementProgress, error) {
	var user models.User
	if errFind := e.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		return nil, fmt.Errorf("gamification: load user %d: %w", userID, errFind)
	}

	var catalog []models.Achievement
	if errFind := e.db.WithContext(ctx).Order("id ASC").Find(&catalog).Error; errFind != nil {
		return nil, fmt.Errorf("gamification: load achievement catalog: %w", errFind)
	}

	var unlockedIDs []uint64
	if errPluck := e.db.WithContext(ctx).Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &unlockedIDs).Error; errPluck != nil {
		return nil, fmt.Errorf("gamification: list unlocked achievements: %w", errPluck)
	}
	unlockedSet := make(map[uint64]bool, len(unlockedIDs))
	for _, id := range unlockedIDs {
		unlockedSet[id] = true
	}

	progress := make([]AchievementProgress, 0, len(catalog))
	for _, achievement := range catalog {
		current := statValue(&user, achievement.ConditionType)
		entry := AchievementProgress{
			Achievement: achievement,
			Current:     current,
			Target:      achievement.ConditionValue,
			Unlocked:    unlockedSet[achievement.ID],
		}
		if entry.Unlocked || achievement.ConditionValue <= 0 {
			entry.Percent = 100
		} else {
			percent := int(current * 100 / achievement.ConditionValue)
			if percent < 0 {
				percent = 0
			}
			if percent > 100 {
				percent = 100
			}
			entry.Percent = percent
		}
		progress = append(progress, entry)
	}
	return progress, nil
}

// statValue returns the user's current value for a condition type.
func statValue(user *models.User, conditionType string) int64 {
	switch conditionType {
	case models.ConditionTasksCompleted:
		return user.TasksCompleted
	case models.ConditionStreakDays:
		return int64(user.CurrentStreak)
	case models.ConditionTotalPoints:
		return user.TotalPoints
	case models.ConditionLevel:
		return int64(user.Level)
	default:
		return 0
	}
}
