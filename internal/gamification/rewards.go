package gamification

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"focustask/internal/apperr"
	"focustask/internal/db"
	"focustask/internal/models"
)

// AvailableRewards returns rewards the user can afford but has not
// unlocked yet. Unlocking never spends points, so affordability only grows.
func (e *Engine) AvailableRewards(ctx context.Context, userID uint64) ([]models.Reward, error) {
	var user models.User
	if errFind := e.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		return nil, fmt.Errorf("gamification: load user %d: %w", userID, errFind)
	}

	query := e.db.WithContext(ctx).
		Where("points_required <= ?", user.TotalPoints).
		Where("id NOT IN (?)", e.db.Model(&models.UserReward{}).Select("reward_id").Where("user_id = ?", userID)).
		Order("points_required ASC, id ASC")

	var rewards []models.Reward
	if errFind := query.Find(&rewards).Error; errFind != nil {
		return nil, fmt.Errorf("gamification: list available rewards: %w", errFind)
	}
	return rewards, nil
}

// UnlockReward unlocks a single reward for the user. The user must hold at
// least the required points; points are not deducted.
func (e *Engine) UnlockReward(ctx context.Context, userID, rewardID uint64) (*models.Reward, error) {
	var reward models.Reward
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.First(&reward, rewardID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return apperr.NotFound("récompense introuvable")
			}
			return fmt.Errorf("gamification: load reward %d: %w", rewardID, errFind)
		}

		var user models.User
		if errFind := tx.First(&user, userID).Error; errFind != nil {
			return fmt.Errorf("gamification: load user %d: %w", userID, errFind)
		}
		if user.TotalPoints < reward.PointsRequired {
			return apperr.Validation("points insuffisants pour débloquer cette récompense")
		}

		record := models.UserReward{UserID: userID, RewardID: rewardID}
		if errCreate := tx.Create(&record).Error; errCreate != nil {
			if db.IsUniqueViolation(errCreate) {
				return apperr.Conflict("récompense déjà débloquée")
			}
			return fmt.Errorf("gamification: unlock reward %d: %w", rewardID, errCreate)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &reward, nil
}

// UnlockByPoints unlocks every affordable reward the user does not hold
// yet and returns the newly unlocked entries.
func (e *Engine) UnlockByPoints(ctx context.Context, userID uint64) ([]models.Reward, error) {
	var unlocked []models.Reward
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errFind := tx.First(&user, userID).Error; errFind != nil {
			return fmt.Errorf("gamification: load user %d: %w", userID, errFind)
		}

		var affordable []models.Reward
		if errFind := tx.
			Where("points_required <= ?", user.TotalPoints).
			Where("id NOT IN (?)", tx.Model(&models.UserReward{}).Select("reward_id").Where("user_id = ?", userID)).
			Order("points_required ASC, id ASC").
			Find(&affordable).Error; errFind != nil {
			return fmt.Errorf("gamification: list affordable rewards: %w", errFind)
		}

		for _, reward := range affordable {
			record := models.UserReward{UserID: userID, RewardID: reward.ID}
			if errCreate := tx.Create(&record).Error; errCreate != nil {
				if db.IsUniqueViolation(errCreate) {
					continue
				}
				return fmt.Errorf("gamification: unlock reward %d: %w", reward.ID, errCreate)
			}
			unlocked = append(unlocked, reward)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return unlocked, nil
}

// CategoryStat aggregates reward unlocks within one category.
type CategoryStat struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
	Unlocked int64  `json:"unlocked"`
}

// RewardStats summarizes a user's reward collection.
type RewardStats struct {
	Total      int64          `json:"total"`
	Unlocked   int64          `json:"unlocked"`
	Percent    int            `json:"percent"`
	Categories []CategoryStat `json:"categories"`
}

// Stats returns catalog-wide reward statistics for a user.
func (e *Engine) Stats(ctx context.Context, userID uint64) (*RewardStats, error) {
	stats := &RewardStats{}

	if errCount := e.db.WithContext(ctx).Model(&models.Reward{}).Count(&stats.Total).Error; errCount != nil {
		return nil, fmt.Errorf("gamification: count rewards: %w", errCount)
	}
	if errCount := e.db.WithContext(ctx).Model(&models.UserReward{}).
		Where("user_id = ?", userID).
		Count(&stats.Unlocked).Error; errCount != nil {
		return nil, fmt.Errorf("gamification: count unlocked rewards: %w", errCount)
	}
	if stats.Total > 0 {
		stats.Percent = int(stats.Unlocked * 100 / stats.Total)
	}

	rows := []struct {
		Category string
		Total    int64
		Unlocked int64
	}{}
	if errScan := e.db.WithContext(ctx).Model(&models.Reward{}).
		Select("rewards.category AS category, COUNT(*) AS total, COUNT(user_rewards.id) AS unlocked").
		Joins("LEFT JOIN user_rewards ON user_rewards.reward_id = rewards.id AND user_rewards.user_id = ?", userID).
		Group("rewards.category").
		Order("rewards.category ASC").
		Scan(&rows).Error; errScan != nil {
		return nil, fmt.Errorf("gamification: reward category stats: %w", errScan)
	}
	for _, row := range rows {
		stats.Categories = append(stats.Categories, CategoryStat{
			Category: row.Category,
			Total:    row.Total,
			Unlocked: row.Unlocked,
		})
	}
	return stats, nil
}

// RewardsByCategory lists catalog rewards in one category.
func (e *Engine) RewardsByCategory(ctx context.Context, category string) ([]models.Reward, error) {
	var rewards []models.Reward
	if errFind := e.db.WithContext(ctx).
		Where("category = ?", category).
		Order("points_required ASC, id ASC").
		Find(&rewards).Error; errFind != nil {
		return nil, fmt.Errorf("gamification: list rewards by category: %w", errFind)
	}
	return rewards, nil
}
