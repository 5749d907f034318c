package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"focustask/internal/apperr"
	"focustask/internal/gamification"
	"focustask/internal/models"
)

// RewardHandler manages reward endpoints.
type RewardHandler struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewRewardHandler constructs a RewardHandler.
func NewRewardHandler(db *gorm.DB, engine *gamification.Engine) *RewardHandler {
	return &RewardHandler{db: db, engine: engine}
}

// List returns the full reward catalog.
func (h *RewardHandler) List(c *gin.Context) {
	var catalog []models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("points_required ASC, id ASC").
		Find(&catalog).Error; errFind != nil {
		Error(c, fmt.Errorf("rewards: load catalog: %w", errFind))
		return
	}
	Success(c, http.StatusOK, gin.H{"rewards": rewardListJSON(catalog)})
}

// unlockedRewardRow joins an unlock record with its catalog entry.
type unlockedRewardRow struct {
	models.Reward
	UnlockedAt time.Time
}

// UserRewards returns the user's unlocked rewards.
func (h *RewardHandler) UserRewards(c *gin.Context) {
	var rows []unlockedRewardRow
	if errScan := h.db.WithContext(c.Request.Context()).Model(&models.Reward{}).
		Select("rewards.*, user_rewards.unlocked_at").
		Joins("JOIN user_rewards ON user_rewards.reward_id = rewards.id").
		Where("user_rewards.user_id = ?", CurrentUserID(c)).
		Order("user_rewards.unlocked_at DESC").
		Scan(&rows).Error; errScan != nil {
		Error(c, fmt.Errorf("rewards: list unlocked: %w", errScan))
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		entry := rewardJSON(&rows[i].Reward)
		entry["unlocked_at"] = rows[i].UnlockedAt
		out = append(out, entry)
	}
	Success(c, http.StatusOK, gin.H{"rewards": out})
}

// Available returns rewards the user can afford but has not unlocked.
func (h *RewardHandler) Available(c *gin.Context) {
	available, errList := h.engine.AvailableRewards(c.Request.Context(), CurrentUserID(c))
	if errList != nil {
		Error(c, errList)
		return
	}
	Success(c, http.StatusOK, gin.H{"rewards": rewardListJSON(available)})
}

// Unlock unlocks a single reward by ID.
func (h *RewardHandler) Unlock(c *gin.Context) {
	rewardID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || rewardID == 0 {
		Error(c, apperr.Validation("identifiant de récompense invalide"))
		return
	}

	reward, errUnlock := h.engine.UnlockReward(c.Request.Context(), CurrentUserID(c), rewardID)
	if errUnlock != nil {
		Error(c, errUnlock)
		return
	}
	SuccessMessage(c, http.StatusOK, gin.H{"reward": rewardJSON(reward)}, "récompense débloquée")
}

// UnlockByPoints unlocks every affordable reward at once.
func (h *RewardHandler) UnlockByPoints(c *gin.Context) {
	unlocked, errUnlock := h.engine.UnlockByPoints(c.Request.Context(), CurrentUserID(c))
	if errUnlock != nil {
		Error(c, errUnlock)
		return
	}
	message := "aucune nouvelle récompense"
	if len(unlocked) > 0 {
		message = fmt.Sprintf("%d récompenses débloquées", len(unlocked))
	}
	SuccessMessage(c, http.StatusOK, gin.H{"rewards": rewardListJSON(unlocked)}, message)
}

// Stats returns catalog-wide unlock statistics for the user.
func (h *RewardHandler) Stats(c *gin.Context) {
	stats, errStats := h.engine.Stats(c.Request.Context(), CurrentUserID(c))
	if errStats != nil {
		Error(c, errStats)
		return
	}
	Success(c, http.StatusOK, gin.H{"stats": stats})
}

// ByCategory returns the catalog rewards in one category.
func (h *RewardHandler) ByCategory(c *gin.Context) {
	category := c.Param("category")
	if category == "" {
		Error(c, apperr.Validation("catégorie requise"))
		return
	}

	rewards, errList := h.engine.RewardsByCategory(c.Request.Context(), category)
	if errList != nil {
		Error(c, errList)
		return
	}
	Success(c, http.StatusOK, gin.H{"rewards": rewardListJSON(rewards)})
}
