package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"focustask/internal/gamification"
	"focustask/internal/models"
)

// newAchievementWindow bounds the "recently unlocked" view.
const newAchievementWindow = 24 * time.Hour

// AchievementHandler manages achievement endpoints.
type AchievementHandler struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewAchievementHandler constructs an AchievementHandler.
func NewAchievementHandler(db *gorm.DB, engine *gamification.Engine) *AchievementHandler {
	return &AchievementHandler{db: db, engine: engine}
}

// List returns the full achievement catalog.
func (h *AchievementHandler) List(c *gin.Context) {
	var catalog []models.Achievement
	if errFind := h.db.WithContext(c.Request.Context()).Order("id ASC").Find(&catalog).Error; errFind != nil {
		Error(c, fmt.Errorf("achievements: load catalog: %w", errFind))
		return
	}
	Success(c, http.StatusOK, gin.H{"achievements": achievementListJSON(catalog)})
}

// unlockedRow joins an unlock record with its catalog entry.
type unlockedRow struct {
	models.Achievement
	UnlockedAt time.Time
}

// listUnlocked loads the user's unlocks joined with the catalog.
func (h *AchievementHandler) listUnlocked(c *gin.Context, since *time.Time) ([]unlockedRow, error) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.Achievement{}).
		Select("achievements.*, user_achievements.unlocked_at").
		Joins("JOIN user_achievements ON user_achievements.achievement_id = achievements.id").
		Where("user_achievements.user_id = ?", CurrentUserID(c)).
		Order("user_achievements.unlocked_at DESC")
	if since != nil {
		query = query.Where("user_achievements.unlocked_at >= ?", *since)
	}

	var rows []unlockedRow
	if errScan := query.Scan(&rows).Error; errScan != nil {
		return nil, fmt.Errorf("achievements: list unlocked: %w", errScan)
	}
	return rows, nil
}

// unlockedListJSON serializes unlock rows with their timestamps.
func unlockedListJSON(rows []unlockedRow) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		entry := achievementJSON(&rows[i].Achievement)
		entry["unlocked_at"] = rows[i].UnlockedAt
		out = append(out, entry)
	}
	return out
}

// UserAchievements returns the user's unlocked achievements.
func (h *AchievementHandler) UserAchievements(c *gin.Context) {
	rows, errList := h.listUnlocked(c, nil)
	if errList != nil {
		Error(c, errList)
		return
	}
	Success(c, http.StatusOK, gin.H{"achievements": unlockedListJSON(rows)})
}

// New returns achievements unlocked within the last day.
func (h *AchievementHandler) New(c *gin.Context) {
	since := time.Now().UTC().Add(-newAchievementWindow)
	rows, errList := h.listUnlocked(c, &since)
	if errList != nil {
		Error(c, errList)
		return
	}
	Success(c, http.StatusOK, gin.H{"achievements": unlockedListJSON(rows)})
}

// Progress returns per-achievement progress across the catalog.
func (h *AchievementHandler) Progress(c *gin.Context) {
	progress, errProgress := h.engine.Progress(c.Request.Context(), CurrentUserID(c))
	if errProgress != nil {
		Error(c, errProgress)
		return
	}

	out := make([]gin.H, 0, len(progress))
	unlocked := 0
	for i := range progress {
		entry := achievementJSON(&progress[i].Achievement)
		entry["current"] = progress[i].Current
		entry["target"] = progress[i].Target
		entry["percent"] = progress[i].Percent
		entry["unlocked"] = progress[i].Unlocked
		if progress[i].Unlocked {
			unlocked++
		}
		out = append(out, entry)
	}
	Success(c, http.StatusOK, gin.H{
		"total":    len(progress),
		"unlocked": unlocked,
		"progress": out,
	})
}

// Check re-evaluates the catalog and unlocks satisfied achievements.
func (h *AchievementHandler) Check(c *gin.Context) {
	unlocked, user, errCheck := h.engine.UnlockMissing(c.Request.Context(), CurrentUserID(c))
	if errCheck != nil {
		Error(c, errCheck)
		return
	}
	Success(c, http.StatusOK, gin.H{
		"unlocked": achievementListJSON(unlocked),
		"stats":    statsJSON(user),
	})
}

// UnlockMissing backfills unlocks whose conditions are already met.
func (h *AchievementHandler) UnlockMissing(c *gin.Context) {
	unlocked, user, errUnlock := h.engine.UnlockMissing(c.Request.Context(), CurrentUserID(c))
	if errUnlock != nil {
		Error(c, errUnlock)
		return
	}
	message := "aucun succès manquant"
	if len(unlocked) > 0 {
		message = fmt.Sprintf("%d succès débloqués", len(unlocked))
	}
	SuccessMessage(c, http.StatusOK, gin.H{
		"unlocked": achievementListJSON(unlocked),
		"stats":    statsJSON(user),
	}, message)
}
