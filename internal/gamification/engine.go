package gamification

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"focustask/internal/models"
)

// Engine applies gamification rules against the database. Mutating methods
// expect to run inside a caller-provided transaction.
type Engine struct {
	db *gorm.DB
}

// NewEngine builds a gamification engine.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// CompletionResult summarizes the effects of completing a task.
type CompletionResult struct {
	PointsEarned         int64                // Points this completion awarded; zero on re-completion.
	TotalPoints          int64                // User total after the completion.
	ExperiencePoints     int64                // User experience after the completion.
	Level                int                  // User level after the completion.
	LeveledUp            bool                 // Whether the level increased.
	CurrentStreak        int                  // Streak after the completion.
	UnlockedAchievements []models.Achievement // Achievements unlocked by this completion.
}

// ApplyTaskCompletion marks the task completed and applies every downstream
// effect: points, experience, streak, level and achievement unlocks. Points
// are awarded only on the first completion of a task; re-completing after a
// status rollback changes state but never the point ledger.
func (e *Engine) ApplyTaskCompletion(ctx context.Context, tx *gorm.DB, task *models.Task, now time.Time) (*CompletionResult, error) {
	var user models.User
	if errFind := tx.WithContext(ctx).First(&user, task.UserID).Error; errFind != nil {
		return nil, fmt.Errorf("gamification: load user %d: %w", task.UserID, errFind)
	}

	firstCompletion := task.PointsEarned == 0
	points := int64(0)
	if firstCompletion {
		points = PointsForDifficulty(task.Difficulty)
	}

	streak, errStreak := e.nextStreak(ctx, tx, &user, task.ID, now)
	if errStreak != nil {
		return nil, errStreak
	}

	completedAt := now.UTC()
	taskUpdates := map[string]interface{}{
		"status":       models.StatusCompleted,
		"completed_at": completedAt,
	}
	if firstCompletion {
		taskUpdates["points_earned"] = points
	}
	if errTask := tx.WithContext(ctx).Model(&models.Task{}).Where("id = ?", task.ID).Updates(taskUpdates).Error; errTask != nil {
		return nil, fmt.Errorf("gamification: complete task %d: %w", task.ID, errTask)
	}
	task.Status = models.StatusCompleted
	task.CompletedAt = &completedAt
	if firstCompletion {
		task.PointsEarned = points
	}

	userUpdates := map[string]interface{}{
		"current_streak": streak,
	}
	if firstCompletion {
		userUpdates["total_points"] = gorm.Expr("total_points + ?", points)
		userUpdates["experience_points"] = gorm.Expr("experience_points + ?", points)
		userUpdates["tasks_completed"] = gorm.Expr("tasks_completed + 1")
	}
	if errUser := tx.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(userUpdates).Error; errUser != nil {
		return nil, fmt.Errorf("gamification: credit user %d: %w", user.ID, errUser)
	}

	if errReload := tx.WithContext(ctx).First(&user, user.ID).Error; errReload != nil {
		return nil, fmt.Errorf("gamification: reload user %d: %w", user.ID, errReload)
	}

	previousLevel := user.Level
	unlocked, errUnlock := e.CheckAndUnlock(ctx, tx, &user)
	if errUnlock != nil {
		return nil, errUnlock
	}

	result := &CompletionResult{
		PointsEarned:         points,
		TotalPoints:          user.TotalPoints,
		ExperiencePoints:     user.ExperiencePoints,
		Level:                user.Level,
		LeveledUp:            user.Level > previousLevel,
		CurrentStreak:        user.CurrentStreak,
		UnlockedAchievements: unlocked,
	}
	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"task_id":  task.ID,
		"points":   points,
		"level":    user.Level,
		"streak":   user.CurrentStreak,
		"unlocked": len(unlocked),
	}).Debug("task completion applied")
	return result, nil
}

// nextStreak computes the streak value after a completion at now. A second
// completion on the same day leaves the streak unchanged, a completion the
// day after the latest one extends it, anything else restarts at one.
func (e *Engine) nextStreak(ctx context.Context, tx *gorm.DB, user *models.User, excludeTaskID uint64, now time.Time) (int, error) {
	dayStart := startOfDay(now.UTC())

	var todayCount int64
	if errCount := tx.WithContext(ctx).Model(&models.Task{}).
		Where("user_id = ? AND status = ? AND id <> ?", user.ID, models.StatusCompleted, excludeTaskID).
		Where("completed_at >= ? AND completed_at < ?", dayStart, dayStart.Add(24*time.Hour)).
		Count(&todayCount).Error; errCount != nil {
		return 0, fmt.Errorf("gamification: count today completions: %w", errCount)
	}
	if todayCount > 0 {
		if user.CurrentStreak < 1 {
			return 1, nil
		}
		return user.CurrentStreak, nil
	}

	var yesterdayCount int64
	if errCount := tx.WithContext(ctx).Model(&models.Task{}).
		Where("user_id = ? AND status = ?", user.ID, models.StatusCompleted).
		Where("completed_at >= ? AND completed_at < ?", dayStart.Add(-24*time.Hour), dayStart).
		Count(&yesterdayCount).Error; errCount != nil {
		return 0, fmt.Errorf("gamification: count yesterday completions: %w", errCount)
	}
	if yesterdayCount > 0 {
		return user.CurrentStreak + 1, nil
	}
	return 1, nil
}

// startOfDay truncates t to midnight in its location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
