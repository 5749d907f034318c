package gamification

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"focustask/internal/db"
	"focustask/internal/models"
)

func newTestEngine(t *testing.T, name string) (*Engine, *gorm.DB) {
	t.Helper()
	conn, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewEngine(conn), conn
}

func createTestUser(t *testing.T, conn *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Level:        1,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return &user
}

func createTestTask(t *testing.T, conn *gorm.DB, userID uint64, difficulty string) *models.Task {
	t.Helper()
	task := models.Task{
		UserID:     userID,
		Name:       "test task",
		Difficulty: difficulty,
		Date:       datatypes.Date(time.Now().UTC()),
		Status:     models.StatusPending,
	}
	if errCreate := conn.Create(&task).Error; errCreate != nil {
		t.Fatalf("create task: %v", errCreate)
	}
	return &task
}

func applyCompletion(t *testing.T, engine *Engine, conn *gorm.DB, task *models.Task, now time.Time) *CompletionResult {
	t.Helper()
	var result *CompletionResult
	errTx := conn.Transaction(func(tx *gorm.DB) error {
		var errApply error
		result, errApply = engine.ApplyTaskCompletion(context.Background(), tx, task, now)
		return errApply
	})
	if errTx != nil {
		t.Fatalf("apply completion: %v", errTx)
	}
	return result
}

func TestApplyTaskCompletion_FirstCompletion(t *testing.T) {
	engine, conn := newTestEngine(t, "engine_first")
	user := createTestUser(t, conn, "alice")
	task := createTestTask(t, conn, user.ID, models.DifficultyEasy)

	result := applyCompletion(t, engine, conn, task, time.Now())

	if result.PointsEarned != 10 {
		t.Fatalf("expected 10 points for facile, got %d", result.PointsEarned)
	}
	if result.CurrentStreak != 1 {
		t.Fatalf("expected streak 1, got %d", result.CurrentStreak)
	}
	// The first completion also unlocks the first-task achievement worth 10.
	if result.TotalPoints != 20 {
		t.Fatalf("expected total 20 after catalog unlock, got %d", result.TotalPoints)
	}
	if len(result.UnlockedAchievements) != 1 {
		t.Fatalf("expected 1 unlocked achievement, got %d", len(result.UnlockedAchievements))
	}

	var stored models.Task
	if errFind := conn.First(&stored, task.ID).Error; errFind != nil {
		t.Fatalf("reload task: %v", errFind)
	}
	if stored.Status != models.StatusCompleted {
		t.Fatalf("expected completed status, got %q", stored.Status)
	}
	if stored.CompletedAt == nil {
		t.Fatalf("expected completed_at to be set")
	}
	if stored.PointsEarned != 10 {
		t.Fatalf("expected points_earned=10, got %d", stored.PointsEarned)
	}

	var storedUser models.User
	if errFind := conn.First(&storedUser, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if storedUser.TasksCompleted != 1 {
		t.Fatalf("expected tasks_completed=1, got %d", storedUser.TasksCompleted)
	}
	if storedUser.ExperiencePoints != 20 {
		t.Fatalf("expected xp=20, got %d", storedUser.ExperiencePoints)
	}
}

func TestApplyTaskCompletion_NoDoubleAward(t *testing.T) {
	engine, conn := newTestEngine(t, "engine_double")
	user := createTestUser(t, conn, "bob")
	task := createTestTask(t, conn, user.ID, models.DifficultyHard)

	first := applyCompletion(t, engine, conn, task, time.Now())
	if first.PointsEarned != 50 {
		t.Fatalf("expected 50 points for difficile, got %d", first.PointsEarned)
	}

	// Roll the task back the way a status update does, then complete again.
	if errRollback := conn.Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
		"status":       models.StatusInProgress,
		"completed_at": nil,
	}).Error; errRollback != nil {
		t.Fatalf("rollback: %v", errRollback)
	}
	task.Status = models.StatusInProgress
	task.CompletedAt = nil

	second := applyCompletion(t, engine, conn, task, time.Now())
	if second.PointsEarned != 0 {
		t.Fatalf("expected no points on re-completion, got %d", second.PointsEarned)
	}
	if second.TotalPoints != first.TotalPoints {
		t.Fatalf("expected total unchanged at %d, got %d", first.TotalPoints, second.TotalPoints)
	}

	var storedUser models.User
	if errFind := conn.First(&storedUser, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if storedUser.TasksCompleted != 1 {
		t.Fatalf("expected tasks_completed=1 after re-completion, got %d", storedUser.TasksCompleted)
	}
}

func TestApplyTaskCompletion_StreakExtends(t *testing.T) {
	engine, conn := newTestEngine(t, "engine_streak")
	user := createTestUser(t, conn, "carol")

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	previous := models.Task{
		UserID:       user.ID,
		Name:         "yesterday task",
		Difficulty:   models.DifficultyEasy,
		Date:         datatypes.Date(yesterday),
		Status:       models.StatusCompleted,
		CompletedAt:  &yesterday,
		PointsEarned: 10,
	}
	if errCreate := conn.Create(&previous).Error; errCreate != nil {
		t.Fatalf("create previous task: %v", errCreate)
	}
	if errStreak := conn.Model(&models.User{}).Where("id = ?", user.ID).Update("current_streak", 3).Error; errStreak != nil {
		t.Fatalf("seed streak: %v", errStreak)
	}

	task := createTestTask(t, conn, user.ID, models.DifficultyEasy)
	result := applyCompletion(t, engine, conn, task, time.Now())
	if result.CurrentStreak != 4 {
		t.Fatalf("expected streak 4 after consecutive day, got %d", result.CurrentStreak)
	}
}

func TestApplyTaskCompletion_StreakUnchangedSameDay(t *testing.T) {
	engine, conn := newTestEngine(t, "engine_sameday")
	user := createTestUser(t, conn, "dave")

	first := createTestTask(t, conn, user.ID, models.DifficultyEasy)
	applyCompletion(t, engine, conn, first, time.Now())

	second := createTestTask(t, conn, user.ID, models.DifficultyEasy)
	result := applyCompletion(t, engine, conn, second, time.Now())
	if result.CurrentStreak != 1 {
		t.Fatalf("expected streak to stay 1 on same day, got %d", result.CurrentStreak)
	}
}

func TestUnlockMissing_Backfills(t *testing.T) {
	engine, conn := newTestEngine(t, "engine_backfill")
	user := createTestUser(t, conn, "erin")

	// Stats advanced without any recorded unlocks.
	if errSeed := conn.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"tasks_completed": 10,
	}).Error; errSeed != nil {
		t.Fatalf("seed stats: %v", errSeed)
	}

	unlocked, updated, err := engine.UnlockMissing(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unlock missing: %v", err)
	}
	if len(unlocked) != 2 {
		t.Fatalf("expected 2 unlocks for 10 completed tasks, got %d", len(unlocked))
	}
	// 10 for the first task plus 50 for ten tasks.
	if updated.TotalPoints != 60 {
		t.Fatalf("expected total 60 after backfill, got %d", updated.TotalPoints)
	}

	again, _, errAgain := engine.UnlockMissing(context.Background(), user.ID)
	if errAgain != nil {
		t.Fatalf("second unlock missing: %v", errAgain)
	}
	if len(again) != 0 {
		t.Fatalf("expected no further unlocks, got %d", len(again))
	}
}

func TestProgress_PercentClamped(t *testing.T) {
	engine, conn := newTestEngine(t, "engine_progress")
	user := createTestUser(t, conn, "frank")

	if errSeed := conn.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"tasks_completed": 5,
	}).Error; errSeed != nil {
		t.Fatalf("seed stats: %v", errSeed)
	}

	progress, err := engine.Progress(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(progress) == 0 {
		t.Fatalf("expected progress entries for the catalog")
	}
	for _, entry := range progress {
		if entry.Percent < 0 || entry.Percent > 100 {
			t.Fatalf("percent out of range for %q: %d", entry.Achievement.Title, entry.Percent)
		}
		if entry.Achievement.Title == "Sur la lancée" && entry.Percent != 50 {
			t.Fatalf("expected 50%% toward 10 tasks at 5 completed, got %d", entry.Percent)
		}
	}
}
