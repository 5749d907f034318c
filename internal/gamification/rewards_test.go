package gamification

import (
	"context"
	"net/http"
	"testing"

	"focustask/internal/apperr"
	"focustask/internal/models"
)

func seedPoints(t *testing.T, engine *Engine, userID uint64, points int64) {
	t.Helper()
	if errSeed := engine.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"total_points":      points,
		"experience_points": points,
	}).Error; errSeed != nil {
		t.Fatalf("seed points: %v", errSeed)
	}
}

func findRewardByTitle(t *testing.T, engine *Engine, title string) *models.Reward {
	t.Helper()
	var reward models.Reward
	if errFind := engine.db.Where("title = ?", title).First(&reward).Error; errFind != nil {
		t.Fatalf("find reward %q: %v", title, errFind)
	}
	return &reward
}

func TestUnlockReward_InsufficientPoints(t *testing.T) {
	engine, conn := newTestEngine(t, "rewards_poor")
	user := createTestUser(t, conn, "gina")
	reward := findRewardByTitle(t, engine, "Thème sombre")

	_, err := engine.UnlockReward(context.Background(), user.ID, reward.ID)
	appErr, ok := apperr.From(err)
	if !ok || appErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUnlockReward_NoDeductionAndNoDuplicate(t *testing.T) {
	engine, conn := newTestEngine(t, "rewards_unlock")
	user := createTestUser(t, conn, "hugo")
	seedPoints(t, engine, user.ID, 150)
	reward := findRewardByTitle(t, engine, "Thème sombre")

	unlocked, err := engine.UnlockReward(context.Background(), user.ID, reward.ID)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if unlocked.ID != reward.ID {
		t.Fatalf("expected reward %d, got %d", reward.ID, unlocked.ID)
	}

	var storedUser models.User
	if errFind := conn.First(&storedUser, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if storedUser.TotalPoints != 150 {
		t.Fatalf("expected points untouched at 150, got %d", storedUser.TotalPoints)
	}

	_, errAgain := engine.UnlockReward(context.Background(), user.ID, reward.ID)
	appErr, ok := apperr.From(errAgain)
	if !ok || appErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict on duplicate unlock, got %v", errAgain)
	}
}

func TestUnlockReward_NotFound(t *testing.T) {
	engine, conn := newTestEngine(t, "rewards_missing")
	user := createTestUser(t, conn, "iris")

	_, err := engine.UnlockReward(context.Background(), user.ID, 999999)
	appErr, ok := apperr.From(err)
	if !ok || appErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAvailableRewards_ExcludesUnlockedAndUnaffordable(t *testing.T) {
	engine, conn := newTestEngine(t, "rewards_available")
	user := createTestUser(t, conn, "jack")
	seedPoints(t, engine, user.ID, 300)

	available, err := engine.AvailableRewards(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	// 100 and 250 point rewards are affordable at 300.
	if len(available) != 2 {
		t.Fatalf("expected 2 affordable rewards, got %d", len(available))
	}

	if _, errUnlock := engine.UnlockReward(context.Background(), user.ID, available[0].ID); errUnlock != nil {
		t.Fatalf("unlock: %v", errUnlock)
	}
	remaining, errRemaining := engine.AvailableRewards(context.Background(), user.ID)
	if errRemaining != nil {
		t.Fatalf("available after unlock: %v", errRemaining)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining reward, got %d", len(remaining))
	}
}

func TestUnlockByPoints_UnlocksAllAffordable(t *testing.T) {
	engine, conn := newTestEngine(t, "rewards_bulk")
	user := createTestUser(t, conn, "kate")
	seedPoints(t, engine, user.ID, 600)

	unlocked, err := engine.UnlockByPoints(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unlock by points: %v", err)
	}
	// 100, 250 and 500 point rewards are affordable at 600.
	if len(unlocked) != 3 {
		t.Fatalf("expected 3 unlocks, got %d", len(unlocked))
	}

	again, errAgain := engine.UnlockByPoints(context.Background(), user.ID)
	if errAgain != nil {
		t.Fatalf("second unlock by points: %v", errAgain)
	}
	if len(again) != 0 {
		t.Fatalf("expected no further unlocks, got %d", len(again))
	}
}

func TestStats_CountsAndPercent(t *testing.T) {
	engine, conn := newTestEngine(t, "rewards_stats")
	user := createTestUser(t, conn, "liam")
	seedPoints(t, engine, user.ID, 150)
	reward := findRewardByTitle(t, engine, "Thème sombre")
	if _, errUnlock := engine.UnlockReward(context.Background(), user.ID, reward.ID); errUnlock != nil {
		t.Fatalf("unlock: %v", errUnlock)
	}

	stats, err := engine.Stats(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total == 0 {
		t.Fatalf("expected catalog rewards")
	}
	if stats.Unlocked != 1 {
		t.Fatalf("expected 1 unlocked, got %d", stats.Unlocked)
	}
	if stats.Percent != int(1*100/stats.Total) {
		t.Fatalf("unexpected percent %d", stats.Percent)
	}

	var themeStat *CategoryStat
	for i := range stats.Categories {
		if stats.Categories[i].Category == "theme" {
			themeStat = &stats.Categories[i]
		}
	}
	if themeStat == nil {
		t.Fatalf("expected theme category stat")
	}
	if themeStat.Total != 2 || themeStat.Unlocked != 1 {
		t.Fatalf("unexpected theme stat %+v", *themeStat)
	}
}

func TestRewardsByCategory(t *testing.T) {
	engine, _ := newTestEngine(t, "rewards_category")

	themes, err := engine.RewardsByCategory(context.Background(), "theme")
	if err != nil {
		t.Fatalf("by category: %v", err)
	}
	if len(themes) != 2 {
		t.Fatalf("expected 2 theme rewards, got %d", len(themes))
	}
	if themes[0].PointsRequired > themes[1].PointsRequired {
		t.Fatalf("expected ascending points order")
	}
}
