package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"focustask/internal/models"
	"focustask/internal/users"
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// statsJSON serializes the gamification stats derived from a user row.
func statsJSON(user *models.User) users.ProfileStats {
	return users.StatsFor(user)
}

// userJSON serializes a user for API responses. The password hash never
// leaves the database layer.
func userJSON(user *models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"photo_url":  user.PhotoURL,
		"stats":      users.StatsFor(user),
		"created_at": user.CreatedAt,
	}
}

// publicUserJSON serializes a user for views visible to other users.
func publicUserJSON(user *models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"username":  user.Username,
		"photo_url": user.PhotoURL,
		"stats":     users.StatsFor(user),
	}
}

// taskJSON serializes a task. The scheduled date is emitted as YYYY-MM-DD.
func taskJSON(task *models.Task) gin.H {
	var completedAt interface{}
	if task.CompletedAt != nil {
		completedAt = task.CompletedAt.UTC()
	}
	return gin.H{
		"id":            task.ID,
		"user_id":       task.UserID,
		"name":          task.Name,
		"description":   task.Description,
		"difficulty":    task.Difficulty,
		"date":          time.Time(task.Date).Format(dateLayout),
		"status":        task.Status,
		"completed_at":  completedAt,
		"points_earned": task.PointsEarned,
		"created_at":    task.CreatedAt,
		"updated_at":    task.UpdatedAt,
	}
}

// taskListJSON serializes a slice of tasks.
func taskListJSON(tasks []models.Task) []gin.H {
	out := make([]gin.H, 0, len(tasks))
	for i := range tasks {
		out = append(out, taskJSON(&tasks[i]))
	}
	return out
}

// achievementJSON serializes a catalog achievement.
func achievementJSON(achievement *models.Achievement) gin.H {
	return gin.H{
		"id":              achievement.ID,
		"title":           achievement.Title,
		"description":     achievement.Description,
		"icon":            achievement.Icon,
		"condition_type":  achievement.ConditionType,
		"condition_value": achievement.ConditionValue,
		"points_reward":   achievement.PointsReward,
	}
}

// achievementListJSON serializes a slice of catalog achievements.
func achievementListJSON(achievements []models.Achievement) []gin.H {
	out := make([]gin.H, 0, len(achievements))
	for i := range achievements {
		out = append(out, achievementJSON(&achievements[i]))
	}
	return out
}

// rewardJSON serializes a catalog reward.
func rewardJSON(reward *models.Reward) gin.H {
	return gin.H{
		"id":              reward.ID,
		"title":           reward.Title,
		"description":     reward.Description,
		"icon":            reward.Icon,
		"category":        reward.Category,
		"points_required": reward.PointsRequired,
	}
}

// rewardListJSON serializes a slice of catalog rewards.
func rewardListJSON(rewards []models.Reward) []gin.H {
	out := make([]gin.H, 0, len(rewards))
	for i := range rewards {
		out = append(out, rewardJSON(&rewards[i]))
	}
	return out
}
