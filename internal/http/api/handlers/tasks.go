package handlers

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"focustask/internal/apperr"
	"focustask/internal/tasks"
)

// dateParam matches a YYYY-MM-DD path value.
var dateParam = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// TaskHandler manages task lifecycle endpoints.
type TaskHandler struct {
	tasks *tasks.Service
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(tasks *tasks.Service) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// parseTaskID reads the :id path parameter.
func parseTaskID(c *gin.Context) (uint64, error) {
	taskID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || taskID == 0 {
		return 0, apperr.Validation("identifiant de tâche invalide")
	}
	return taskID, nil
}

// Create adds a new pending task.
func (h *TaskHandler) Create(c *gin.Context) {
	var body tasks.CreateInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		BindError(c, errBind)
		return
	}

	task, errCreate := h.tasks.Create(c.Request.Context(), CurrentUserID(c), body)
	if errCreate != nil {
		Error(c, errCreate)
		return
	}
	SuccessMessage(c, http.StatusCreated, gin.H{"task": taskJSON(task)}, "tâche créée")
}

// List returns the user's tasks with optional status filter and pagination.
func (h *TaskHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	list, total, errList := h.tasks.List(c.Request.Context(), CurrentUserID(c), tasks.ListOptions{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if errList != nil {
		Error(c, errList)
		return
	}
	Success(c, http.StatusOK, gin.H{
		"tasks": taskListJSON(list),
		"total": total,
	})
}

// Today returns the tasks scheduled for the current day.
func (h *TaskHandler) Today(c *gin.Context) {
	list, errList := h.tasks.Today(c.Request.Context(), CurrentUserID(c))
	if errList != nil {
		Error(c, errList)
		return
	}
	Success(c, http.StatusOK, gin.H{"tasks": taskListJSON(list)})
}

// byDate returns the tasks scheduled on the given day.
func (h *TaskHandler) byDate(c *gin.Context, date string) {
	list, errList := h.tasks.ForDate(c.Request.Context(), CurrentUserID(c), date)
	if errList != nil {
		Error(c, errList)
		return
	}
	Success(c, http.StatusOK, gin.H{"tasks": taskListJSON(list)})
}

// Get returns a single task. A YYYY-MM-DD path value lists that day's tasks
// instead, since both shapes share the same route segment.
func (h *TaskHandler) Get(c *gin.Context) {
	if raw := c.Param("id"); dateParam.MatchString(raw) {
		h.byDate(c, raw)
		return
	}

	taskID, errID := parseTaskID(c)
	if errID != nil {
		Error(c, errID)
		return
	}

	task, errGet := h.tasks.Get(c.Request.Context(), CurrentUserID(c), taskID)
	if errGet != nil {
		Error(c, errGet)
		return
	}
	Success(c, http.StatusOK, gin.H{"task": taskJSON(task)})
}

// Update applies a partial task update.
func (h *TaskHandler) Update(c *gin.Context) {
	taskID, errID := parseTaskID(c)
	if errID != nil {
		Error(c, errID)
		return
	}
	var body tasks.UpdateInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		BindError(c, errBind)
		return
	}

	task, errUpdate := h.tasks.Update(c.Request.Context(), CurrentUserID(c), taskID, body)
	if errUpdate != nil {
		Error(c, errUpdate)
		return
	}
	SuccessMessage(c, http.StatusOK, gin.H{"task": taskJSON(task)}, "tâche mise à jour")
}

// Complete marks a task completed and returns the gamification effects.
func (h *TaskHandler) Complete(c *gin.Context) {
	taskID, errID := parseTaskID(c)
	if errID != nil {
		Error(c, errID)
		return
	}

	task, result, errComplete := h.tasks.Complete(c.Request.Context(), CurrentUserID(c), taskID)
	if errComplete != nil {
		Error(c, errComplete)
		return
	}
	SuccessMessage(c, http.StatusOK, gin.H{
		"task": taskJSON(task),
		"gamification": gin.H{
			"points_earned":         result.PointsEarned,
			"total_points":          result.TotalPoints,
			"experience_points":     result.ExperiencePoints,
			"level":                 result.Level,
			"leveled_up":            result.LeveledUp,
			"current_streak":        result.CurrentStreak,
			"unlocked_achievements": achievementListJSON(result.UnlockedAchievements),
		},
	}, "tâche terminée")
}

// Delete removes a task.
func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, errID := parseTaskID(c)
	if errID != nil {
		Error(c, errID)
		return
	}

	if errDelete := h.tasks.Delete(c.Request.Context(), CurrentUserID(c), taskID); errDelete != nil {
		Error(c, errDelete)
		return
	}
	SuccessMessage(c, http.StatusOK, nil, "tâche supprimée")
}
