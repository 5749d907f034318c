package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustask/internal/models"
	"focustask/internal/settings"
)

// SettingsHandler manages user preference endpoints.
type SettingsHandler struct {
	settings *settings.Service
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(settings *settings.Service) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// settingsJSON serializes a settings row.
func settingsJSON(row *models.Settings) gin.H {
	return gin.H{
		"notifications_enabled": row.NotificationsEnabled,
		"email_notifications":   row.EmailNotifications,
		"sound_effects":         row.SoundEffects,
		"daily_reminder_time":   row.DailyReminderTime,
		"theme":                 row.Theme,
		"language":              row.Language,
		"timezone":              row.Timezone,
		"daily_goal":            row.DailyGoal,
		"updated_at":            row.UpdatedAt,
	}
}

// Get returns the user's settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	row, errGet := h.settings.Get(c.Request.Context(), CurrentUserID(c))
	if errGet != nil {
		Error(c, errGet)
		return
	}
	Success(c, http.StatusOK, gin.H{"settings": settingsJSON(row)})
}

// Update applies a partial settings update.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body settings.UpdateInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		BindError(c, errBind)
		return
	}

	row, errUpdate := h.settings.Update(c.Request.Context(), CurrentUser(c), body)
	if errUpdate != nil {
		Error(c, errUpdate)
		return
	}
	SuccessMessage(c, http.StatusOK, gin.H{"settings": settingsJSON(row)}, "préférences mises à jour")
}
