// Package settings manages per-user preferences and their side effects.
package settings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"focustask/internal/apperr"
	"focustask/internal/mailer"
	"focustask/internal/models"
)

// reminderTimePattern matches 24-hour HH:MM times.
var reminderTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Themes accepted by the UI.
var allowedThemes = map[string]bool{"light": true, "dark": true, "auto": true}

// Languages accepted by the UI.
var allowedLanguages = map[string]bool{"fr": true, "en": true}

// Service reads and updates user settings.
type Service struct {
	db     *gorm.DB
	sender mailer.Sender
}

// NewService builds a settings service.
func NewService(db *gorm.DB, sender mailer.Sender) *Service {
	return &Service{db: db, sender: sender}
}

// Get returns the user's settings, creating the default row when missing.
func (s *Service) Get(ctx context.Context, userID uint64) (*models.Settings, error) {
	var settings models.Settings
	errFind := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errFind == nil {
		return &settings, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("settings: load for user %d: %w", userID, errFind)
	}

	settings = defaultSettings(userID)
	if errCreate := s.db.WithContext(ctx).Create(&settings).Error; errCreate != nil {
		return nil, fmt.Errorf("settings: create defaults for user %d: %w", userID, errCreate)
	}
	return &settings, nil
}

// defaultSettings returns the settings row created at registration.
func defaultSettings(userID uint64) models.Settings {
	return models.Settings{
		UserID:            userID,
		SoundEffects:      true,
		DailyReminderTime: "09:00",
		Theme:             "light",
		Language:          "fr",
		Timezone:          "Europe/Paris",
		DailyGoal:         5,
	}
}

// EnsureDefaults creates the default settings row for a new user.
func EnsureDefaults(tx *gorm.DB, userID uint64) error {
	settings := defaultSettings(userID)
	if errCreate := tx.Create(&settings).Error; errCreate != nil {
		return fmt.Errorf("settings: seed defaults for user %d: %w", userID, errCreate)
	}
	return nil
}

// UpdateInput carries the updatable settings fields. Nil fields are left
// untouched; unknown request fields are dropped at binding time.
type UpdateInput struct {
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	EmailNotifications   *bool   `json:"email_notifications"`
	SoundEffects         *bool   `json:"sound_effects"`
	DailyReminderTime    *string `json:"daily_reminder_time"`
	Theme                *string `json:"theme"`
	Language             *string `json:"language"`
	Timezone             *string `json:"timezone"`
	DailyGoal            *int    `json:"daily_goal"`
}

// Update applies a partial settings update. Toggling notifications sends
// a confirmation email as a best-effort side effect; delivery failures
// are logged, never surfaced.
func (s *Service) Update(ctx context.Context, user *models.User, input UpdateInput) (*models.Settings, error) {
	if input.DailyReminderTime != nil && !reminderTimePattern.MatchString(*input.DailyReminderTime) {
		return nil, apperr.Validation("l'heure de rappel doit être au format HH:MM")
	}
	if input.Theme != nil && !allowedThemes[*input.Theme] {
		return nil, apperr.Validation("le thème doit être light, dark ou auto")
	}
	if input.Language != nil && !allowedLanguages[*input.Language] {
		return nil, apperr.Validation("la langue doit être fr ou en")
	}
	if input.Timezone != nil {
		if _, errZone := time.LoadLocation(*input.Timezone); errZone != nil {
			return nil, apperr.Validation("fuseau horaire invalide")
		}
	}
	if input.DailyGoal != nil && (*input.DailyGoal < 1 || *input.DailyGoal > 100) {
		return nil, apperr.Validation("l'objectif quotidien doit être entre 1 et 100")
	}

	current, errGet := s.Get(ctx, user.ID)
	if errGet != nil {
		return nil, errGet
	}

	updates := map[string]interface{}{}
	if input.NotificationsEnabled != nil {
		updates["notifications_enabled"] = *input.NotificationsEnabled
	}
	if input.EmailNotifications != nil {
		updates["email_notifications"] = *input.EmailNotifications
	}
	if input.SoundEffects != nil {
		updates["sound_effects"] = *input.SoundEffects
	}
	if input.DailyReminderTime != nil {
		updates["daily_reminder_time"] = *input.DailyReminderTime
	}
	if input.Theme != nil {
		updates["theme"] = *input.Theme
	}
	if input.Language != nil {
		updates["language"] = *input.Language
	}
	if input.Timezone != nil {
		updates["timezone"] = *input.Timezone
	}
	if input.DailyGoal != nil {
		updates["daily_goal"] = *input.DailyGoal
	}
	if len(updates) == 0 {
		return current, nil
	}

	if errUpdate := s.db.WithContext(ctx).Model(&models.Settings{}).
		Where("user_id = ?", user.ID).
		Updates(updates).Error; errUpdate != nil {
		return nil, fmt.Errorf("settings: update for user %d: %w", user.ID, errUpdate)
	}

	notificationsToggled := input.NotificationsEnabled != nil && *input.NotificationsEnabled != current.NotificationsEnabled
	if notificationsToggled {
		s.notifyEmailToggle(user, *input.NotificationsEnabled)
	}

	return s.Get(ctx, user.ID)
}

// notifyEmailToggle sends the activation or deactivation confirmation.
func (s *Service) notifyEmailToggle(user *models.User, enabled bool) {
	var errSend error
	if enabled {
		errSend = s.sender.SendNotificationsEnabled(user.Email, user.Username)
	} else {
		errSend = s.sender.SendNotificationsDisabled(user.Email, user.Username)
	}
	if errSend != nil {
		log.WithError(errSend).WithField("user_id", user.ID).Warn("failed to send notification email")
	}
}
