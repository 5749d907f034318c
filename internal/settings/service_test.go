package settings

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"focustask/internal/apperr"
	"focustask/internal/db"
	"focustask/internal/models"
)

// recordingSender captures notification emails instead of sending them.
type recordingSender struct {
	mu       sync.Mutex
	enabled  []string
	disabled []string
	fail     bool
}

func (r *recordingSender) SendNotificationsEnabled(to, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errSendFailed
	}
	r.enabled = append(r.enabled, to)
	return nil
}

func (r *recordingSender) SendNotificationsDisabled(to, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errSendFailed
	}
	r.disabled = append(r.disabled, to)
	return nil
}

var errSendFailed = apperr.Validation("send failed")

func newTestService(t *testing.T, name string) (*Service, *recordingSender, *models.User) {
	t.Helper()
	conn, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	user := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", Level: 1}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	sender := &recordingSender{}
	return NewService(conn, sender), sender, &user
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestGet_CreatesDefaults(t *testing.T) {
	service, _, user := newTestService(t, "settings_defaults")

	settings, err := service.Get(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.Theme != "light" || settings.Language != "fr" || settings.Timezone != "Europe/Paris" {
		t.Fatalf("unexpected defaults %+v", settings)
	}
	if settings.DailyGoal != 5 || settings.DailyReminderTime != "09:00" {
		t.Fatalf("unexpected defaults %+v", settings)
	}
	if !settings.SoundEffects || settings.NotificationsEnabled || settings.EmailNotifications {
		t.Fatalf("unexpected toggle defaults %+v", settings)
	}

	again, errAgain := service.Get(context.Background(), user.ID)
	if errAgain != nil {
		t.Fatalf("second get: %v", errAgain)
	}
	if again.ID != settings.ID {
		t.Fatalf("expected same settings row, got %d and %d", settings.ID, again.ID)
	}
}

func TestUpdate_Validation(t *testing.T) {
	service, _, user := newTestService(t, "settings_validation")

	cases := []struct {
		name  string
		input UpdateInput
	}{
		{"bad time", UpdateInput{DailyReminderTime: strPtr("25:00")}},
		{"bad time format", UpdateInput{DailyReminderTime: strPtr("9h30")}},
		{"bad theme", UpdateInput{Theme: strPtr("solarized")}},
		{"bad language", UpdateInput{Language: strPtr("de")}},
		{"bad timezone", UpdateInput{Timezone: strPtr("Mars/Olympus")}},
		{"goal too low", UpdateInput{DailyGoal: intPtr(0)}},
		{"goal too high", UpdateInput{DailyGoal: intPtr(500)}},
	}
	for _, tc := range cases {
		_, err := service.Update(context.Background(), user, tc.input)
		appErr, ok := apperr.From(err)
		if !ok || appErr.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestUpdate_PartialUpdate(t *testing.T) {
	service, _, user := newTestService(t, "settings_partial")

	updated, err := service.Update(context.Background(), user, UpdateInput{
		Theme:     strPtr("dark"),
		DailyGoal: intPtr(8),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Theme != "dark" {
		t.Fatalf("expected theme dark, got %q", updated.Theme)
	}
	if updated.DailyGoal != 8 {
		t.Fatalf("expected goal 8, got %d", updated.DailyGoal)
	}
	// Untouched fields keep their values.
	if updated.Language != "fr" || updated.DailyReminderTime != "09:00" {
		t.Fatalf("expected untouched fields preserved, got %+v", updated)
	}
}

func TestUpdate_NotificationsToggleSendsOnce(t *testing.T) {
	service, sender, user := newTestService(t, "settings_email")

	if _, err := service.Update(context.Background(), user, UpdateInput{NotificationsEnabled: boolPtr(true)}); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if len(sender.enabled) != 1 || sender.enabled[0] != user.Email {
		t.Fatalf("expected one activation email, got %v", sender.enabled)
	}

	// Setting the same value again is not a toggle.
	if _, err := service.Update(context.Background(), user, UpdateInput{NotificationsEnabled: boolPtr(true)}); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	if len(sender.enabled) != 1 {
		t.Fatalf("expected no email on unchanged value, got %v", sender.enabled)
	}

	if _, err := service.Update(context.Background(), user, UpdateInput{NotificationsEnabled: boolPtr(false)}); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if len(sender.disabled) != 1 {
		t.Fatalf("expected one deactivation email, got %v", sender.disabled)
	}

	// The email-channel flag alone never triggers the confirmation.
	if _, err := service.Update(context.Background(), user, UpdateInput{EmailNotifications: boolPtr(true)}); err != nil {
		t.Fatalf("email channel: %v", err)
	}
	if len(sender.enabled) != 1 || len(sender.disabled) != 1 {
		t.Fatalf("expected no email for email_notifications change, got %v / %v", sender.enabled, sender.disabled)
	}
}

func TestUpdate_EmailFailureDoesNotFail(t *testing.T) {
	service, sender, user := newTestService(t, "settings_emailfail")
	sender.fail = true

	updated, err := service.Update(context.Background(), user, UpdateInput{NotificationsEnabled: boolPtr(true)})
	if err != nil {
		t.Fatalf("expected update to succeed despite send failure, got %v", err)
	}
	if !updated.NotificationsEnabled {
		t.Fatalf("expected notifications enabled")
	}
}
