// Package users implements account management, authentication and the
// public leaderboard.
package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"focustask/internal/apperr"
	"focustask/internal/cache"
	"focustask/internal/db"
	"focustask/internal/gamification"
	"focustask/internal/models"
	"focustask/internal/security"
	"focustask/internal/settings"
)

// Input validation patterns.
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// Leaderboard pagination bounds.
const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 100
	leaderboardCacheTTL     = 30 * time.Second
)

// Service manages user accounts.
type Service struct {
	db     *gorm.DB
	issuer *security.TokenIssuer
	cache  *cache.Cache
}

// NewService builds a user service. The cache may be nil.
func NewService(conn *gorm.DB, issuer *security.TokenIssuer, cache *cache.Cache) *Service {
	return &Service{db: conn, issuer: issuer, cache: cache}
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a user with default settings and returns a signed token.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !usernamePattern.MatchString(username) {
		return nil, "", apperr.Validation("le nom d'utilisateur doit contenir 3 à 30 caractères alphanumériques")
	}
	if !emailPattern.MatchString(email) {
		return nil, "", apperr.Validation("adresse email invalide")
	}
	if len(input.Password) < minPasswordLength {
		return nil, "", apperr.Validation("le mot de passe doit contenir au moins 8 caractères")
	}

	hashed, errHash := security.HashPassword(input.Password)
	if errHash != nil {
		return nil, "", errHash
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Level:        1,
	}
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&user).Error; errCreate != nil {
			if db.IsUniqueViolation(errCreate) {
				return apperr.Conflict("nom d'utilisateur ou email déjà utilisé")
			}
			return fmt.Errorf("users: create: %w", errCreate)
		}
		return settings.EnsureDefaults(tx, user.ID)
	})
	if errTx != nil {
		return nil, "", errTx
	}

	token, errSign := s.issuer.Sign(user.ID, user.Username)
	if errSign != nil {
		return nil, "", errSign
	}
	log.WithFields(log.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return &user, token, nil
}

// Login authenticates by username or email and returns a signed token.
func (s *Service) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, "", apperr.Validation("identifiant et mot de passe requis")
	}

	var user models.User
	errFind := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, "", apperr.Authentication("identifiants invalides")
		}
		return nil, "", fmt.Errorf("users: lookup %q: %w", identifier, errFind)
	}
	if !security.CheckPassword(user.PasswordHash, password) {
		return nil, "", apperr.Authentication("identifiants invalides")
	}

	token, errSign := s.issuer.Sign(user.ID, user.Username)
	if errSign != nil {
		return nil, "", errSign
	}
	return &user, token, nil
}

// GetByID returns a user by primary key.
func (s *Service) GetByID(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("utilisateur introuvable")
		}
		return nil, fmt.Errorf("users: load %d: %w", userID, errFind)
	}
	return &user, nil
}

// UpdateProfileInput carries the updatable profile fields.
type UpdateProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	PhotoURL  *string `json:"photo_url"`
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, userID uint64, input UpdateProfileInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.PhotoURL != nil {
		updates["photo_url"] = strings.TrimSpace(*input.PhotoURL)
	}
	if len(updates) > 0 {
		if errUpdate := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", userID).
			Updates(updates).Error; errUpdate != nil {
			return nil, fmt.Errorf("users: update profile %d: %w", userID, errUpdate)
		}
	}
	return s.GetByID(ctx, userID)
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uint64, current, next string) error {
	if len(next) < minPasswordLength {
		return apperr.Validation("le mot de passe doit contenir au moins 8 caractères")
	}

	user, errGet := s.GetByID(ctx, userID)
	if errGet != nil {
		return errGet
	}
	if !security.CheckPassword(user.PasswordHash, current) {
		return apperr.Authentication("mot de passe actuel incorrect")
	}

	hashed, errHash := security.HashPassword(next)
	if errHash != nil {
		return errHash
	}
	if errUpdate := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", hashed).Error; errUpdate != nil {
		return fmt.Errorf("users: change password %d: %w", userID, errUpdate)
	}
	return nil
}

// DeleteAccount verifies the password and removes the user with all owned
// rows: tasks, settings, achievement and reward unlocks.
func (s *Service) DeleteAccount(ctx context.Context, userID uint64, password string) error {
	user, errGet := s.GetByID(ctx, userID)
	if errGet != nil {
		return errGet
	}
	if !security.CheckPassword(user.PasswordHash, password) {
		return apperr.Authentication("mot de passe incorrect")
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errDelete := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Task{}).Error; errDelete != nil {
			return fmt.Errorf("users: delete tasks for %d: %w", userID, errDelete)
		}
		if errDelete := tx.Where("user_id = ?", userID).Delete(&models.Settings{}).Error; errDelete != nil {
			return fmt.Errorf("users: delete settings for %d: %w", userID, errDelete)
		}
		if errDelete := tx.Where("user_id = ?", userID).Delete(&models.UserAchievement{}).Error; errDelete != nil {
			return fmt.Errorf("users: delete achievements for %d: %w", userID, errDelete)
		}
		if errDelete := tx.Where("user_id = ?", userID).Delete(&models.UserReward{}).Error; errDelete != nil {
			return fmt.Errorf("users: delete rewards for %d: %w", userID, errDelete)
		}
		if errDelete := tx.Delete(&models.User{}, userID).Error; errDelete != nil {
			return fmt.Errorf("users: delete %d: %w", userID, errDelete)
		}
		return nil
	})
	if errTx != nil {
		return errTx
	}
	log.WithField("user_id", userID).Info("account deleted")
	return nil
}

// LeaderboardEntry is one row of the public ranking.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         uint64 `json:"user_id"`
	Username       string `json:"username"`
	PhotoURL       string `json:"photo_url,omitempty"`
	Level          int    `json:"level"`
	TotalPoints    int64  `json:"total_points"`
	TasksCompleted int64  `json:"tasks_completed"`
	CurrentStreak  int    `json:"current_streak"`
}

// LeaderboardOptions filters and paginates the ranking.
type LeaderboardOptions struct {
	Search string // Optional username filter.
	Limit  int    // Page size; clamped to [1, 100], default 50.
	Offset int    // Rows to skip.
}

// Leaderboard ranks users by total points. Unfiltered first pages are
// served from the cache when one is configured.
func (s *Service) Leaderboard(ctx context.Context, opts LeaderboardOptions) ([]LeaderboardEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	search := strings.TrimSpace(opts.Search)

	cacheable := search == "" && offset == 0 && limit == defaultLeaderboardLimit
	cacheKey := "leaderboard:first"
	if cacheable {
		var cached []LeaderboardEntry
		if hit, errGet := s.cache.Get(ctx, cacheKey, &cached); errGet != nil {
			log.WithError(errGet).Warn("leaderboard cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		query = query.Where(
			db.CaseInsensitiveLikeExpr(s.db, "username"),
			db.NormalizeLikePattern(s.db, "%"+search+"%"),
		)
	}

	var rows []models.User
	if errFind := query.
		Order("total_points DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("users: leaderboard: %w", errFind)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:           offset + i + 1,
			UserID:         row.ID,
			Username:       row.Username,
			PhotoURL:       row.PhotoURL,
			Level:          row.Level,
			TotalPoints:    row.TotalPoints,
			TasksCompleted: row.TasksCompleted,
			CurrentStreak:  row.CurrentStreak,
		})
	}

	if cacheable {
		if errSet := s.cache.Set(ctx, cacheKey, entries, leaderboardCacheTTL); errSet != nil {
			log.WithError(errSet).Warn("leaderboard cache write failed")
		}
	}
	return entries, nil
}

// ProfileStats summarizes a user's gamification state for profile views.
type ProfileStats struct {
	Level             int   `json:"level"`
	ExperiencePoints  int64 `json:"experience_points"`
	ExperiencePercent int   `json:"experience_percent"`
	NextLevelXP       int64 `json:"next_level_xp"`
	TotalPoints       int64 `json:"total_points"`
	TasksCompleted    int64 `json:"tasks_completed"`
	CurrentStreak     int   `json:"current_streak"`
}

// StatsFor derives profile statistics from a user row.
func StatsFor(user *models.User) ProfileStats {
	return ProfileStats{
		Level:             user.Level,
		ExperiencePoints:  user.ExperiencePoints,
		ExperiencePercent: gamification.ProgressPercent(user.ExperiencePoints),
		NextLevelXP:       gamification.XPForLevel(user.Level + 1),
		TotalPoints:       user.TotalPoints,
		TasksCompleted:    user.TasksCompleted,
		CurrentStreak:     user.CurrentStreak,
	}
}
