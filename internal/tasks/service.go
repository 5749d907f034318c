// Package tasks implements task lifecycle operations for authenticated users.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"focustask/internal/apperr"
	"focustask/internal/gamification"
	"focustask/internal/models"
)

// List pagination bounds.
const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// datePattern matches calendar dates in YYYY-MM-DD form.
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Service coordinates task persistence with the gamification engine.
type Service struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewService builds a task service.
func NewService(db *gorm.DB, engine *gamification.Engine) *Service {
	return &Service{db: db, engine: engine}
}

// CreateInput carries the fields accepted when creating a task.
type CreateInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty" binding:"required"`
	Date        string `json:"date" binding:"required"`
}

// UpdateInput carries the fields accepted when updating a task. Nil fields
// are left untouched.
type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Difficulty  *string `json:"difficulty"`
	Date        *string `json:"date"`
	Status      *string `json:"status"`
}

// statusOnly reports whether the update touches nothing but the status.
func (input UpdateInput) statusOnly() bool {
	return input.Name == nil && input.Description == nil && input.Difficulty == nil && input.Date == nil
}

// parseDate validates and parses a YYYY-MM-DD date string.
func parseDate(raw string) (time.Time, error) {
	if !datePattern.MatchString(raw) {
		return time.Time{}, apperr.Validation("la date doit être au format YYYY-MM-DD")
	}
	parsed, errParse := time.Parse("2006-01-02", raw)
	if errParse != nil {
		return time.Time{}, apperr.Validation("la date doit être au format YYYY-MM-DD")
	}
	return parsed, nil
}

// Create validates the input and persists a new pending task.
func (s *Service) Create(ctx context.Context, userID uint64, input CreateInput) (*models.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("le nom de la tâche est requis")
	}
	if !models.ValidDifficulty(input.Difficulty) {
		return nil, apperr.Validation("la difficulté doit être facile, moyen ou difficile")
	}
	date, errDate := parseDate(input.Date)
	if errDate != nil {
		return nil, errDate
	}

	task := models.Task{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Difficulty:  input.Difficulty,
		Date:        datatypes.Date(date),
		Status:      models.StatusPending,
	}
	if errCreate := s.db.WithContext(ctx).Create(&task).Error; errCreate != nil {
		return nil, fmt.Errorf("tasks: create: %w", errCreate)
	}
	return &task, nil
}

// Get returns a task owned by the user.
func (s *Service) Get(ctx context.Context, userID, taskID uint64) (*models.Task, error) {
	return s.findOwned(ctx, s.db, userID, taskID)
}

// findOwned loads a task and checks its owner. Absent or soft-deleted
// tasks are not found; tasks held by another user are forbidden.
func (s *Service) findOwned(ctx context.Context, conn *gorm.DB, userID, taskID uint64) (*models.Task, error) {
	var task models.Task
	errFind := conn.WithContext(ctx).First(&task, taskID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("tâche introuvable")
		}
		return nil, fmt.Errorf("tasks: load task %d: %w", taskID, errFind)
	}
	if task.UserID != userID {
		return nil, apperr.Forbidden("accès refusé")
	}
	return &task, nil
}

// ListOptions filters and paginates task listings.
type ListOptions struct {
	Status string // Optional lifecycle filter.
	Limit  int    // Page size; clamped to [1, 100], default 50.
	Offset int    // Rows to skip; negative values are treated as zero.
}

// List returns the user's tasks plus the total row count before pagination.
func (s *Service) List(ctx context.Context, userID uint64, opts ListOptions) ([]models.Task, int64, error) {
	if opts.Status != "" && !models.ValidStatus(opts.Status) {
		return nil, 0, apperr.Validation("le statut doit être pending, in_progress ou completed")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.WithContext(ctx).Model(&models.Task{}).Where("user_id = ?", userID)
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		return nil, 0, fmt.Errorf("tasks: count: %w", errCount)
	}

	var list []models.Task
	if errFind := query.
		Order("date DESC, created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; errFind != nil {
		return nil, 0, fmt.Errorf("tasks: list: %w", errFind)
	}
	return list, total, nil
}

// ForDate returns the user's tasks scheduled on a specific day.
func (s *Service) ForDate(ctx context.Context, userID uint64, rawDate string) ([]models.Task, error) {
	date, errDate := parseDate(rawDate)
	if errDate != nil {
		return nil, errDate
	}

	var list []models.Task
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, datatypes.Date(date)).
		Order("created_at ASC, id ASC").
		Find(&list).Error; errFind != nil {
		return nil, fmt.Errorf("tasks: list for date: %w", errFind)
	}
	return list, nil
}

// Today returns the user's tasks scheduled for the current day.
func (s *Service) Today(ctx context.Context, userID uint64) ([]models.Task, error) {
	return s.ForDate(ctx, userID, time.Now().UTC().Format("2006-01-02"))
}

// Update applies a partial update. Completed tasks are frozen except for
// status-only updates, which may roll the task back to an earlier state.
// Rolling back clears the completion timestamp but never reverses points
// already awarded.
func (s *Service) Update(ctx context.Context, userID, taskID uint64, input UpdateInput) (*models.Task, error) {
	if input.Difficulty != nil && !models.ValidDifficulty(*input.Difficulty) {
		return nil, apperr.Validation("la difficulté doit être facile, moyen ou difficile")
	}
	if input.Status != nil && !models.ValidStatus(*input.Status) {
		return nil, apperr.Validation("le statut doit être pending, in_progress ou completed")
	}
	var date *time.Time
	if input.Date != nil {
		parsed, errDate := parseDate(*input.Date)
		if errDate != nil {
			return nil, errDate
		}
		date = &parsed
	}

	var updated *models.Task
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, errFind := s.findOwned(ctx, tx, userID, taskID)
		if errFind != nil {
			return errFind
		}

		if task.Status == models.StatusCompleted && !input.statusOnly() {
			return apperr.Conflict("une tâche terminée ne peut plus être modifiée")
		}

		completing := input.Status != nil && *input.Status == models.StatusCompleted && task.Status != models.StatusCompleted

		updates := map[string]interface{}{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return apperr.Validation("le nom de la tâche est requis")
			}
			updates["name"] = name
		}
		if input.Description != nil {
			updates["description"] = strings.TrimSpace(*input.Description)
		}
		if input.Difficulty != nil {
			updates["difficulty"] = *input.Difficulty
		}
		if date != nil {
			updates["date"] = datatypes.Date(*date)
		}
		if input.Status != nil && !completing && *input.Status != task.Status {
			updates["status"] = *input.Status
			if task.Status == models.StatusCompleted {
				updates["completed_at"] = nil
			}
		}

		// Field edits land before the completion so the award reflects
		// the final difficulty.
		if len(updates) > 0 {
			if errUpdate := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; errUpdate != nil {
				return fmt.Errorf("tasks: update %d: %w", task.ID, errUpdate)
			}
			reloaded, errReload := s.findOwned(ctx, tx, userID, taskID)
			if errReload != nil {
				return errReload
			}
			task = reloaded
		}

		if completing {
			if _, errApply := s.engine.ApplyTaskCompletion(ctx, tx, task, time.Now()); errApply != nil {
				return errApply
			}
		}
		updated = task
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return updated, nil
}

// Complete marks a pending or in-progress task completed and applies the
// gamification effects. Completing an already-completed task conflicts.
func (s *Service) Complete(ctx context.Context, userID, taskID uint64) (*models.Task, *gamification.CompletionResult, error) {
	var task *models.Task
	var result *gamification.CompletionResult
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, errFind := s.findOwned(ctx, tx, userID, taskID)
		if errFind != nil {
			return errFind
		}
		if loaded.Status == models.StatusCompleted {
			return apperr.Conflict("cette tâche est déjà terminée")
		}

		applied, errApply := s.engine.ApplyTaskCompletion(ctx, tx, loaded, time.Now())
		if errApply != nil {
			return errApply
		}
		task = loaded
		result = applied
		return nil
	})
	if errTx != nil {
		return nil, nil, errTx
	}
	return task, result, nil
}

// Delete soft-deletes a task owned by the user.
func (s *Service) Delete(ctx context.Context, userID, taskID uint64) error {
	task, errFind := s.findOwned(ctx, s.db, userID, taskID)
	if errFind != nil {
		return errFind
	}
	if errDelete := s.db.WithContext(ctx).Delete(task).Error; errDelete != nil {
		return fmt.Errorf("tasks: delete %d: %w", taskID, errDelete)
	}
	return nil
}
