package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"focustask/internal/models"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// autoMigrate applies the shared schema for all dialects.
func autoMigrate(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Reward{},
		&models.UserReward{},
		&models.Settings{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}

// ddl defines an index or DDL statement to apply.
type ddl struct {
	name string // Human-readable name for error reporting.
	sql  string // SQL to execute.
}

// applyDDLs executes each statement, wrapping failures with the statement name.
func applyDDLs(conn *gorm.DB, ddls []ddl) error {
	for _, stmt := range ddls {
		if errExec := conn.Exec(stmt.sql).Error; errExec != nil {
			return fmt.Errorf("db: apply %s: %w", stmt.name, errExec)
		}
	}
	return nil
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := autoMigrate(conn); errAutoMigrate != nil {
		return errAutoMigrate
	}

	ddls := []ddl{
		{
			name: "idx_tasks_user_date",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_tasks_user_date
				ON tasks (user_id, date)
			`,
		},
		{
			name: "idx_tasks_user_status",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_tasks_user_status
				ON tasks (user_id, status)
				WHERE deleted_at IS NULL
			`,
		},
		{
			name: "idx_users_leaderboard",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_users_leaderboard
				ON users (total_points DESC, id ASC)
			`,
		},
		{
			name: "idx_user_achievements_user_unlocked",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_user_achievements_user_unlocked
				ON user_achievements (user_id, unlocked_at DESC)
			`,
		},
		{
			name: "idx_user_rewards_user_unlocked",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_user_rewards_user_unlocked
				ON user_rewards (user_id, unlocked_at DESC)
			`,
		},
	}
	if errDDL := applyDDLs(conn, ddls); errDDL != nil {
		return errDDL
	}

	return seedCatalogs(conn)
}

// migrateSQLite applies SQLite-specific schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := autoMigrate(conn); errAutoMigrate != nil {
		return errAutoMigrate
	}

	ddls := []ddl{
		{
			name: "idx_tasks_user_date",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_tasks_user_date
				ON tasks (user_id, date)
			`,
		},
		{
			name: "idx_tasks_user_status",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_tasks_user_status
				ON tasks (user_id, status)
				WHERE deleted_at IS NULL
			`,
		},
		{
			name: "idx_users_leaderboard",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_users_leaderboard
				ON users (total_points DESC, id ASC)
			`,
		},
		{
			name: "idx_user_achievements_user_unlocked",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_user_achievements_user_unlocked
				ON user_achievements (user_id, unlocked_at DESC)
			`,
		},
		{
			name: "idx_user_rewards_user_unlocked",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_user_rewards_user_unlocked
				ON user_rewards (user_id, unlocked_at DESC)
			`,
		},
	}
	if errDDL := applyDDLs(conn, ddls); errDDL != nil {
		return errDDL
	}

	return seedCatalogs(conn)
}

// seedCatalogs seeds the achievement and reward catalogs.
func seedCatalogs(conn *gorm.DB) error {
	if errSeed := ensureAchievementCatalog(conn); errSeed != nil {
		return errSeed
	}
	return ensureRewardCatalog(conn)
}

// ensureAchievementCatalog seeds the default achievements when missing.
// Entries are matched by title so reruns never duplicate rows.
func ensureAchievementCatalog(conn *gorm.DB) error {
	defaults := []models.Achievement{
		{Title: "Premiers pas", Description: "Terminer votre première tâche", Icon: "footsteps", ConditionType: models.ConditionTasksCompleted, ConditionValue: 1, PointsReward: 10},
		{Title: "Sur la lancée", Description: "Terminer 10 tâches", Icon: "rocket", ConditionType: models.ConditionTasksCompleted, ConditionValue: 10, PointsReward: 50},
		{Title: "Machine à tâches", Description: "Terminer 50 tâches", Icon: "gear", ConditionType: models.ConditionTasksCompleted, ConditionValue: 50, PointsReward: 150},
		{Title: "Centurion", Description: "Terminer 100 tâches", Icon: "shield", ConditionType: models.ConditionTasksCompleted, ConditionValue: 100, PointsReward: 300},
		{Title: "Semaine parfaite", Description: "Maintenir une série de 7 jours", Icon: "flame", ConditionType: models.ConditionStreakDays, ConditionValue: 7, PointsReward: 75},
		{Title: "Mois de fer", Description: "Maintenir une série de 30 jours", Icon: "calendar", ConditionType: models.ConditionStreakDays, ConditionValue: 30, PointsReward: 300},
		{Title: "Collectionneur", Description: "Accumuler 500 points", Icon: "coins", ConditionType: models.ConditionTotalPoints, ConditionValue: 500, PointsReward: 100},
		{Title: "Trésorier", Description: "Accumuler 2000 points", Icon: "treasure", ConditionType: models.ConditionTotalPoints, ConditionValue: 2000, PointsReward: 250},
		{Title: "Apprenti", Description: "Atteindre le niveau 5", Icon: "star", ConditionType: models.ConditionLevel, ConditionValue: 5, PointsReward: 100},
		{Title: "Maître", Description: "Atteindre le niveau 10", Icon: "crown", ConditionType: models.ConditionLevel, ConditionValue: 10, PointsReward: 250},
	}
	for _, achievement := range defaults {
		var existing models.Achievement
		errFind := conn.Where("title = ?", achievement.Title).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: query achievement catalog: %w", errFind)
		}
		if errCreate := conn.Create(&achievement).Error; errCreate != nil {
			return fmt.Errorf("db: seed achievement %q: %w", achievement.Title, errCreate)
		}
	}
	return nil
}

// ensureRewardCatalog seeds the default rewards when missing.
func ensureRewardCatalog(conn *gorm.DB) error {
	defaults := []models.Reward{
		{Title: "Thème sombre", Description: "Débloquer le thème sombre de l'application", Icon: "moon", Category: "theme", PointsRequired: 100},
		{Title: "Thème néon", Description: "Débloquer le thème néon de l'application", Icon: "bolt", Category: "theme", PointsRequired: 750},
		{Title: "Avatar doré", Description: "Débloquer le cadre d'avatar doré", Icon: "frame", Category: "avatar", PointsRequired: 250},
		{Title: "Badge expert", Description: "Afficher le badge expert sur votre profil", Icon: "badge", Category: "badge", PointsRequired: 500},
		{Title: "Trophée légendaire", Description: "Le trophée réservé aux plus assidus", Icon: "trophy", Category: "trophy", PointsRequired: 1500},
	}
	for _, reward := range defaults {
		var existing models.Reward
		errFind := conn.Where("title = ?", reward.Title).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: query reward catalog: %w", errFind)
		}
		if errCreate := conn.Create(&reward).Error; errCreate != nil {
			return fmt.Errorf("db: seed reward %q: %w", reward.Title, errCreate)
		}
	}
	return nil
}
