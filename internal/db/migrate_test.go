package db

import (
	"testing"

	"focustask/internal/models"
)

func TestMigrate_SeedsCatalogs(t *testing.T) {
	conn, err := Open("file:dbseed1?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	var achievements int64
	if errCount := conn.Model(&models.Achievement{}).Count(&achievements).Error; errCount != nil {
		t.Fatalf("count achievements: %v", errCount)
	}
	if achievements == 0 {
		t.Fatalf("expected seeded achievements, got none")
	}

	var rewards int64
	if errCount := conn.Model(&models.Reward{}).Count(&rewards).Error; errCount != nil {
		t.Fatalf("count rewards: %v", errCount)
	}
	if rewards == 0 {
		t.Fatalf("expected seeded rewards, got none")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	conn, err := Open("file:dbseed2?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("first migrate: %v", errMigrate)
	}

	var before int64
	if errCount := conn.Model(&models.Achievement{}).Count(&before).Error; errCount != nil {
		t.Fatalf("count achievements: %v", errCount)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}

	var after int64
	if errCount := conn.Model(&models.Achievement{}).Count(&after).Error; errCount != nil {
		t.Fatalf("recount achievements: %v", errCount)
	}
	if before != after {
		t.Fatalf("expected idempotent seeding, got %d then %d", before, after)
	}
}

func TestOpen_DialectSelection(t *testing.T) {
	conn, err := Open("file:dbdialect?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !IsSQLite(conn) {
		t.Fatalf("expected sqlite dialect, got %q", DialectName(conn))
	}
	if expr := CaseInsensitiveLikeExpr(conn, "username"); expr != "LOWER(username) LIKE ?" {
		t.Fatalf("unexpected like expr %q", expr)
	}
	if pattern := NormalizeLikePattern(conn, "%Alice%"); pattern != "%alice%" {
		t.Fatalf("unexpected like pattern %q", pattern)
	}
}
