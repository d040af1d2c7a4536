package services

import (
	"testing"

	"menu-builder-api/logger"
	"menu-builder-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database migrated with every model.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// One connection so every session sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.UsagePeriod{},
		&models.ActivityLog{},
		&models.MenuViewEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLogger() *logger.Logger {
	return logger.NewNop()
}

// seedOwner creates an owner on the given plan and returns it.
func seedOwner(t *testing.T, db *gorm.DB, plan string) *models.User {
	t.Helper()
	user := models.User{
		Name:         "Mario",
		Email:        plan + "-owner@example.com",
		PasswordHash: "x",
		Role:         models.RoleOwner,
		Plan:         plan,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	return &user
}
