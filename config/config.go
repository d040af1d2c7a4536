package config

import (
	"log"
	"os"

	"menu-builder-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign tokens — read from env or fallback
var JWTSecret = []byte(GetEnv("JWT_SECRET", "menu_builder_super_secret_2024"))

// GetEnv reads an environment variable with a fallback value.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB() {
	var err error
	path := GetEnv("DB_PATH", "menu_builder.db")
	// TranslateError lets callers detect slug collisions via gorm.ErrDuplicatedKey
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.UsagePeriod{},
		&models.ActivityLog{},
		&models.MenuViewEvent{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database connected and migrated successfully")
}
