package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vansh1925/NexPrep-v2/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	openSQLite = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	}
	migrateSchema = func(db *gorm.DB) error {
		return db.AutoMigrate(&models.User{}, &models.InterviewDetails{}, &models.PostInterview{})
	}
	dropTableFn = func(db *gorm.DB, table interface{}) error { return db.Migrator().DropTable(table) }
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := openSQLite(dsn)
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	if err := migrateSchema(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	// a single connection keeps the shared in-memory database alive and serializes writers
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { sqlDB.Close() })
	}
	return db
}

// SeedUser inserts a user with the given balance.
func SeedUser(t *testing.T, db *gorm.DB, email string, credits int) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: "Test User", Credits: credits}
	if err := db.Create(user).Error; err != nil {
		panic(fmt.Sprintf("failed to seed user: %v", err))
	}
	return user
}

// DropTable removes a table to force repository errors.
func DropTable(t *testing.T, db *gorm.DB, table interface{}) {
	t.Helper()
	if err := dropTableFn(db, table); err != nil {
		panic(fmt.Sprintf("failed to drop table: %v", err))
	}
}
