package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linkhive/backend/internal/category"
	"github.com/linkhive/backend/internal/identity"
	"github.com/linkhive/backend/internal/links"
	"github.com/linkhive/backend/internal/shares"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
// Foreign keys are enabled so the cascade invariants (user and category
// deletions remove dependent links and shares) hold at the store level.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)"), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&identity.User{},
		&category.Category{},
		&links.Link{},
		&shares.Share{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
