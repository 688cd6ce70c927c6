package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linkhive/backend/internal/category"
)

const migrationSeedDefaultCategories = "2026-08-10_seed_default_categories"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationSeedDefaultCategories, apply: seedDefaultCategories},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// seedDefaultCategories populates the administrative category registry; the
// API exposes no creation endpoint for categories.
func seedDefaultCategories(db *gorm.DB) error {
	defaults := []category.Category{
		{ID: "cat-personal", Name: "Personal"},
		{ID: "cat-work", Name: "Work"},
		{ID: "cat-reading", Name: "Reading"},
		{ID: "cat-reference", Name: "Reference"},
	}
	for _, entry := range defaults {
		var count int64
		if err := db.Model(&category.Category{}).Where("id = ?", entry.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&entry).Error; err != nil {
			return err
		}
	}
	return nil
}
