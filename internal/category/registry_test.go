package category

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "category.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Category{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	seed := []Category{
		{ID: "cat-work", Name: "Work"},
		{ID: "cat-reading", Name: "Reading"},
		{ID: "cat-personal", Name: "Personal"},
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}
	registry, err := NewRegistry(db)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	return registry
}

func TestListAllReturnsSeededCategoriesOrdered(t *testing.T) {
	registry := newTestRegistry(t)

	categories, err := registry.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(categories))
	}
	if categories[0].Name != "Personal" || categories[2].Name != "Work" {
		t.Fatalf("expected name ordering, got %v", categories)
	}
}

func TestFindByID(t *testing.T) {
	registry := newTestRegistry(t)

	found, err := registry.FindByID(context.Background(), "cat-reading")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found.Name != "Reading" {
		t.Fatalf("unexpected category: %v", found)
	}

	if _, err := registry.FindByID(context.Background(), "cat-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
