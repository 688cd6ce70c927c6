// Package category holds the flat, administratively seeded set of link
// categories. The registry is read-only; categories are referenced by links
// and never mutated through the API.
package category

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Category is a globally unique name under an opaque id.
type Category struct {
	ID   string `gorm:"column:id;primaryKey;size:190;not null"`
	Name string `gorm:"column:name;size:255;not null;uniqueIndex"`
}

// TableName provides the explicit table binding for GORM.
func (Category) TableName() string {
	return "categories"
}

// ErrNotFound indicates no category matches the id.
var ErrNotFound = errors.New("category: not found")

var errMissingDatabase = errors.New("category: database handle is required")

// Registry provides read access to the category set.
type Registry struct {
	db *gorm.DB
}

// NewRegistry constructs the registry.
func NewRegistry(db *gorm.DB) (*Registry, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	return &Registry{db: db}, nil
}

// ListAll returns every category, ordered by name.
func (r *Registry) ListAll(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("category: list failed: %w", err)
	}
	return categories, nil
}

// FindByID returns the category with the given id.
func (r *Registry) FindByID(ctx context.Context, id string) (Category, error) {
	var found Category
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&found).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("category: lookup failed: %w", err)
	}
	return found, nil
}
