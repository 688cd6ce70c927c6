package links

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linkhive/backend/internal/access"
	"github.com/linkhive/backend/internal/category"
	"github.com/linkhive/backend/internal/ids"
)

var (
	// ErrInvalidInput indicates a missing or malformed field.
	ErrInvalidInput = errors.New("links: invalid input")
	// ErrInvalidCategory indicates the category id does not resolve.
	ErrInvalidCategory = errors.New("links: category does not exist")
	// ErrNotFound indicates no link matches the id.
	ErrNotFound = errors.New("links: link not found")
	// ErrNotAuthorized indicates the requester lacks the required access level.
	ErrNotAuthorized = errors.New("links: not authorized")

	errMissingDatabase   = errors.New("links: database handle is required")
	errMissingEvaluator  = errors.New("links: access evaluator is required")
	errMissingCategories = errors.New("links: category registry is required")
	errMissingShares     = errors.New("links: shared link source is required")
)

// SharedLinkSource lists link ids shared to a user at the given writability,
// for scope-filtered listings. Implemented by the share registry.
type SharedLinkSource interface {
	ListSharedLinkIDs(ctx context.Context, userID string, writable bool) ([]string, error)
}

// ServiceConfig describes the dependencies of the link registry.
type ServiceConfig struct {
	Database   *gorm.DB
	Evaluator  *access.Evaluator
	Categories *category.Registry
	Shared     SharedLinkSource
	Logger     *zap.Logger
}

// Service manages links and enforces the ownership rules on their mutation.
type Service struct {
	db         *gorm.DB
	evaluator  *access.Evaluator
	categories *category.Registry
	shared     SharedLinkSource
	logger     *zap.Logger
}

// NewService constructs the link registry.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.Evaluator == nil {
		return nil, errMissingEvaluator
	}
	if cfg.Categories == nil {
		return nil, errMissingCategories
	}
	if cfg.Shared == nil {
		return nil, errMissingShares
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:         cfg.Database,
		evaluator:  cfg.Evaluator,
		categories: cfg.Categories,
		shared:     cfg.Shared,
		logger:     logger,
	}, nil
}

// Create stores a new link owned by ownerID. The owner email and category
// name are snapshotted at this moment and not kept in sync afterwards.
func (s *Service) Create(ctx context.Context, ownerID, ownerEmail, categoryID, name, url string) (Link, error) {
	categoryID = strings.TrimSpace(categoryID)
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if ownerID == "" || categoryID == "" || name == "" || url == "" {
		return Link{}, ErrInvalidInput
	}

	linkCategory, err := s.categories.FindByID(ctx, categoryID)
	if errors.Is(err, category.ErrNotFound) {
		return Link{}, ErrInvalidCategory
	}
	if err != nil {
		return Link{}, err
	}

	linkID, err := ids.Generate(func(candidate string) (bool, error) {
		var count int64
		err := s.db.WithContext(ctx).Model(&Link{}).Where("id = ?", candidate).Count(&count).Error
		return count > 0, err
	}, ids.DefaultMaxAttempts)
	if err != nil {
		return Link{}, fmt.Errorf("links: id generation failed: %w", err)
	}

	link := Link{
		ID:           linkID,
		OwnerUserID:  ownerID,
		OwnerEmail:   ownerEmail,
		CategoryID:   linkCategory.ID,
		CategoryName: linkCategory.Name,
		Name:         name,
		URL:          url,
	}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return Link{}, fmt.Errorf("links: create failed: %w", err)
	}

	s.logger.Info("link created",
		zap.String("link_id", link.ID),
		zap.String("owner_user_id", ownerID))
	return link, nil
}

// ListVisible returns links the requester may see under the given scope,
// optionally narrowed by category and a case-insensitive name substring.
func (s *Service) ListVisible(ctx context.Context, requesterID string, scope Scope, filter ListFilter) ([]Link, error) {
	if requesterID == "" {
		return nil, ErrInvalidInput
	}

	query := s.db.WithContext(ctx).Model(&Link{})
	switch scope {
	case ScopeOwn:
		query = query.Where("owner_user_id = ?", requesterID)
	case ScopeSharedReadonly, ScopeSharedWritable:
		linkIDs, err := s.shared.ListSharedLinkIDs(ctx, requesterID, scope == ScopeSharedWritable)
		if err != nil {
			return nil, fmt.Errorf("links: shared lookup failed: %w", err)
		}
		if len(linkIDs) == 0 {
			return []Link{}, nil
		}
		query = query.Where("id IN ?", linkIDs)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	if categoryID := strings.TrimSpace(filter.CategoryID); categoryID != "" && categoryID != "all" {
		query = query.Where("category_id = ?", categoryID)
	}
	if name := strings.TrimSpace(filter.NameContains); name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	var result []Link
	if err := query.Order("name ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("links: list failed: %w", err)
	}
	return result, nil
}

// Update mutates a link's category, name, and url. Permitted for the owner
// or a holder of a writable share; the category name is re-snapshotted from
// the new category.
func (s *Service) Update(ctx context.Context, linkID, requesterID, categoryID, name, url string) (Link, error) {
	categoryID = strings.TrimSpace(categoryID)
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if linkID == "" || requesterID == "" || categoryID == "" || name == "" || url == "" {
		return Link{}, ErrInvalidInput
	}

	link, err := s.findByID(ctx, linkID)
	if err != nil {
		return Link{}, err
	}

	level, err := s.evaluator.Resolve(ctx, requesterID, link.ID, link.OwnerUserID)
	if err != nil {
		return Link{}, fmt.Errorf("links: access resolution failed: %w", err)
	}
	if !level.CanWrite() {
		return Link{}, ErrNotAuthorized
	}

	linkCategory, err := s.categories.FindByID(ctx, categoryID)
	if errors.Is(err, category.ErrNotFound) {
		return Link{}, ErrInvalidCategory
	}
	if err != nil {
		return Link{}, err
	}

	updates := map[string]interface{}{
		"category_id":   linkCategory.ID,
		"category_name": linkCategory.Name,
		"name":          name,
		"url":           url,
	}
	if err := s.db.WithContext(ctx).Model(&Link{}).Where("id = ?", link.ID).Updates(updates).Error; err != nil {
		return Link{}, fmt.Errorf("links: update failed: %w", err)
	}

	s.logger.Info("link updated",
		zap.String("link_id", link.ID),
		zap.String("requester_id", requesterID),
		zap.String("access_level", level.String()))
	return s.findByID(ctx, link.ID)
}

// Delete removes a link and every share on it. Only the owner may delete;
// a writable share never grants delete rights.
func (s *Service) Delete(ctx context.Context, linkID, requesterID string) error {
	if linkID == "" || requesterID == "" {
		return ErrInvalidInput
	}

	link, err := s.findByID(ctx, linkID)
	if err != nil {
		return err
	}
	if link.OwnerUserID != requesterID {
		return ErrNotAuthorized
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM shares WHERE link_id = ?", link.ID).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", link.ID).Delete(&Link{}).Error
	})
	if err != nil {
		return fmt.Errorf("links: delete failed: %w", err)
	}

	s.logger.Info("link deleted",
		zap.String("link_id", link.ID),
		zap.String("owner_user_id", requesterID))
	return nil
}

// FindVisible returns a link when the requester holds any access on it.
func (s *Service) FindVisible(ctx context.Context, linkID, requesterID string) (Link, error) {
	link, err := s.findByID(ctx, linkID)
	if err != nil {
		return Link{}, err
	}
	level, err := s.evaluator.Resolve(ctx, requesterID, link.ID, link.OwnerUserID)
	if err != nil {
		return Link{}, fmt.Errorf("links: access resolution failed: %w", err)
	}
	if !level.CanRead() {
		return Link{}, ErrNotAuthorized
	}
	return link, nil
}

func (s *Service) findByID(ctx context.Context, linkID string) (Link, error) {
	var link Link
	err := s.db.WithContext(ctx).Where("id = ?", linkID).Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Link{}, ErrNotFound
	}
	if err != nil {
		return Link{}, fmt.Errorf("links: lookup failed: %w", err)
	}
	return link, nil
}
