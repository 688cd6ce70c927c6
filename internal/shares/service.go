package shares

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linkhive/backend/internal/access"
	"github.com/linkhive/backend/internal/identity"
	"github.com/linkhive/backend/internal/ids"
	"github.com/linkhive/backend/internal/links"
)

var (
	// ErrInvalidInput indicates a missing field or an unresolved link/grantee.
	ErrInvalidInput = errors.New("shares: invalid input")
	// ErrDuplicateGrant indicates a share already exists for the (link, grantee) pair.
	ErrDuplicateGrant = errors.New("shares: grant already exists")
	// ErrNotFound indicates no share matches the id.
	ErrNotFound = errors.New("shares: share not found")
	// ErrNotAuthorized indicates the requester does not own the underlying link.
	ErrNotAuthorized = errors.New("shares: not authorized")

	errMissingDatabase = errors.New("shares: database handle is required")
)

// ServiceConfig describes the dependencies of the share registry.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service manages share grants. It also serves as the grant source for the
// access evaluator and the shared-link source for scope-filtered listings.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the share registry.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// Create grants granteeID access to the link. Only the link's owner may
// grant; a second grant for the same (link, grantee) pair is rejected, not
// merged.
func (s *Service) Create(ctx context.Context, linkID, granterID, granteeID string, isWritable bool) (Share, error) {
	linkID = strings.TrimSpace(linkID)
	granteeID = strings.TrimSpace(granteeID)
	if linkID == "" || granterID == "" || granteeID == "" {
		return Share{}, ErrInvalidInput
	}

	link, err := s.findLink(ctx, linkID)
	if err != nil {
		return Share{}, err
	}
	if link.OwnerUserID != granterID {
		return Share{}, ErrNotAuthorized
	}

	grantee, err := s.findGrantee(ctx, granteeID)
	if err != nil {
		return Share{}, err
	}

	share, err := s.insertGrant(ctx, s.db, link, grantee, isWritable)
	if err != nil {
		return Share{}, err
	}

	s.logger.Info("share created",
		zap.String("share_id", share.ID),
		zap.String("link_id", link.ID),
		zap.String("grantee_user_id", grantee.ID),
		zap.Bool("is_writable", isWritable))
	return share, nil
}

// CreateBatch grants access for the cross product of links and grantees,
// restricted to links owned by granterID. Business-level misses (a link not
// owned by the granter, an unresolved grantee, an existing grant) are
// skipped silently; only an infrastructure fault rolls the batch back.
// Returns the shares actually created, possibly none.
func (s *Service) CreateBatch(ctx context.Context, linkIDs []string, granterID string, granteeIDs []string, isWritable bool) ([]Share, error) {
	if len(linkIDs) == 0 || granterID == "" || len(granteeIDs) == 0 {
		return nil, ErrInvalidInput
	}

	created := make([]Share, 0, len(linkIDs)*len(granteeIDs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, linkID := range linkIDs {
			var link links.Link
			err := tx.Where("id = ? AND owner_user_id = ?", strings.TrimSpace(linkID), granterID).Take(&link).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("shares: link lookup failed: %w", err)
			}

			for _, granteeID := range granteeIDs {
				var grantee identity.User
				err := tx.Where("id = ?", strings.TrimSpace(granteeID)).Take(&grantee).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				if err != nil {
					return fmt.Errorf("shares: grantee lookup failed: %w", err)
				}

				share, err := s.insertGrant(ctx, tx, link, grantee, isWritable)
				if errors.Is(err, ErrDuplicateGrant) {
					continue
				}
				if err != nil {
					return err
				}
				created = append(created, share)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("share batch created",
		zap.String("granter_user_id", granterID),
		zap.Int("requested_pairs", len(linkIDs)*len(granteeIDs)),
		zap.Int("created", len(created)))
	return created, nil
}

// ListForLink returns the shares on a link, but only to its owner. Any other
// requester receives an empty list rather than an error, so non-owners
// cannot enumerate who else has access.
func (s *Service) ListForLink(ctx context.Context, linkID, requesterID string) ([]Share, error) {
	if linkID == "" || requesterID == "" {
		return nil, ErrInvalidInput
	}

	var result []Share
	err := s.db.WithContext(ctx).
		Joins("JOIN links ON links.id = shares.link_id").
		Where("shares.link_id = ? AND links.owner_user_id = ?", linkID, requesterID).
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("shares: list failed: %w", err)
	}
	return result, nil
}

// Update changes a grant's writability. Only the owner of the underlying
// link may do so.
func (s *Service) Update(ctx context.Context, shareID, requesterID string, isWritable bool) (Share, error) {
	share, err := s.authorizeOwner(ctx, shareID, requesterID)
	if err != nil {
		return Share{}, err
	}

	if err := s.db.WithContext(ctx).Model(&Share{}).Where("id = ?", share.ID).Update("is_writable", isWritable).Error; err != nil {
		return Share{}, fmt.Errorf("shares: update failed: %w", err)
	}
	share.IsWritable = isWritable

	s.logger.Info("share updated",
		zap.String("share_id", share.ID),
		zap.Bool("is_writable", isWritable))
	return share, nil
}

// Delete revokes a grant. Only the owner of the underlying link may do so.
func (s *Service) Delete(ctx context.Context, shareID, requesterID string) error {
	share, err := s.authorizeOwner(ctx, shareID, requesterID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Where("id = ?", share.ID).Delete(&Share{}).Error; err != nil {
		return fmt.Errorf("shares: delete failed: %w", err)
	}

	s.logger.Info("share deleted", zap.String("share_id", share.ID))
	return nil
}

// FindGrant implements access.GrantSource: the grant for a (link, user)
// pair, or nil when none exists.
func (s *Service) FindGrant(ctx context.Context, linkID, userID string) (*access.Grant, error) {
	var share Share
	err := s.db.WithContext(ctx).
		Where("link_id = ? AND grantee_user_id = ?", linkID, userID).
		Take(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("shares: grant lookup failed: %w", err)
	}
	return &access.Grant{ShareID: share.ID, Writable: share.IsWritable}, nil
}

// ListSharedLinkIDs implements links.SharedLinkSource: link ids shared to
// the user at the given writability.
func (s *Service) ListSharedLinkIDs(ctx context.Context, userID string, writable bool) ([]string, error) {
	var linkIDs []string
	err := s.db.WithContext(ctx).Model(&Share{}).
		Where("grantee_user_id = ? AND is_writable = ?", userID, writable).
		Pluck("link_id", &linkIDs).Error
	if err != nil {
		return nil, fmt.Errorf("shares: shared link lookup failed: %w", err)
	}
	return linkIDs, nil
}

func (s *Service) insertGrant(ctx context.Context, db *gorm.DB, link links.Link, grantee identity.User, isWritable bool) (Share, error) {
	var existing int64
	err := db.WithContext(ctx).Model(&Share{}).
		Where("link_id = ? AND grantee_user_id = ?", link.ID, grantee.ID).
		Count(&existing).Error
	if err != nil {
		return Share{}, fmt.Errorf("shares: duplicate check failed: %w", err)
	}
	if existing > 0 {
		return Share{}, ErrDuplicateGrant
	}

	shareID, err := ids.Generate(func(candidate string) (bool, error) {
		var count int64
		err := db.WithContext(ctx).Model(&Share{}).Where("id = ?", candidate).Count(&count).Error
		return count > 0, err
	}, ids.DefaultMaxAttempts)
	if err != nil {
		return Share{}, fmt.Errorf("shares: id generation failed: %w", err)
	}

	share := Share{
		ID:            shareID,
		LinkID:        link.ID,
		GranteeUserID: grantee.ID,
		GranteeEmail:  grantee.Email,
		IsWritable:    isWritable,
	}
	if err := db.WithContext(ctx).Create(&share).Error; err != nil {
		// A concurrent writer winning the (link, grantee) race surfaces here
		// as a unique violation; treat it like the pre-checked duplicate.
		if isPairUniqueViolation(err) {
			return Share{}, ErrDuplicateGrant
		}
		return Share{}, fmt.Errorf("shares: create failed: %w", err)
	}
	return share, nil
}

func (s *Service) authorizeOwner(ctx context.Context, shareID, requesterID string) (Share, error) {
	if shareID == "" || requesterID == "" {
		return Share{}, ErrInvalidInput
	}

	var share Share
	err := s.db.WithContext(ctx).Where("id = ?", shareID).Take(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Share{}, ErrNotFound
	}
	if err != nil {
		return Share{}, fmt.Errorf("shares: lookup failed: %w", err)
	}

	link, err := s.findLink(ctx, share.LinkID)
	if err != nil {
		return Share{}, err
	}
	if link.OwnerUserID != requesterID {
		return Share{}, ErrNotAuthorized
	}
	return share, nil
}

func (s *Service) findLink(ctx context.Context, linkID string) (links.Link, error) {
	var link links.Link
	err := s.db.WithContext(ctx).Where("id = ?", linkID).Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return links.Link{}, ErrInvalidInput
	}
	if err != nil {
		return links.Link{}, fmt.Errorf("shares: link lookup failed: %w", err)
	}
	return link, nil
}

func (s *Service) findGrantee(ctx context.Context, granteeID string) (identity.User, error) {
	var grantee identity.User
	err := s.db.WithContext(ctx).Where("id = ?", granteeID).Take(&grantee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return identity.User{}, ErrInvalidInput
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("shares: grantee lookup failed: %w", err)
	}
	return grantee, nil
}

func isPairUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique") &&
		strings.Contains(message, "link_id") &&
		strings.Contains(message, "grantee_user_id")
}
