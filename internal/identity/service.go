package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linkhive/backend/internal/ids"
)

var (
	// ErrDuplicateEmail indicates an account already exists for the email.
	ErrDuplicateEmail = errors.New("identity: email already registered")
	// ErrInvalidInput indicates a missing or malformed field.
	ErrInvalidInput = errors.New("identity: invalid input")
	// ErrNotFound indicates no account matches the lookup.
	ErrNotFound = errors.New("identity: user not found")

	errMissingDatabase = errors.New("identity: database handle is required")
)

// ServiceConfig describes the dependencies of the identity store.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service manages user accounts.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the identity store.
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

// Create registers a new account. Email uniqueness is enforced here and
// surfaced as ErrDuplicateEmail, distinct from any other failure.
func (s *Service) Create(ctx context.Context, email, passwordHash string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || passwordHash == "" {
		return User{}, ErrInvalidInput
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return User{}, fmt.Errorf("identity: email lookup failed: %w", err)
	}
	if existing > 0 {
		return User{}, ErrDuplicateEmail
	}

	userID, err := ids.Generate(func(candidate string) (bool, error) {
		var count int64
		err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", candidate).Count(&count).Error
		return count > 0, err
	}, ids.DefaultMaxAttempts)
	if err != nil {
		return User{}, fmt.Errorf("identity: id generation failed: %w", err)
	}

	user := User{ID: userID, Email: email, PasswordHash: passwordHash}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err, "email") {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("identity: create failed: %w", err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID))
	return user, nil
}

// FindByEmail returns the account for an exact, case-sensitive email match.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("identity: lookup failed: %w", err)
	}
	return user, nil
}

// FindByID returns the account for the opaque identifier.
func (s *Service) FindByID(ctx context.Context, id string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("identity: lookup failed: %w", err)
	}
	return user, nil
}

// ListExcluding returns every account except the given one, for share-target
// selection.
func (s *Service) ListExcluding(ctx context.Context, id string) ([]User, error) {
	var users []User
	if err := s.db.WithContext(ctx).Where("id <> ?", id).Order("email ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("identity: list failed: %w", err)
	}
	return users, nil
}

func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique") && strings.Contains(message, column)
}
