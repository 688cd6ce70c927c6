package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAccessTokenTTL  = 24 * time.Hour
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	// ErrMissingSigningSecret indicates the issuer was built without key material.
	ErrMissingSigningSecret = errors.New("auth: signing secret must be provided")
	// ErrMissingSubject indicates a token request or token without a user id.
	ErrMissingSubject = errors.New("auth: subject claim must be provided")
	// ErrExpiredToken indicates the token lifetime has elapsed.
	ErrExpiredToken = errors.New("auth: token expired")
	// ErrInvalidToken covers malformed, mis-signed, or otherwise unusable tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// SessionClaims is the payload carried by both access and refresh tokens.
type SessionClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the authenticated (user id, email) pair trusted by all
// downstream authorization decisions.
type Identity struct {
	UserID string
	Email  string
}

// TokenIssuerConfig configures the HS256 token issuer.
type TokenIssuerConfig struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Clock           func() time.Time
}

// TokenIssuer issues and validates the service's own access and refresh JWTs.
type TokenIssuer struct {
	config TokenIssuerConfig
	clock  func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with sane defaults.
func NewTokenIssuer(cfg TokenIssuerConfig) *TokenIssuer {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTokenTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	cfg.Clock = clock
	return &TokenIssuer{config: cfg, clock: clock}
}

// IssueAccessToken signs a short-lived access token for the identity.
func (i *TokenIssuer) IssueAccessToken(identity Identity) (string, error) {
	return i.sign(identity, i.config.AccessSecret, i.config.AccessTokenTTL)
}

// IssueRefreshToken signs a refresh token under the refresh secret.
func (i *TokenIssuer) IssueRefreshToken(identity Identity) (string, error) {
	return i.sign(identity, i.config.RefreshSecret, i.config.RefreshTokenTTL)
}

// RefreshTokenTTL exposes the refresh lifetime for cookie max-age wiring.
func (i *TokenIssuer) RefreshTokenTTL() time.Duration {
	return i.config.RefreshTokenTTL
}

// ValidateAccessToken parses an access token and returns the identity it names.
func (i *TokenIssuer) ValidateAccessToken(tokenString string) (Identity, error) {
	return i.validate(tokenString, i.config.AccessSecret)
}

// ValidateRefreshToken parses a refresh token and returns the identity it names.
func (i *TokenIssuer) ValidateRefreshToken(tokenString string) (Identity, error) {
	return i.validate(tokenString, i.config.RefreshSecret)
}

func (i *TokenIssuer) sign(identity Identity, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSigningSecret
	}
	if identity.UserID == "" {
		return "", ErrMissingSubject
	}

	now := i.clock().UTC()
	claims := SessionClaims{
		UserID: identity.UserID,
		Email:  identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (i *TokenIssuer) validate(tokenString string, secret []byte) (Identity, error) {
	if len(secret) == 0 {
		return Identity{}, ErrMissingSigningSecret
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrInvalidToken, token.Method.Alg())
			}
			return secret, nil
		},
		jwt.WithTimeFunc(i.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed == nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if i.config.Issuer != "" && claims.Issuer != i.config.Issuer {
		return Identity{}, ErrInvalidToken
	}
	if claims.UserID == "" {
		return Identity{}, ErrMissingSubject
	}
	return Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
