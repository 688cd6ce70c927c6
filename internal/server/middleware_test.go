package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/linkhive/backend/internal/access"
	"github.com/linkhive/backend/internal/auth"
	"github.com/linkhive/backend/internal/category"
	"github.com/linkhive/backend/internal/database"
	"github.com/linkhive/backend/internal/identity"
	"github.com/linkhive/backend/internal/links"
	"github.com/linkhive/backend/internal/shares"
)

type stubTokenManager struct {
	identity    auth.Identity
	validateErr error
}

func (s *stubTokenManager) IssueAccessToken(auth.Identity) (string, error)  { return "access", nil }
func (s *stubTokenManager) IssueRefreshToken(auth.Identity) (string, error) { return "refresh", nil }
func (s *stubTokenManager) RefreshTokenTTL() time.Duration                  { return time.Hour }

func (s *stubTokenManager) ValidateAccessToken(string) (auth.Identity, error) {
	if s.validateErr != nil {
		return auth.Identity{}, s.validateErr
	}
	return s.identity, nil
}

func (s *stubTokenManager) ValidateRefreshToken(string) (auth.Identity, error) {
	if s.validateErr != nil {
		return auth.Identity{}, s.validateErr
	}
	return s.identity, nil
}

func newMiddlewareHandler(t *testing.T, tokens TokenManager, logger *zap.Logger) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "middleware.db"), nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	identityService, err := identity.NewService(identity.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create identity service: %v", err)
	}
	categoryRegistry, err := category.NewRegistry(db)
	if err != nil {
		t.Fatalf("failed to create category registry: %v", err)
	}
	shareService, err := shares.NewService(shares.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create share service: %v", err)
	}
	evaluator, err := access.NewEvaluator(shareService)
	if err != nil {
		t.Fatalf("failed to create evaluator: %v", err)
	}
	linkService, err := links.NewService(links.ServiceConfig{
		Database:   db,
		Evaluator:  evaluator,
		Categories: categoryRegistry,
		Shared:     shareService,
	})
	if err != nil {
		t.Fatalf("failed to create link service: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		Identities: identityService,
		Categories: categoryRegistry,
		Links:      linkService,
		Shares:     shareService,
		Tokens:     tokens,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return handler
}

func TestAuthorizeRequestRejectsMissingHeader(t *testing.T) {
	handler := newMiddlewareHandler(t, &stubTokenManager{}, nil)

	request := httptest.NewRequest(http.MethodGet, "/categories", http.NoBody)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", recorder.Code)
	}
}

func TestAuthorizeRequestRejectsMalformedHeader(t *testing.T) {
	handler := newMiddlewareHandler(t, &stubTokenManager{}, nil)

	request := httptest.NewRequest(http.MethodGet, "/categories", http.NoBody)
	request.Header.Set("Authorization", "Token abcdef")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", recorder.Code)
	}
}

func TestAuthorizeRequestLogsExpiredTokenAtInfo(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := newMiddlewareHandler(t, &stubTokenManager{validateErr: auth.ErrExpiredToken}, zap.New(core))

	request := httptest.NewRequest(http.MethodGet, "/categories", http.NoBody)
	request.Header.Set("Authorization", "Bearer expired-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", recorder.Code)
	}

	entries := logs.FilterMessage("token validation failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].Level != zap.InfoLevel {
		t.Fatalf("expected info level for expired tokens, got %s", entries[0].Level)
	}
}

func TestAuthorizeRequestLogsInvalidTokenAtWarn(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := newMiddlewareHandler(t, &stubTokenManager{validateErr: auth.ErrInvalidToken}, zap.New(core))

	request := httptest.NewRequest(http.MethodGet, "/categories", http.NoBody)
	request.Header.Set("Authorization", "Bearer forged-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", recorder.Code)
	}

	entries := logs.FilterMessage("token validation failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Fatalf("expected warn level for invalid tokens, got %s", entries[0].Level)
	}
}

func TestAuthorizeRequestAdmitsValidToken(t *testing.T) {
	handler := newMiddlewareHandler(t, &stubTokenManager{
		identity: auth.Identity{UserID: "user-1", Email: "user@example.com"},
	}, nil)

	request := httptest.NewRequest(http.MethodGet, "/categories", http.NoBody)
	request.Header.Set("Authorization", "Bearer valid-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected ok, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestPreflightAllowsCredentialedMethods(t *testing.T) {
	handler := newMiddlewareHandler(t, &stubTokenManager{}, nil)

	request := httptest.NewRequest(http.MethodOptions, "/link/link-1", http.NoBody)
	request.Header.Set("Origin", "https://app.example.com")
	request.Header.Set("Access-Control-Request-Method", http.MethodPut)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected no content for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials to be allowed")
	}
}
