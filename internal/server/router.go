package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/linkhive/backend/internal/auth"
	"github.com/linkhive/backend/internal/category"
	"github.com/linkhive/backend/internal/identity"
	"github.com/linkhive/backend/internal/links"
	"github.com/linkhive/backend/internal/shares"
)

const identityContextKey = "linkhive_identity"

var (
	errMissingIdentityStore  = errors.New("identity store dependency required")
	errMissingCategories     = errors.New("category registry dependency required")
	errMissingLinksService   = errors.New("links service dependency required")
	errMissingSharesService  = errors.New("shares service dependency required")
	errMissingTokenManager   = errors.New("token manager dependency required")
	errInvalidAuthorization  = errors.New("authorization header missing or invalid")
	defaultRefreshCookieName = "refreshToken"
)

// TokenManager issues and validates the service's session tokens.
type TokenManager interface {
	IssueAccessToken(identity auth.Identity) (string, error)
	IssueRefreshToken(identity auth.Identity) (string, error)
	RefreshTokenTTL() time.Duration
	ValidateAccessToken(token string) (auth.Identity, error)
	ValidateRefreshToken(token string) (auth.Identity, error)
}

// Dependencies wires the router to the domain services.
type Dependencies struct {
	Identities        *identity.Service
	Categories        *category.Registry
	Links             *links.Service
	Shares            *shares.Service
	Tokens            TokenManager
	Logger            *zap.Logger
	RefreshCookieName string
	AllowedOrigins    []string
}

// NewHTTPHandler builds the gin router with the auth and resource routes.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Identities == nil {
		return nil, errMissingIdentityStore
	}
	if deps.Categories == nil {
		return nil, errMissingCategories
	}
	if deps.Links == nil {
		return nil, errMissingLinksService
	}
	if deps.Shares == nil {
		return nil, errMissingSharesService
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenManager
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cookieName := deps.RefreshCookieName
	if cookieName == "" {
		cookieName = defaultRefreshCookieName
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler := &httpHandler{
		identities:        deps.Identities,
		categories:        deps.Categories,
		links:             deps.Links,
		shares:            deps.Shares,
		tokens:            deps.Tokens,
		logger:            logger,
		refreshCookieName: cookieName,
	}

	router.POST("/auth/sign-up", handler.handleSignUp)
	router.POST("/auth/sign-in", handler.handleSignIn)
	router.POST("/auth/sign-out", handler.handleSignOut)
	router.GET("/auth/refresh", handler.handleRefresh)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/categories", handler.handleListCategories)
	protected.GET("/users", handler.handleListUsers)
	protected.POST("/link", handler.handleCreateLink)
	protected.GET("/links", handler.handleListLinks)
	protected.PUT("/link/:id", handler.handleUpdateLink)
	protected.DELETE("/link/:id", handler.handleDeleteLink)
	protected.POST("/share", handler.handleCreateShare)
	protected.POST("/shares", handler.handleCreateShareBatch)
	protected.GET("/shares/:linkId", handler.handleListSharesForLink)
	protected.PUT("/share/:id", handler.handleUpdateShare)
	protected.DELETE("/share/:id", handler.handleDeleteShare)

	return router, nil
}

type httpHandler struct {
	identities        *identity.Service
	categories        *category.Registry
	links             *links.Service
	shares            *shares.Service
	tokens            TokenManager
	logger            *zap.Logger
	refreshCookieName string
}

// authorizeRequest validates the bearer token and threads the authenticated
// (user id, email) pair into the request context for the handlers.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Message: errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Message: errInvalidAuthorization.Error()})
		return
	}
	requester, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			h.logger.Info("token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Message: "Token expired"})
			return
		}
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Message: "Invalid token"})
		return
	}
	c.Set(identityContextKey, requester)
	c.Next()
}

func (h *httpHandler) requester(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(identityContextKey)
	if !ok {
		return auth.Identity{}, false
	}
	requester, ok := value.(auth.Identity)
	if !ok || requester.UserID == "" {
		return auth.Identity{}, false
	}
	return requester, true
}

// envelope is the uniform response shape: a human-readable message plus an
// optional payload; the HTTP status conveys the outcome class.
type envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Message: message, Data: data})
}

// respondServerError hides internal details behind a uniform 500.
func (h *httpHandler) respondServerError(c *gin.Context, operation string, err error) {
	h.logger.Error("request failed", zap.String("operation", operation), zap.Error(err))
	respond(c, http.StatusInternalServerError, "Server Error", nil)
}
