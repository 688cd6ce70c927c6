package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/linkhive/backend/internal/auth"
	"github.com/linkhive/backend/internal/identity"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionPayload struct {
	AccessToken string `json:"accessToken"`
	ID          string `json:"id"`
	Email       string `json:"email"`
}

func (h *httpHandler) handleSignUp(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}
	email := strings.TrimSpace(request.Email)
	password := strings.TrimSpace(request.Password)
	if email == "" || password == "" {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		h.respondServerError(c, "auth.sign_up", err)
		return
	}

	user, err := h.identities.Create(c.Request.Context(), email, passwordHash)
	if errors.Is(err, identity.ErrDuplicateEmail) {
		respond(c, http.StatusConflict, "User already exists.", nil)
		return
	}
	if errors.Is(err, identity.ErrInvalidInput) {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}
	if err != nil {
		h.respondServerError(c, "auth.sign_up", err)
		return
	}

	respond(c, http.StatusCreated, "User created successfully.", userPayload{ID: user.ID, Email: user.Email})
}

func (h *httpHandler) handleSignIn(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}
	email := strings.TrimSpace(request.Email)
	password := strings.TrimSpace(request.Password)
	if email == "" || password == "" {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}

	user, err := h.identities.FindByEmail(c.Request.Context(), email)
	if errors.Is(err, identity.ErrNotFound) {
		respond(c, http.StatusUnauthorized, "Sign-in failed.", nil)
		return
	}
	if err != nil {
		h.respondServerError(c, "auth.sign_in", err)
		return
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		h.logger.Info("sign-in rejected", zap.String("user_id", user.ID))
		respond(c, http.StatusUnauthorized, "Sign-in failed.", nil)
		return
	}

	sessionIdentity := auth.Identity{UserID: user.ID, Email: user.Email}
	accessToken, err := h.tokens.IssueAccessToken(sessionIdentity)
	if err != nil {
		h.respondServerError(c, "auth.sign_in", err)
		return
	}
	refreshToken, err := h.tokens.IssueRefreshToken(sessionIdentity)
	if err != nil {
		h.respondServerError(c, "auth.sign_in", err)
		return
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(h.refreshCookieName, refreshToken, int(h.tokens.RefreshTokenTTL().Seconds()), "/", "", true, true)

	respond(c, http.StatusOK, "Signed in successfully.", sessionPayload{
		AccessToken: accessToken,
		ID:          user.ID,
		Email:       user.Email,
	})
}

func (h *httpHandler) handleSignOut(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(h.refreshCookieName, "", -1, "/", "", true, true)
	respond(c, http.StatusOK, "Signed out successfully.", nil)
}

func (h *httpHandler) handleRefresh(c *gin.Context) {
	refreshToken, err := c.Cookie(h.refreshCookieName)
	if err != nil || refreshToken == "" {
		respond(c, http.StatusUnauthorized, "Refresh failed.", nil)
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		h.logger.Info("refresh token rejected", zap.Error(err))
		respond(c, http.StatusUnauthorized, "Refresh failed.", nil)
		return
	}

	// Refreshing re-checks that the account still exists and re-reads the
	// current email rather than trusting the old token's snapshot.
	user, err := h.identities.FindByID(c.Request.Context(), claims.UserID)
	if errors.Is(err, identity.ErrNotFound) {
		respond(c, http.StatusUnauthorized, "Refresh failed.", nil)
		return
	}
	if err != nil {
		h.respondServerError(c, "auth.refresh", err)
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(auth.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		h.respondServerError(c, "auth.refresh", err)
		return
	}

	respond(c, http.StatusOK, "Refreshed successfully.", sessionPayload{
		AccessToken: accessToken,
		ID:          user.ID,
		Email:       user.Email,
	})
}

func (h *httpHandler) handleListUsers(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	users, err := h.identities.ListExcluding(c.Request.Context(), requester.UserID)
	if err != nil {
		h.respondServerError(c, "users.list", err)
		return
	}

	payload := make([]userPayload, 0, len(users))
	for _, user := range users {
		payload = append(payload, userPayload{ID: user.ID, Email: user.Email})
	}
	respond(c, http.StatusOK, "", payload)
}

func (h *httpHandler) handleListCategories(c *gin.Context) {
	categories, err := h.categories.ListAll(c.Request.Context())
	if err != nil {
		h.respondServerError(c, "categories.list", err)
		return
	}

	type categoryPayload struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	payload := make([]categoryPayload, 0, len(categories))
	for _, entry := range categories {
		payload = append(payload, categoryPayload{ID: entry.ID, Name: entry.Name})
	}
	respond(c, http.StatusOK, "", payload)
}
