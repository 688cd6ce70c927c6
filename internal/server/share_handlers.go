package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkhive/backend/internal/shares"
)

type sharePayload struct {
	ID            string `json:"id"`
	LinkID        string `json:"link_id"`
	GranteeUserID string `json:"grantee_user_id"`
	GranteeEmail  string `json:"grantee_email"`
	IsWritable    bool   `json:"is_writable"`
}

func toSharePayload(share shares.Share) sharePayload {
	return sharePayload{
		ID:            share.ID,
		LinkID:        share.LinkID,
		GranteeUserID: share.GranteeUserID,
		GranteeEmail:  share.GranteeEmail,
		IsWritable:    share.IsWritable,
	}
}

func toSharePayloads(list []shares.Share) []sharePayload {
	payload := make([]sharePayload, 0, len(list))
	for _, share := range list {
		payload = append(payload, toSharePayload(share))
	}
	return payload
}

func (h *httpHandler) handleCreateShare(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var request struct {
		LinkID     string `json:"linkId"`
		UserID     string `json:"userId"`
		IsWritable bool   `json:"isWritable"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}

	share, err := h.shares.Create(c.Request.Context(), request.LinkID, requester.UserID, request.UserID, request.IsWritable)
	switch {
	case errors.Is(err, shares.ErrNotAuthorized):
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	case errors.Is(err, shares.ErrDuplicateGrant):
		respond(c, http.StatusConflict, "Share already exists.", nil)
		return
	case errors.Is(err, shares.ErrInvalidInput):
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	case err != nil:
		h.respondServerError(c, "shares.create", err)
		return
	}

	respond(c, http.StatusCreated, "Share created successfully.", toSharePayload(share))
}

func (h *httpHandler) handleCreateShareBatch(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var request struct {
		LinkIDs    []string `json:"linkIds"`
		UserIDs    []string `json:"userIds"`
		IsWritable bool     `json:"isWritable"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}

	created, err := h.shares.CreateBatch(c.Request.Context(), request.LinkIDs, requester.UserID, request.UserIDs, request.IsWritable)
	if errors.Is(err, shares.ErrInvalidInput) {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}
	if err != nil {
		h.respondServerError(c, "shares.create_batch", err)
		return
	}

	// Business-level skips are not errors: the batch succeeds with whatever
	// was actually created, possibly nothing.
	respond(c, http.StatusCreated, "Shares created successfully.", toSharePayloads(created))
}

func (h *httpHandler) handleListSharesForLink(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	list, err := h.shares.ListForLink(c.Request.Context(), c.Param("linkId"), requester.UserID)
	if errors.Is(err, shares.ErrInvalidInput) {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}
	if err != nil {
		h.respondServerError(c, "shares.list", err)
		return
	}

	respond(c, http.StatusOK, "", toSharePayloads(list))
}

func (h *httpHandler) handleUpdateShare(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var request struct {
		IsWritable bool `json:"isWritable"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}

	share, err := h.shares.Update(c.Request.Context(), c.Param("id"), requester.UserID, request.IsWritable)
	switch {
	case errors.Is(err, shares.ErrNotAuthorized):
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	case errors.Is(err, shares.ErrNotFound):
		respond(c, http.StatusBadRequest, "No share updated.", nil)
		return
	case errors.Is(err, shares.ErrInvalidInput):
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	case err != nil:
		h.respondServerError(c, "shares.update", err)
		return
	}

	respond(c, http.StatusOK, "Share updated successfully.", toSharePayload(share))
}

func (h *httpHandler) handleDeleteShare(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	err := h.shares.Delete(c.Request.Context(), c.Param("id"), requester.UserID)
	switch {
	case errors.Is(err, shares.ErrNotAuthorized):
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	case errors.Is(err, shares.ErrNotFound):
		respond(c, http.StatusBadRequest, "No share removed.", nil)
		return
	case errors.Is(err, shares.ErrInvalidInput):
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	case err != nil:
		h.respondServerError(c, "shares.delete", err)
		return
	}

	respond(c, http.StatusOK, "Share removed successfully.", nil)
}
