package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkhive/backend/internal/links"
)

type linkRequestPayload struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	URL        string `json:"url"`
}

type linkPayload struct {
	ID           string `json:"id"`
	OwnerUserID  string `json:"owner_user_id"`
	OwnerEmail   string `json:"owner_email"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Name         string `json:"name"`
	URL          string `json:"url"`
}

func toLinkPayload(link links.Link) linkPayload {
	return linkPayload{
		ID:           link.ID,
		OwnerUserID:  link.OwnerUserID,
		OwnerEmail:   link.OwnerEmail,
		CategoryID:   link.CategoryID,
		CategoryName: link.CategoryName,
		Name:         link.Name,
		URL:          link.URL,
	}
}

func (h *httpHandler) handleCreateLink(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var request linkRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}

	link, err := h.links.Create(c.Request.Context(), requester.UserID, requester.Email, request.CategoryID, request.Name, request.URL)
	if errors.Is(err, links.ErrInvalidInput) || errors.Is(err, links.ErrInvalidCategory) {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}
	if err != nil {
		h.respondServerError(c, "links.create", err)
		return
	}

	respond(c, http.StatusCreated, "Link created successfully.", toLinkPayload(link))
}

func (h *httpHandler) handleListLinks(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	scope, err := links.ParseScope(c.Query("mode"))
	if err != nil {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}
	filter := links.ListFilter{
		CategoryID:   c.Query("categoryId"),
		NameContains: c.Query("name"),
	}

	visible, err := h.links.ListVisible(c.Request.Context(), requester.UserID, scope, filter)
	if err != nil {
		h.respondServerError(c, "links.list", err)
		return
	}

	payload := make([]linkPayload, 0, len(visible))
	for _, link := range visible {
		payload = append(payload, toLinkPayload(link))
	}
	respond(c, http.StatusOK, "", payload)
}

func (h *httpHandler) handleUpdateLink(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var request linkRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	}

	link, err := h.links.Update(c.Request.Context(), c.Param("id"), requester.UserID, request.CategoryID, request.Name, request.URL)
	switch {
	case errors.Is(err, links.ErrNotAuthorized):
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	case errors.Is(err, links.ErrNotFound):
		respond(c, http.StatusBadRequest, "No link updated.", nil)
		return
	case errors.Is(err, links.ErrInvalidInput), errors.Is(err, links.ErrInvalidCategory):
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	case err != nil:
		h.respondServerError(c, "links.update", err)
		return
	}

	respond(c, http.StatusOK, "Link updated successfully.", toLinkPayload(link))
}

func (h *httpHandler) handleDeleteLink(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	err := h.links.Delete(c.Request.Context(), c.Param("id"), requester.UserID)
	switch {
	case errors.Is(err, links.ErrNotAuthorized):
		respond(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	case errors.Is(err, links.ErrNotFound):
		respond(c, http.StatusBadRequest, "No link removed.", nil)
		return
	case errors.Is(err, links.ErrInvalidInput):
		respond(c, http.StatusBadRequest, "Invalid Input", nil)
		return
	case err != nil:
		h.respondServerError(c, "links.delete", err)
		return
	}

	respond(c, http.StatusOK, "Link removed successfully.", nil)
}
