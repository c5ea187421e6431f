package handler

import (
	"errors"
	"net/http"

	"chatform-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *EditorHandler) createConversation(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: name is required"})
		return
	}

	conv, err := h.service.CreateConversation(c.Request.Context(), owner, req.Name)
	if err != nil {
		h.logger.Error("Failed to create conversation", zap.String("ownerID", owner.String()), zap.Error(err))
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSummary(*conv))
}

func (h *EditorHandler) listConversations(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	conversations, err := h.service.ListConversations(c.Request.Context(), owner)
	if err != nil {
		h.logger.Error("Failed to list conversations", zap.String("ownerID", owner.String()), zap.Error(err))
		h.handleServiceError(c, err)
		return
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summaries = append(summaries, toSummary(conv))
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *EditorHandler) deleteConversation(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.conversationID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteConversation(c.Request.Context(), id, owner); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.Error("Failed to delete conversation", zap.String("conversationID", id.String()), zap.Error(err))
		}
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EditorHandler) openSession(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.conversationID(c)
	if !ok {
		return
	}

	sess, err := h.service.OpenSession(c.Request.Context(), id, owner)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.Error("Failed to open session", zap.String("conversationID", id.String()), zap.Error(err))
		}
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *EditorHandler) getSessionState(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *EditorHandler) closeSession(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.conversationID(c)
	if !ok {
		return
	}

	if err := h.service.CloseSession(c.Request.Context(), id, owner); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EditorHandler) rename(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: name is required"})
		return
	}
	c.JSON(http.StatusOK, sess.Rename(req.Name))
}

func (h *EditorHandler) getPublishedConfig(c *gin.Context) {
	slug := c.Param("slug")

	cfg, err := h.service.GetPublishedConfig(c.Request.Context(), slug)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.Error("Failed to load published config", zap.String("slug", slug), zap.Error(err))
		}
		h.handleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", cfg)
}
