package handler

import (
	"net/http"

	"chatform-server/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *EditorHandler) patchDocument(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req documentPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
		return
	}
	c.JSON(http.StatusOK, sess.PatchDocument(req.toPatch()))
}

func (h *EditorHandler) patchWelcome(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req welcomePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
		return
	}
	c.JSON(http.StatusOK, sess.PatchWelcome(req.toPatch()))
}

func (h *EditorHandler) patchEnd(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req endPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
		return
	}
	c.JSON(http.StatusOK, sess.PatchEnd(req.toPatch()))
}

func (h *EditorHandler) patchTheme(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req themePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
		return
	}
	c.JSON(http.StatusOK, sess.PatchTheme(req.toPatch()))
}

func (h *EditorHandler) patchAIContext(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req aiContextPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
		return
	}
	c.JSON(http.StatusOK, sess.PatchAIContext(req.toPatch()))
}

func (h *EditorHandler) setPreviewTarget(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var target models.PreviewTarget
	if err := c.ShouldBindJSON(&target); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPreviewResponse(sess.SetPreviewTarget(target)))
}

func (h *EditorHandler) getPreview(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toPreviewResponse(sess.Preview()))
}

func (h *EditorHandler) publishConversation(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	state, err := sess.Publish(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
