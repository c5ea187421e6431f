package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *EditorHandler) generateStepMessage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	message, err := sess.GenerateStepMessage(c.Request.Context(), c.Param("stepId"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, generateMessageResponse{Message: message})
}

func (h *EditorHandler) generateAllMessages(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	result, err := sess.GenerateAllMessages(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *EditorHandler) generateFromContext(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	state, err := sess.GenerateFromContext(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
