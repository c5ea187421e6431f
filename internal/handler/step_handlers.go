package handler

import (
	"net/http"

	"chatform-server/internal/document"

	"github.com/gin-gonic/gin"
)

func (h *EditorHandler) addStep(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req addStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: type is required"})
		return
	}

	step, err := sess.AddStep(req.Type, req.Label)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, step)
}

func (h *EditorHandler) updateStep(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req updateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
		return
	}

	if err := sess.UpdateStep(c.Param("stepId"), req.toPatch()); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *EditorHandler) deleteStep(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := sess.DeleteStep(c.Param("stepId")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *EditorHandler) duplicateStep(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	dup, err := sess.DuplicateStep(c.Param("stepId"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dup)
}

func (h *EditorHandler) reorderSteps(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: from and to are required"})
		return
	}

	sess.ReorderStep(req.From, req.To)
	c.JSON(http.StatusOK, sess.State())
}

func (h *EditorHandler) addOption(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req addOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: label is required"})
		return
	}

	opt, err := sess.AddOption(c.Param("stepId"), req.Label)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, opt)
}

func (h *EditorHandler) updateOption(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req updateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
		return
	}

	patch := document.OptionPatch{Label: req.Label, Value: req.Value}
	if err := sess.UpdateOption(c.Param("stepId"), c.Param("optionId"), patch); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *EditorHandler) removeOption(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := sess.RemoveOption(c.Param("stepId"), c.Param("optionId")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *EditorHandler) openStepSettings(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := sess.OpenStepSettings(c.Param("stepId")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *EditorHandler) closeStepSettings(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.CloseStepSettings()
	c.JSON(http.StatusOK, sess.State())
}
