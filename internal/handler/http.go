// Package handler exposes the authoring service over HTTP.
package handler

import (
	"errors"
	"net/http"

	"chatform-server/internal/ai"
	"chatform-server/internal/models"
	"chatform-server/internal/publish"
	"chatform-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIError is the standardized error response body.
type APIError struct {
	Message string `json:"message"`
}

// EditorHandler handles HTTP requests for the conversation editor.
type EditorHandler struct {
	service service.EditorService
	logger  *zap.Logger
}

// NewEditorHandler creates an EditorHandler.
func NewEditorHandler(s service.EditorService, logger *zap.Logger) *EditorHandler {
	return &EditorHandler{
		service: s,
		logger:  logger.Named("EditorHandler"),
	}
}

// RegisterRoutes registers the editor API and the public serving route.
// Authentication happens upstream; the gateway forwards the authenticated
// owner in the X-User-ID header.
func (h *EditorHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	conversations := api.Group("/conversations")
	{
		conversations.POST("", h.createConversation)
		conversations.GET("", h.listConversations)
		conversations.DELETE("/:id", h.deleteConversation)

		conversations.POST("/:id/session", h.openSession)
		conversations.GET("/:id/session", h.getSessionState)
		conversations.DELETE("/:id/session", h.closeSession)

		conversations.PUT("/:id/name", h.rename)

		conversations.POST("/:id/steps", h.addStep)
		conversations.POST("/:id/steps/reorder", h.reorderSteps)
		conversations.PATCH("/:id/steps/:stepId", h.updateStep)
		conversations.DELETE("/:id/steps/:stepId", h.deleteStep)
		conversations.POST("/:id/steps/:stepId/duplicate", h.duplicateStep)
		conversations.POST("/:id/steps/:stepId/options", h.addOption)
		conversations.PATCH("/:id/steps/:stepId/options/:optionId", h.updateOption)
		conversations.DELETE("/:id/steps/:stepId/options/:optionId", h.removeOption)
		conversations.POST("/:id/steps/:stepId/settings", h.openStepSettings)
		conversations.DELETE("/:id/settings", h.closeStepSettings)

		conversations.PATCH("/:id/document", h.patchDocument)
		conversations.PATCH("/:id/welcome", h.patchWelcome)
		conversations.PATCH("/:id/end", h.patchEnd)
		conversations.PATCH("/:id/theme", h.patchTheme)
		conversations.PATCH("/:id/ai-context", h.patchAIContext)

		conversations.PUT("/:id/preview-target", h.setPreviewTarget)
		conversations.GET("/:id/preview", h.getPreview)

		conversations.POST("/:id/publish", h.publishConversation)

		conversations.POST("/:id/ai/steps/:stepId/message", h.generateStepMessage)
		conversations.POST("/:id/ai/messages", h.generateAllMessages)
		conversations.POST("/:id/ai/generate", h.generateFromContext)
	}

	// Public serving route for the published config, no auth.
	r.GET("/f/:slug", h.getPublishedConfig)
}

// ownerID extracts the authenticated owner forwarded by the gateway. Writes
// the error response itself and reports ok=false when the header is missing
// or malformed.
func (h *EditorHandler) ownerID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		c.JSON(http.StatusUnauthorized, APIError{Message: "Missing X-User-ID header"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.logger.Warn("Malformed X-User-ID header", zap.String("value", raw))
		c.JSON(http.StatusUnauthorized, APIError{Message: "Invalid X-User-ID header"})
		return uuid.Nil, false
	}
	return id, true
}

// conversationID parses the :id path parameter. Writes the error response
// itself on failure.
func (h *EditorHandler) conversationID(c *gin.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid conversation ID format", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid conversation ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// session resolves the open session for the conversation in the path,
// handling id parsing and auth errors inline.
func (h *EditorHandler) session(c *gin.Context) (*service.Session, bool) {
	owner, ok := h.ownerID(c)
	if !ok {
		return nil, false
	}
	id, ok := h.conversationID(c)
	if !ok {
		return nil, false
	}
	sess, err := h.service.Session(id, owner)
	if err != nil {
		h.handleServiceError(c, err)
		return nil, false
	}
	return sess, true
}

// handleServiceError maps service errors to HTTP responses.
func (h *EditorHandler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "Resource not found or access denied"}
	case errors.Is(err, service.ErrStepNotFound) || errors.Is(err, service.ErrOptionNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, service.ErrSessionNotOpen):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, publish.ErrPublishInFlight) || errors.Is(err, publish.ErrNothingToPublish):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, service.ErrInvalidStepType) || errors.Is(err, service.ErrAIContextRequired) ||
		errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, ai.ErrGenerationFailed):
		statusCode = http.StatusBadGateway
		apiErr = APIError{Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
		h.logger.Error("Unhandled service error", zap.Error(err))
	}
	c.JSON(statusCode, apiErr)
}
