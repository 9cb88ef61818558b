package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/api/errors"
	"github.com/jordanlanch/realtycrm/pkg/assistant"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

// AssistantRecorder observes assistant outcomes
type AssistantRecorder interface {
	RecordAssistantRequest(success bool)
}

// AIHandler handles AI-powered endpoints
type AIHandler struct {
	bridge    *assistant.Bridge
	recorder  AssistantRecorder
	validator *validator.Validate
}

// NewAIHandler creates a new AI handler. recorder may be nil.
func NewAIHandler(bridge *assistant.Bridge, recorder AssistantRecorder) *AIHandler {
	return &AIHandler{
		bridge:    bridge,
		recorder:  recorder,
		validator: validator.New(),
	}
}

// Chat forwards a message and the page context to the assistant
// POST /api/v1/ai/chat
func (h *AIHandler) Chat(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	var req models.ChatRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	resp, err := h.bridge.Chat(ctx, req)
	switch {
	case err == nil:
		h.record(true)
		return c.JSON(http.StatusOK, resp)
	case stderrors.Is(err, assistant.ErrNotConfigured):
		return errors.UnavailableError(c, "The AI assistant is not configured.")
	case stderrors.Is(err, assistant.ErrUpstream):
		h.record(false)
		return errors.UpstreamError(c, err)
	default:
		return errors.FromDomain(c, err)
	}
}

func (h *AIHandler) record(success bool) {
	if h.recorder != nil {
		h.recorder.RecordAssistantRequest(success)
	}
}
