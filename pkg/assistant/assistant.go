package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jordanlanch/realtycrm/pkg/ai/llm"
	"github.com/jordanlanch/realtycrm/pkg/domain"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

var (
	// ErrNotConfigured is returned when no chat model is configured
	ErrNotConfigured = errors.New("assistant is not configured")
	// ErrUpstream wraps failures of the chat model
	ErrUpstream = errors.New("assistant upstream failure")
)

// Bridge forwards chat messages and a UI context snapshot to the chat
// model and returns its reply unchanged
type Bridge struct {
	llm llm.LLMClient
	log logger.Logger
}

// New creates a bridge. client may be nil when no API key is configured.
func New(client llm.LLMClient, log logger.Logger) *Bridge {
	return &Bridge{llm: client, log: logger.OrDefault(log)}
}

// Enabled reports whether a chat model is configured
func (b *Bridge) Enabled() bool {
	return b != nil && b.llm != nil
}

// Chat sends the message with a system prompt built from the context
func (b *Bridge) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, domain.NewValidationError("message is required")
	}
	if !b.Enabled() {
		return nil, ErrNotConfigured
	}

	system := llm.AssistantPrompt(llm.ContextPrompt(req.Context.Page, req.Context.Counts, req.Context.IDs))
	resp, err := b.llm.Chat(ctx, llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		b.log.Error("assistant chat failed", "page", req.Context.Page, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &models.ChatResponse{Response: resp.Message}, nil
}
