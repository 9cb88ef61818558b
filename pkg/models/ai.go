package models

// ChatContext is the lightweight snapshot the UI sends with a chat message
type ChatContext struct {
	Page   string         `json:"page" validate:"max=100"`
	Counts map[string]int `json:"counts,omitempty"`
	IDs    []string       `json:"ids,omitempty" validate:"max=50"`
}

// ChatRequest is the AI assistant payload
type ChatRequest struct {
	Message string      `json:"message" validate:"required,max=4000"`
	Context ChatContext `json:"context"`
}

// ChatResponse carries the assistant's text verbatim
type ChatResponse struct {
	Response string `json:"response"`
}
