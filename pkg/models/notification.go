package models

import "time"

// Notification is a per-user message whose only mutation is unread -> read
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message,omitempty"`
	IsRead    bool           `json:"is_read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	ActionURL string         `json:"action_url,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NotificationFilter selects notifications for the caller
type NotificationFilter struct {
	IsRead *bool `query:"is_read"`
	Limit  int   `query:"limit" validate:"min=0,max=100"`
}

// UnreadCountResponse is returned by the unread-count endpoint
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MarkAllReadResponse reports how many notifications changed state
type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}
