package models

import "time"

// Activity is an append-only log entry
type Activity struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	LeadID      *string        `json:"lead_id,omitempty"`
	PropertyID  *string        `json:"property_id,omitempty"`
	DealID      *string        `json:"deal_id,omitempty"`
	UserID      string         `json:"user_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreateActivityRequest logs a manual activity (call, note, showing...)
type CreateActivityRequest struct {
	Type        string         `json:"type" validate:"required,oneof=note call email meeting showing"`
	Description string         `json:"description" validate:"required,max=5000"`
	LeadID      *string        `json:"lead_id" validate:"omitempty,uuid"`
	PropertyID  *string        `json:"property_id" validate:"omitempty,uuid"`
	DealID      *string        `json:"deal_id" validate:"omitempty,uuid"`
	Metadata    map[string]any `json:"metadata"`
}

// ActivityFilter holds list query parameters for activities
type ActivityFilter struct {
	LeadID     string `query:"lead_id" validate:"omitempty,uuid"`
	PropertyID string `query:"property_id" validate:"omitempty,uuid"`
	DealID     string `query:"deal_id" validate:"omitempty,uuid"`
	Limit      int    `query:"limit" validate:"min=0,max=100"`
}
