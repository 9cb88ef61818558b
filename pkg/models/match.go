package models

import "time"

// LeadPropertyMatch is a regenerable suggestion pairing a lead with a property
type LeadPropertyMatch struct {
	ID         string    `json:"id"`
	LeadID     string    `json:"lead_id"`
	PropertyID string    `json:"property_id"`
	MatchScore int       `json:"match_score"`
	Reasons    []string  `json:"reasons"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	Property   *Property `json:"property,omitempty"`
}

// UpdateMatchStatusRequest changes the state of a suggestion
type UpdateMatchStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=suggested sent dismissed interested"`
}
