package models

import "time"

// Deal ties one lead to one property as a transaction moves toward handover
type Deal struct {
	ID                string     `json:"id"`
	LeadID            string     `json:"lead_id"`
	PropertyID        string     `json:"property_id"`
	Status            string     `json:"status"`
	DealValue         float64    `json:"deal_value"`
	OfferAmount       float64    `json:"offer_amount"`
	Commission        float64    `json:"commission"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	AssignedTo        string     `json:"assigned_to,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CreateDealRequest is the deal form payload
type CreateDealRequest struct {
	LeadID            string     `json:"lead_id" validate:"required,uuid"`
	PropertyID        string     `json:"property_id" validate:"required,uuid"`
	Status            string     `json:"status" validate:"omitempty,max=50"`
	DealValue         float64    `json:"deal_value" validate:"min=0"`
	OfferAmount       float64    `json:"offer_amount" validate:"min=0"`
	Commission        float64    `json:"commission" validate:"min=0"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	Notes             string     `json:"notes" validate:"max=5000"`
	AssignedTo        string     `json:"assigned_to" validate:"max=64"`
}

// UpdateDealRequest is a partial deal update
type UpdateDealRequest struct {
	DealValue         *float64   `json:"deal_value" validate:"omitempty,min=0"`
	OfferAmount       *float64   `json:"offer_amount" validate:"omitempty,min=0"`
	Commission        *float64   `json:"commission" validate:"omitempty,min=0"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	Notes             *string    `json:"notes" validate:"omitempty,max=5000"`
	AssignedTo        *string    `json:"assigned_to" validate:"omitempty,max=64"`
}

// DealFilter holds list query parameters for deals
type DealFilter struct {
	Status     string `query:"status" validate:"omitempty,max=50"`
	LeadID     string `query:"lead_id" validate:"omitempty,uuid"`
	PropertyID string `query:"property_id" validate:"omitempty,uuid"`
	Limit      int    `query:"limit" validate:"min=0,max=100"`
	Offset     int    `query:"offset" validate:"min=0"`
}

// Assignee returns the user responsible for the deal
func (d *Deal) Assignee() string { return d.AssignedTo }
