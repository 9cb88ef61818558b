package models

import "time"

// Lead is a prospective buyer or tenant tracked through the sales pipeline
type Lead struct {
	ID                 string    `json:"id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Source             string    `json:"source,omitempty"`
	Status             string    `json:"status"`
	Score              int       `json:"score"`
	Budget             float64   `json:"budget,omitempty"`
	BudgetMax          float64   `json:"budget_max,omitempty"`
	PreferredLocations []string  `json:"preferred_locations"`
	PropertyTypes      []string  `json:"property_types"`
	Notes              string    `json:"notes,omitempty"`
	AssignedTo         string    `json:"assigned_to,omitempty"`
	CreatedBy          string    `json:"created_by,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// FullName joins first and last name
func (l *Lead) FullName() string {
	if l.LastName == "" {
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}

// CreateLeadRequest is the lead form payload
type CreateLeadRequest struct {
	FirstName          string   `json:"first_name" validate:"required,max=100"`
	LastName           string   `json:"last_name" validate:"max=100"`
	Email              string   `json:"email" validate:"omitempty,email,max=255"`
	Phone              string   `json:"phone" validate:"omitempty,max=32"`
	Country            string   `json:"country" validate:"omitempty,len=2"`
	Source             string   `json:"source" validate:"omitempty,oneof=website referral zillow walk_in social open_house other"`
	Status             string   `json:"status" validate:"omitempty,oneof=new contacted qualified tour offer closed lost nurturing"`
	Score              int      `json:"score" validate:"min=0,max=100"`
	Budget             float64  `json:"budget" validate:"min=0"`
	BudgetMax          float64  `json:"budget_max" validate:"omitempty,min=0,gtefield=Budget"`
	PreferredLocations []string `json:"preferred_locations" validate:"max=20,dive,required,max=100"`
	PropertyTypes      []string `json:"property_types" validate:"max=10,dive,oneof=house apartment condo townhouse land commercial"`
	Notes              string   `json:"notes" validate:"max=5000"`
	AssignedTo         string   `json:"assigned_to" validate:"max=64"`
}

// UpdateLeadRequest is a partial lead update. Status changes go through the pipeline.
type UpdateLeadRequest struct {
	FirstName          *string   `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName           *string   `json:"last_name" validate:"omitempty,max=100"`
	Email              *string   `json:"email" validate:"omitempty,email,max=255"`
	Phone              *string   `json:"phone" validate:"omitempty,max=32"`
	Country            string    `json:"country" validate:"omitempty,len=2"`
	Source             *string   `json:"source" validate:"omitempty,oneof=website referral zillow walk_in social open_house other"`
	Score              *int      `json:"score" validate:"omitempty,min=0,max=100"`
	Budget             *float64  `json:"budget" validate:"omitempty,min=0"`
	BudgetMax          *float64  `json:"budget_max" validate:"omitempty,min=0"`
	PreferredLocations *[]string `json:"preferred_locations" validate:"omitempty,max=20,dive,required,max=100"`
	PropertyTypes      *[]string `json:"property_types" validate:"omitempty,max=10,dive,oneof=house apartment condo townhouse land commercial"`
	Notes              *string   `json:"notes" validate:"omitempty,max=5000"`
	AssignedTo         *string   `json:"assigned_to" validate:"omitempty,max=64"`
}

// LeadFilter holds list query parameters for leads
type LeadFilter struct {
	Status     string `query:"status" validate:"omitempty,max=50"`
	AssignedTo string `query:"assigned_to" validate:"omitempty,max=64"`
	Q          string `query:"q" validate:"omitempty,max=100"`
	Limit      int    `query:"limit" validate:"min=0,max=100"`
	Offset     int    `query:"offset" validate:"min=0"`
}

// Assignee returns the agent responsible for the lead
func (l *Lead) Assignee() string { return l.AssignedTo }
