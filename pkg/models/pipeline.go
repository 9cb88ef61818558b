package models

import "time"

// MoveStatusRequest is the drag-and-drop payload: only the target status
type MoveStatusRequest struct {
	Status string `json:"status" validate:"required,max=50"`
}

// MoveResult is returned after a status move
type MoveResult struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	UpdatedAt time.Time `json:"updated_at"`
	Item      any       `json:"item"`
}

// BoardColumn is one bucket of a grouped pipeline view
type BoardColumn struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
	Count int    `json:"count"`
	Items []any  `json:"items"`
}

// BoardResponse is the grouped pipeline view for one entity kind
type BoardResponse struct {
	Kind    string        `json:"kind"`
	Columns []BoardColumn `json:"columns"`
}

// DashboardSummary holds the counts shown on the dashboard and sent as AI context
type DashboardSummary struct {
	LeadsByStatus       map[string]int `json:"leads_by_status"`
	PropertiesByStatus  map[string]int `json:"properties_by_status"`
	DealsByStatus       map[string]int `json:"deals_by_status"`
	OpenTasks           int            `json:"open_tasks"`
	UnreadNotifications int            `json:"unread_notifications"`
}
