package models

import "time"

// Task is a to-do item optionally attached to a lead, property and/or deal
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	LeadID      *string    `json:"lead_id,omitempty"`
	PropertyID  *string    `json:"property_id,omitempty"`
	DealID      *string    `json:"deal_id,omitempty"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateTaskRequest is the task form payload
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Type        string     `json:"type" validate:"omitempty,oneof=call email meeting showing follow_up paperwork other"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	DueDate     *time.Time `json:"due_date"`
	LeadID      *string    `json:"lead_id" validate:"omitempty,uuid"`
	PropertyID  *string    `json:"property_id" validate:"omitempty,uuid"`
	DealID      *string    `json:"deal_id" validate:"omitempty,uuid"`
	AssignedTo  string     `json:"assigned_to" validate:"max=64"`
}

// UpdateTaskRequest is a partial task update
type UpdateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Type        *string    `json:"type" validate:"omitempty,oneof=call email meeting showing follow_up paperwork other"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to" validate:"omitempty,max=64"`
}

// UpdateTaskStatusRequest changes only a task's status
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
}

// TaskFilter holds list query parameters for tasks
type TaskFilter struct {
	Status     string     `query:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	AssignedTo string     `query:"assigned_to" validate:"omitempty,max=64"`
	LeadID     string     `query:"lead_id" validate:"omitempty,uuid"`
	DealID     string     `query:"deal_id" validate:"omitempty,uuid"`
	DueBefore  *time.Time `query:"-"`
	Limit      int        `query:"limit" validate:"min=0,max=100"`
	Offset     int        `query:"offset" validate:"min=0"`
}
