package models

// Lead statuses
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusTour      = "tour"
	LeadStatusOffer     = "offer"
	LeadStatusClosed    = "closed"
	LeadStatusLost      = "lost"
	LeadStatusNurturing = "nurturing"
)

// Property statuses
const (
	PropertyStatusAvailable = "available"
	PropertyStatusPending   = "pending"
	PropertyStatusSold      = "sold"
	PropertyStatusWithdrawn = "withdrawn"
)

// Deal statuses
const (
	DealStatusOffer      = "offer"
	DealStatusInspection = "inspection"
	DealStatusLegal      = "legal"
	DealStatusPayment    = "payment"
	DealStatusHandover   = "handover"
	DealStatusLost       = "lost"
)

// Task statuses
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

// Notification types
const (
	NotificationLeadAssigned  = "lead_assigned"
	NotificationTaskDue       = "task_due"
	NotificationDealUpdate    = "deal_update"
	NotificationStatusChange  = "status_change"
	NotificationPropertyMatch = "property_match"
	NotificationSystem        = "system"
)

// Match statuses
const (
	MatchStatusSuggested  = "suggested"
	MatchStatusSent       = "sent"
	MatchStatusDismissed  = "dismissed"
	MatchStatusInterested = "interested"
)

// Activity types
const (
	ActivityStatusChanged = "status_changed"
	ActivityCreated       = "created"
	ActivityNote          = "note"
	ActivityCall          = "call"
	ActivityEmail         = "email"
	ActivityMeeting       = "meeting"
	ActivityShowing       = "showing"
)
