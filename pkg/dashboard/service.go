package dashboard

import (
	"context"
	"fmt"

	"github.com/jordanlanch/realtycrm/pkg/database"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
)

// TaskCounter counts open tasks
type TaskCounter interface {
	CountOpen(ctx context.Context) (int, error)
}

// UnreadCounter counts a user's unread notifications
type UnreadCounter interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// Service builds the dashboard summary
type Service struct {
	db            *database.Client
	tasks         TaskCounter
	notifications UnreadCounter
	log           logger.Logger
}

// NewService creates a new dashboard service
func NewService(db *database.Client, tasks TaskCounter, notifications UnreadCounter, log logger.Logger) *Service {
	return &Service{db: db, tasks: tasks, notifications: notifications, log: logger.OrDefault(log)}
}

var tables = map[pipeline.Kind]string{
	pipeline.KindLead:     database.LeadsTable,
	pipeline.KindProperty: database.PropertiesTable,
	pipeline.KindDeal:     database.DealsTable,
}

// StatusCounts returns the number of items per status. Every status of the
// kind's catalog is present, zero when empty.
func (s *Service) StatusCounts(ctx context.Context, kind pipeline.Kind) (map[string]int, error) {
	table, ok := tables[kind]
	if !ok {
		return nil, fmt.Errorf("no table for kind %q", kind)
	}
	counts, err := s.db.CountBy(ctx, table, "status")
	if err != nil {
		return nil, err
	}
	for _, status := range pipeline.CatalogFor(kind).Statuses() {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	return counts, nil
}

// Summary returns per-status counts for leads, properties and deals, the
// open task count and the caller's unread notification count
func (s *Service) Summary(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	var (
		out models.DashboardSummary
		err error
	)
	if out.LeadsByStatus, err = s.StatusCounts(ctx, pipeline.KindLead); err != nil {
		return nil, err
	}
	if out.PropertiesByStatus, err = s.StatusCounts(ctx, pipeline.KindProperty); err != nil {
		return nil, err
	}
	if out.DealsByStatus, err = s.StatusCounts(ctx, pipeline.KindDeal); err != nil {
		return nil, err
	}
	if out.OpenTasks, err = s.tasks.CountOpen(ctx); err != nil {
		return nil, err
	}
	if userID != "" {
		if out.UnreadNotifications, err = s.notifications.UnreadCount(ctx, userID); err != nil {
			s.log.Warn("failed to count unread notifications", "user_id", userID, "error", err)
		}
	}
	return &out, nil
}
