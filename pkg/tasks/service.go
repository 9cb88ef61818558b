package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/jordanlanch/realtycrm/pkg/cache"
	"github.com/jordanlanch/realtycrm/pkg/database"
	"github.com/jordanlanch/realtycrm/pkg/domain"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

// Collection is the cache namespace for task reads
const Collection = "tasks"

var columns = []string{
	"id", "title", "description", "type", "priority", "status", "due_date", "completed_at",
	"lead_id", "property_id", "deal_id", "assigned_to", "created_by", "created_at", "updated_at",
}

// OpenStatuses are the statuses of tasks that still need work
var OpenStatuses = []string{models.TaskStatusPending, models.TaskStatusInProgress}

// Service handles tasks
type Service struct {
	db    *database.Client
	cache *cache.ListCache
	log   logger.Logger
	now   func() time.Time
}

// NewService creates a new task service. lc may be nil.
func NewService(db *database.Client, lc *cache.ListCache, log logger.Logger) *Service {
	return &Service{db: db, cache: lc, log: logger.OrDefault(log), now: time.Now}
}

// WithClock overrides the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func scanTask(sc database.Scanner) (*models.Task, error) {
	var (
		t                      models.Task
		due, completed         sql.NullTime
		leadID, propID, dealID sql.NullString
	)
	err := sc.Scan(
		&t.ID, &t.Title, &t.Description, &t.Type, &t.Priority, &t.Status, &due, &completed,
		&leadID, &propID, &dealID, &t.AssignedTo, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.DueDate = database.TimePtr(due)
	t.CompletedAt = database.TimePtr(completed)
	t.LeadID = database.StringPtr(leadID)
	t.PropertyID = database.StringPtr(propID)
	t.DealID = database.StringPtr(dealID)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func (s *Service) checkReference(ctx context.Context, table, resource string, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	ok, err := s.db.Exists(ctx, table, *id)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", resource, err)
	}
	if !ok {
		return domain.NewReferenceError(resource, nil)
	}
	return nil
}

func (s *Service) checkReferences(ctx context.Context, leadID, propertyID, dealID *string) error {
	if err := s.checkReference(ctx, database.LeadsTable, "lead", leadID); err != nil {
		return err
	}
	if err := s.checkReference(ctx, database.PropertiesTable, "property", propertyID); err != nil {
		return err
	}
	return s.checkReference(ctx, database.DealsTable, "deal", dealID)
}

func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Create stores a new task. Each optional reference must exist.
func (s *Service) Create(ctx context.Context, req models.CreateTaskRequest, actorID string) (*models.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if err := s.checkReferences(ctx, req.LeadID, req.PropertyID, req.DealID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &models.Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        orDefault(req.Type, "other"),
		Priority:    orDefault(req.Priority, "medium"),
		Status:      orDefault(req.Status, models.TaskStatusPending),
		DueDate:     utcPtr(req.DueDate),
		LeadID:      nonEmpty(req.LeadID),
		PropertyID:  nonEmpty(req.PropertyID),
		DealID:      nonEmpty(req.DealID),
		AssignedTo:  req.AssignedTo,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == models.TaskStatusCompleted {
		t.CompletedAt = &now
	}

	_, err := s.db.Exec(ctx, s.db.Builder().Insert(database.TasksTable).
		Columns(columns...).
		Values(
			t.ID, t.Title, t.Description, t.Type, t.Priority, t.Status,
			database.NullTime(t.DueDate), database.NullTime(t.CompletedAt),
			database.NullString(t.LeadID), database.NullString(t.PropertyID), database.NullString(t.DealID),
			t.AssignedTo, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
		))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, domain.NewReferenceError("lead, property or deal", err)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.cache.Invalidate(ctx, Collection)
	return t, nil
}

// Get returns a task by id
func (s *Service) Get(ctx context.Context, id string) (*models.Task, error) {
	b := s.db.Builder()
	t, err := scanTask(s.db.QueryRow(ctx, b.Select(columns...).From(b.Table(database.TasksTable)).Where(entsql.EQ("id", id))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("task")
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	return t, nil
}

func listPredicates(f models.TaskFilter) []*entsql.Predicate {
	var preds []*entsql.Predicate
	if f.Status != "" {
		preds = append(preds, entsql.EQ("status", f.Status))
	}
	if f.AssignedTo != "" {
		preds = append(preds, entsql.EQ("assigned_to", f.AssignedTo))
	}
	if f.LeadID != "" {
		preds = append(preds, entsql.EQ("lead_id", f.LeadID))
	}
	if f.DealID != "" {
		preds = append(preds, entsql.EQ("deal_id", f.DealID))
	}
	if f.DueBefore != nil {
		preds = append(preds, entsql.NotNull("due_date"), entsql.LT("due_date", f.DueBefore.UTC()))
	}
	return preds
}

// List returns tasks newest first, cached per filter
func (s *Service) List(ctx context.Context, f models.TaskFilter) (*models.ListResponse[models.Task], error) {
	f.Limit = models.NormalizeLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}

	return cache.Cached(ctx, s.cache, Collection, cache.ListKey(Collection, f), func() (*models.ListResponse[models.Task], error) {
		total, err := s.db.Count(ctx, database.TasksTable, listPredicates(f)...)
		if err != nil {
			return nil, err
		}

		b := s.db.Builder()
		sel := b.Select(columns...).From(b.Table(database.TasksTable)).
			OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
			Limit(f.Limit).Offset(f.Offset)
		if preds := listPredicates(f); len(preds) > 0 {
			sel.Where(entsql.And(preds...))
		}

		data, err := s.collect(ctx, sel)
		if err != nil {
			return nil, err
		}
		return &models.ListResponse[models.Task]{Data: data, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
	})
}

func (s *Service) collect(ctx context.Context, sel *entsql.Selector) ([]models.Task, error) {
	out := []models.Task{}
	err := s.db.QueryEach(ctx, sel, func(sc database.Scanner) error {
		t, err := scanTask(sc)
		if err != nil {
			return err
		}
		out = append(out, *t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return out, nil
}

// Update applies a partial update
func (s *Service) Update(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t := *current
	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
		if t.Title == "" {
			return nil, domain.NewValidationError("title cannot be empty")
		}
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Type != nil {
		t.Type = *req.Type
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		t.DueDate = utcPtr(req.DueDate)
	}
	if req.AssignedTo != nil {
		t.AssignedTo = *req.AssignedTo
	}
	t.UpdatedAt = s.now().UTC()

	upd := s.db.Builder().Update(database.TasksTable).
		Set("title", t.Title).
		Set("description", t.Description).
		Set("type", t.Type).
		Set("priority", t.Priority).
		Set("due_date", database.NullTime(t.DueDate)).
		Set("assigned_to", t.AssignedTo).
		Set("updated_at", t.UpdatedAt).
		Where(entsql.EQ("id", id))
	if req.DueDate != nil {
		// A new due date re-arms the due-soon reminder.
		upd.SetNull("due_notified_at")
	}
	if _, err := s.db.Exec(ctx, upd); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.cache.Invalidate(ctx, Collection)
	return &t, nil
}

// UpdateStatus changes a task's status. completed_at is set when the task
// becomes completed and cleared when it leaves completed.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*models.Task, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t := *current
	now := s.now().UTC()
	switch {
	case status == models.TaskStatusCompleted && current.Status != models.TaskStatusCompleted:
		t.CompletedAt = &now
	case status != models.TaskStatusCompleted:
		t.CompletedAt = nil
	}
	t.Status = status
	t.UpdatedAt = now

	_, err = s.db.Exec(ctx, s.db.Builder().Update(database.TasksTable).
		Set("status", t.Status).
		Set("completed_at", database.NullTime(t.CompletedAt)).
		Set("updated_at", t.UpdatedAt).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	s.cache.Invalidate(ctx, Collection)
	return &t, nil
}

// DueBetween returns open tasks due in [from, to) whose reminder has not been sent
func (s *Service) DueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	statuses := make([]any, len(OpenStatuses))
	for i, st := range OpenStatuses {
		statuses[i] = st
	}

	b := s.db.Builder()
	sel := b.Select(columns...).From(b.Table(database.TasksTable)).
		Where(entsql.And(
			entsql.In("status", statuses...),
			entsql.NotNull("due_date"),
			entsql.GTE("due_date", from.UTC()),
			entsql.LT("due_date", to.UTC()),
			entsql.IsNull("due_notified_at"),
		)).
		OrderBy("due_date")
	return s.collect(ctx, sel)
}

// MarkDueNotified records that the due-soon reminder for a task was sent
func (s *Service) MarkDueNotified(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.Exec(ctx, s.db.Builder().Update(database.TasksTable).
		Set("due_notified_at", at.UTC()).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("failed to mark task %s notified: %w", id, err)
	}
	return nil
}

// CountOpen returns the number of pending or in-progress tasks
func (s *Service) CountOpen(ctx context.Context) (int, error) {
	statuses := make([]any, len(OpenStatuses))
	for i, st := range OpenStatuses {
		statuses[i] = st
	}
	return s.db.Count(ctx, database.TasksTable, entsql.In("status", statuses...))
}
