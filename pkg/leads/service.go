package leads

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
	"github.com/jordanlanch/realtycrm/pkg/phone"
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
)

// Collection is the cache namespace for lead reads
const Collection = "leads"

var columns = []string{
	"id", "first_name", "last_name", "email", "phone", "source", "status", "score",
	"budget", "budget_max", "preferred_locations", "property_types", "notes",
	"assigned_to", "created_by", "created_at", "updated_at",
}

// Notifier creates notifications for lead assignments
type Notifier interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// Service handles lead persistence
type Service struct {
	db       *database.Client
	cache    *cache.ListCache
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
}

// NewService creates a new lead service. lc may be nil.
func NewService(db *database.Client, lc *cache.ListCache, log logger.Logger) *Service {
	return &Service{db: db, cache: lc, log: logger.OrDefault(log), now: time.Now}
}

// WithNotifier sends lead_assigned notifications on assignment changes
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithClock overrides the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func scanLead(sc database.Scanner) (*models.Lead, error) {
	var (
		l                 models.Lead
		locations, ptypes sql.NullString
	)
	err := sc.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Source, &l.Status, &l.Score,
		&l.Budget, &l.BudgetMax, &locations, &ptypes, &l.Notes,
		&l.AssignedTo, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := database.DecodeJSON(locations, &l.PreferredLocations); err != nil {
		return nil, fmt.Errorf("failed to decode preferred_locations: %w", err)
	}
	if err := database.DecodeJSON(ptypes, &l.PropertyTypes); err != nil {
		return nil, fmt.Errorf("failed to decode property_types: %w", err)
	}
	if l.PreferredLocations == nil {
		l.PreferredLocations = []string{}
	}
	if l.PropertyTypes == nil {
		l.PropertyTypes = []string{}
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// Create stores a new lead. The status defaults to "new"; the phone number
// is stored in E.164 form when it parses.
func (s *Service) Create(ctx context.Context, req models.CreateLeadRequest, actorID string) (*models.Lead, error) {
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return nil, domain.NewValidationError("first_name is required")
	}
	status, err := pipeline.NormalizeStatus(pipeline.KindLead, req.Status)
	if err != nil {
		return nil, err
	}
	if req.BudgetMax > 0 && req.BudgetMax < req.Budget {
		return nil, domain.NewValidationError("budget_max must be greater than or equal to budget")
	}

	now := s.now().UTC()
	l := &models.Lead{
		ID:                 uuid.NewString(),
		FirstName:          firstName,
		LastName:           strings.TrimSpace(req.LastName),
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		Source:             req.Source,
		Status:             status,
		Score:              req.Score,
		Budget:             req.Budget,
		BudgetMax:          req.BudgetMax,
		PreferredLocations: emptyIfNil(req.PreferredLocations),
		PropertyTypes:      emptyIfNil(req.PropertyTypes),
		Notes:              req.Notes,
		AssignedTo:         req.AssignedTo,
		CreatedBy:          actorID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.Phone != "" {
		l.Phone = phone.NormalizeOrKeep(req.Phone, req.Country)
	}

	_, err = s.db.Exec(ctx, s.db.Builder().Insert(database.LeadsTable).
		Columns(columns...).
		Values(
			l.ID, l.FirstName, l.LastName, l.Email, l.Phone, l.Source, l.Status, l.Score,
			l.Budget, l.BudgetMax, database.JSON(l.PreferredLocations), database.JSON(l.PropertyTypes), l.Notes,
			l.AssignedTo, l.CreatedBy, l.CreatedAt, l.UpdatedAt,
		))
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.cache.Invalidate(ctx, Collection)
	s.notifyAssignment(ctx, l, "", actorID)
	return l, nil
}

// Get returns a lead by id
func (s *Service) Get(ctx context.Context, id string) (*models.Lead, error) {
	b := s.db.Builder()
	sel := b.Select(columns...).From(b.Table(database.LeadsTable)).Where(entsql.EQ("id", id))

	l, err := scanLead(s.db.QueryRow(ctx, sel))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("lead")
		}
		return nil, fmt.Errorf("failed to fetch lead: %w", err)
	}
	return l, nil
}

func listPredicates(f models.LeadFilter) []*entsql.Predicate {
	var preds []*entsql.Predicate
	if f.Status != "" {
		preds = append(preds, entsql.EQ("status", f.Status))
	}
	if f.AssignedTo != "" {
		preds = append(preds, entsql.EQ("assigned_to", f.AssignedTo))
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		preds = append(preds, entsql.Or(
			entsql.ContainsFold("first_name", q),
			entsql.ContainsFold("last_name", q),
			entsql.ContainsFold("email", q),
			entsql.Contains("phone", q),
		))
	}
	return preds
}

// List returns leads newest first. Results are cached per filter until the
// next write to the collection.
func (s *Service) List(ctx context.Context, f models.LeadFilter) (*models.ListResponse[models.Lead], error) {
	f.Limit = models.NormalizeLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}

	return cache.Cached(ctx, s.cache, Collection, cache.ListKey(Collection, f), func() (*models.ListResponse[models.Lead], error) {
		total, err := s.db.Count(ctx, database.LeadsTable, listPredicates(f)...)
		if err != nil {
			return nil, err
		}

		b := s.db.Builder()
		sel := b.Select(columns...).From(b.Table(database.LeadsTable)).
			OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
			Limit(f.Limit).Offset(f.Offset)
		if preds := listPredicates(f); len(preds) > 0 {
			sel.Where(entsql.And(preds...))
		}

		out := &models.ListResponse[models.Lead]{Data: []models.Lead{}, Total: total, Limit: f.Limit, Offset: f.Offset}
		err = s.db.QueryEach(ctx, sel, func(sc database.Scanner) error {
			l, err := scanLead(sc)
			if err != nil {
				return err
			}
			out.Data = append(out.Data, *l)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list leads: %w", err)
		}
		return out, nil
	})
}

// All returns every lead matching the filter without pagination, newest first
func (s *Service) All(ctx context.Context, f models.LeadFilter) ([]models.Lead, error) {
	preds := listPredicates(f)
	b := s.db.Builder()
	sel := b.Select(columns...).From(b.Table(database.LeadsTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	leads := []models.Lead{}
	err := s.db.QueryEach(ctx, sel, func(sc database.Scanner) error {
		l, err := scanLead(sc)
		if err != nil {
			return err
		}
		leads = append(leads, *l)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

// Update applies a partial update. Status is not editable here; it moves
// through the pipeline.
func (s *Service) Update(ctx context.Context, id string, req models.UpdateLeadRequest, actorID string) (*models.Lead, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previousAssignee := current.AssignedTo

	l := *current
	if req.FirstName != nil {
		l.FirstName = strings.TrimSpace(*req.FirstName)
		if l.FirstName == "" {
			return nil, domain.NewValidationError("first_name cannot be empty")
		}
	}
	if req.LastName != nil {
		l.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		l.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		l.Phone = ""
		if *req.Phone != "" {
			l.Phone = phone.NormalizeOrKeep(*req.Phone, req.Country)
		}
	}
	if req.Source != nil {
		l.Source = *req.Source
	}
	if req.Score != nil {
		l.Score = *req.Score
	}
	if req.Budget != nil {
		l.Budget = *req.Budget
	}
	if req.BudgetMax != nil {
		l.BudgetMax = *req.BudgetMax
	}
	if req.PreferredLocations != nil {
		l.PreferredLocations = emptyIfNil(*req.PreferredLocations)
	}
	if req.PropertyTypes != nil {
		l.PropertyTypes = emptyIfNil(*req.PropertyTypes)
	}
	if req.Notes != nil {
		l.Notes = *req.Notes
	}
	if req.AssignedTo != nil {
		l.AssignedTo = *req.AssignedTo
	}
	if l.BudgetMax > 0 && l.BudgetMax < l.Budget {
		return nil, domain.NewValidationError("budget_max must be greater than or equal to budget")
	}
	l.UpdatedAt = s.now().UTC()

	_, err = s.db.Exec(ctx, s.db.Builder().Update(database.LeadsTable).
		Set("first_name", l.FirstName).
		Set("last_name", l.LastName).
		Set("email", l.Email).
		Set("phone", l.Phone).
		Set("source", l.Source).
		Set("score", l.Score).
		Set("budget", l.Budget).
		Set("budget_max", l.BudgetMax).
		Set("preferred_locations", database.JSON(l.PreferredLocations)).
		Set("property_types", database.JSON(l.PropertyTypes)).
		Set("notes", l.Notes).
		Set("assigned_to", l.AssignedTo).
		Set("updated_at", l.UpdatedAt).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	s.cache.Invalidate(ctx, Collection)
	s.notifyAssignment(ctx, &l, previousAssignee, actorID)
	return &l, nil
}

// GetStatus returns the current status of a lead
func (s *Service) GetStatus(ctx context.Context, id string) (string, error) {
	b := s.db.Builder()
	var status string
	err := s.db.QueryRow(ctx, b.Select("status").From(b.Table(database.LeadsTable)).Where(entsql.EQ("id", id))).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.NewNotFoundError("lead")
		}
		return "", fmt.Errorf("failed to fetch lead status: %w", err)
	}
	return status, nil
}

// SetStatus overwrites status and updated_at and returns the updated lead.
// Cache invalidation is left to the caller.
func (s *Service) SetStatus(ctx context.Context, id, status string, at time.Time) (any, error) {
	res, err := s.db.Exec(ctx, s.db.Builder().Update(database.LeadsTable).
		Set("status", status).
		Set("updated_at", at.UTC()).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("failed to update lead status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.NewNotFoundError("lead")
	}
	return s.Get(ctx, id)
}

// Exists reports whether a lead exists
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.db.Exists(ctx, database.LeadsTable, id)
}

func (s *Service) notifyAssignment(ctx context.Context, l *models.Lead, previous, actorID string) {
	if s.notifier == nil || l.AssignedTo == "" || l.AssignedTo == previous || l.AssignedTo == actorID {
		return
	}
	_, err := s.notifier.Create(ctx, &models.Notification{
		UserID:    l.AssignedTo,
		Type:      models.NotificationLeadAssigned,
		Title:     "New lead assigned",
		Message:   fmt.Sprintf("%s was assigned to you", l.FullName()),
		ActionURL: "/leads/" + l.ID,
		Metadata:  map[string]any{"lead_id": l.ID},
	})
	if err != nil {
		s.log.Warn("failed to send lead assignment notification", "lead_id", l.ID, "error", err)
	}
}
