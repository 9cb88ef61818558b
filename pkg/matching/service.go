package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/jordanlanch/realtycrm/pkg/database"
	"github.com/jordanlanch/realtycrm/pkg/domain"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

var columns = []string{"id", "lead_id", "property_id", "match_score", "reasons", "status", "created_at"}

var validStatuses = map[string]bool{
	models.MatchStatusSuggested:  true,
	models.MatchStatusSent:       true,
	models.MatchStatusDismissed:  true,
	models.MatchStatusInterested: true,
}

// LeadReader loads leads
type LeadReader interface {
	Get(ctx context.Context, id string) (*models.Lead, error)
	All(ctx context.Context, f models.LeadFilter) ([]models.Lead, error)
}

// PropertyReader loads properties
type PropertyReader interface {
	Get(ctx context.Context, id string) (*models.Property, error)
	All(ctx context.Context, f models.PropertyFilter) ([]models.Property, error)
}

// Notifier creates property_match notifications
type Notifier interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// Service regenerates and serves lead/property match suggestions
type Service struct {
	db         *database.Client
	leads      LeadReader
	properties PropertyReader
	notifier   Notifier
	threshold  int
	log        logger.Logger
	now        func() time.Time
}

// NewService creates a new matching service
func NewService(db *database.Client, leads LeadReader, properties PropertyReader, log logger.Logger) *Service {
	return &Service{
		db:         db,
		leads:      leads,
		properties: properties,
		threshold:  DefaultThreshold,
		log:        logger.OrDefault(log),
		now:        time.Now,
	}
}

// WithNotifier tells lead assignees about new suggestions
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithThreshold changes the minimum score kept as a suggestion
func (s *Service) WithThreshold(threshold int) *Service {
	s.threshold = threshold
	return s
}

// WithClock overrides the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func scanMatch(sc database.Scanner) (*models.LeadPropertyMatch, error) {
	var (
		m       models.LeadPropertyMatch
		reasons sql.NullString
	)
	if err := sc.Scan(&m.ID, &m.LeadID, &m.PropertyID, &m.MatchScore, &reasons, &m.Status, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := database.DecodeJSON(reasons, &m.Reasons); err != nil {
		return nil, fmt.Errorf("failed to decode reasons: %w", err)
	}
	if m.Reasons == nil {
		m.Reasons = []string{}
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func (s *Service) query(ctx context.Context, conn *database.Conn, preds ...*entsql.Predicate) ([]models.LeadPropertyMatch, error) {
	b := conn.Builder()
	sel := b.Select(columns...).From(b.Table(database.MatchesTable)).
		OrderBy(entsql.Desc("match_score"), entsql.Desc("created_at"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	matches := []models.LeadPropertyMatch{}
	err := conn.QueryEach(ctx, sel, func(sc database.Scanner) error {
		m, err := scanMatch(sc)
		if err != nil {
			return err
		}
		matches = append(matches, *m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// List returns a lead's matches, best score first, with the property attached
func (s *Service) List(ctx context.Context, leadID string) ([]models.LeadPropertyMatch, error) {
	if _, err := s.leads.Get(ctx, leadID); err != nil {
		return nil, err
	}

	matches, err := s.query(ctx, s.db.Conn, entsql.EQ("lead_id", leadID))
	if err != nil {
		return nil, err
	}
	for i := range matches {
		p, err := s.properties.Get(ctx, matches[i].PropertyID)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		matches[i].Property = p
	}
	return matches, nil
}

// Regenerate rescores every available property for the lead and replaces
// its suggested matches. Matches the agent already acted on (sent,
// dismissed, interested) are left untouched.
func (s *Service) Regenerate(ctx context.Context, leadID string) ([]models.LeadPropertyMatch, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	available, err := s.properties.All(ctx, models.PropertyFilter{Status: models.PropertyStatusAvailable})
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}

	type candidate struct {
		property models.Property
		result   Result
	}
	var candidates []candidate
	for _, p := range available {
		res := Score(lead, &p)
		if res.Score >= s.threshold {
			candidates = append(candidates, candidate{property: p, result: res})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].result.Score > candidates[j].result.Score
	})

	now := s.now().UTC()
	var (
		created  []models.LeadPropertyMatch
		newCount int
	)
	err = s.db.Tx(ctx, func(tx *database.Conn) error {
		existing, err := s.query(ctx, tx, entsql.EQ("lead_id", leadID))
		if err != nil {
			return err
		}
		previous := make(map[string]string, len(existing))
		for _, m := range existing {
			previous[m.PropertyID] = m.Status
		}

		if _, err := tx.Exec(ctx, tx.Builder().Delete(database.MatchesTable).Where(entsql.And(
			entsql.EQ("lead_id", leadID),
			entsql.EQ("status", models.MatchStatusSuggested),
		))); err != nil {
			return fmt.Errorf("failed to clear suggestions: %w", err)
		}

		for _, c := range candidates {
			status, seen := previous[c.property.ID]
			if seen && status != models.MatchStatusSuggested {
				continue
			}
			m := models.LeadPropertyMatch{
				ID:         uuid.NewString(),
				LeadID:     leadID,
				PropertyID: c.property.ID,
				MatchScore: c.result.Score,
				Reasons:    c.result.Reasons,
				Status:     models.MatchStatusSuggested,
				CreatedAt:  now,
			}
			if _, err := tx.Exec(ctx, tx.Builder().Insert(database.MatchesTable).
				Columns(columns...).
				Values(m.ID, m.LeadID, m.PropertyID, m.MatchScore, database.JSON(m.Reasons), m.Status, m.CreatedAt)); err != nil {
				if database.IsUniqueViolation(err) {
					// another regeneration of this lead committed first
					return domain.NewConflictError("matches for this lead are already being regenerated")
				}
				return fmt.Errorf("failed to store match: %w", err)
			}
			property := c.property
			m.Property = &property
			created = append(created, m)
			if !seen {
				newCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("matches regenerated", "lead_id", leadID, "suggested", len(created), "new", newCount)
	if newCount > 0 {
		s.notifyNewMatches(ctx, lead, newCount)
	}
	if created == nil {
		created = []models.LeadPropertyMatch{}
	}
	return created, nil
}

// RefreshAll regenerates suggestions for every lead still in play and
// returns how many leads were processed
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	leads, err := s.leads.All(ctx, models.LeadFilter{})
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, l := range leads {
		if l.Status == models.LeadStatusClosed || l.Status == models.LeadStatusLost {
			continue
		}
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if _, err := s.Regenerate(ctx, l.ID); err != nil {
			s.log.Error("failed to regenerate matches", "lead_id", l.ID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

// Get returns a match by id
func (s *Service) Get(ctx context.Context, id string) (*models.LeadPropertyMatch, error) {
	b := s.db.Builder()
	m, err := scanMatch(s.db.QueryRow(ctx, b.Select(columns...).From(b.Table(database.MatchesTable)).Where(entsql.EQ("id", id))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("match")
		}
		return nil, fmt.Errorf("failed to fetch match: %w", err)
	}
	return m, nil
}

// UpdateStatus records what the agent did with a suggestion
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*models.LeadPropertyMatch, error) {
	if !validStatuses[status] {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid match status %q", status))
	}

	res, err := s.db.Exec(ctx, s.db.Builder().Update(database.MatchesTable).
		Set("status", status).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("failed to update match status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.NewNotFoundError("match")
	}
	return s.Get(ctx, id)
}

func (s *Service) notifyNewMatches(ctx context.Context, l *models.Lead, count int) {
	if s.notifier == nil || l.AssignedTo == "" {
		return
	}
	noun := "properties match"
	if count == 1 {
		noun = "property matches"
	}
	_, err := s.notifier.Create(ctx, &models.Notification{
		UserID:    l.AssignedTo,
		Type:      models.NotificationPropertyMatch,
		Title:     "New property matches",
		Message:   fmt.Sprintf("%d %s %s", count, noun, l.FullName()),
		ActionURL: "/leads/" + l.ID,
		Metadata:  map[string]any{"lead_id": l.ID, "count": count},
	})
	if err != nil {
		s.log.Warn("failed to send match notification", "lead_id", l.ID, "error", err)
	}
}
