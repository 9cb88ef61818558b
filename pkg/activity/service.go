// Package activity is the append-only timeline of what happened to leads,
// properties and deals.
package activity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/jordanlanch/realtycrm/pkg/database"
	"github.com/jordanlanch/realtycrm/pkg/domain"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

var columns = []string{
	"id", "type", "description", "lead_id", "property_id", "deal_id", "user_id", "metadata", "created_at",
}

// Service appends and lists activities
type Service struct {
	db  *database.Client
	log logger.Logger
	now func() time.Time
}

// NewService creates a new activity service
func NewService(db *database.Client, log logger.Logger) *Service {
	return &Service{db: db, log: logger.OrDefault(log), now: time.Now}
}

// WithClock overrides the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func scanActivity(sc database.Scanner) (*models.Activity, error) {
	var (
		a                      models.Activity
		leadID, propID, dealID sql.NullString
		metadata               sql.NullString
	)
	if err := sc.Scan(&a.ID, &a.Type, &a.Description, &leadID, &propID, &dealID, &a.UserID, &metadata, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.LeadID = database.StringPtr(leadID)
	a.PropertyID = database.StringPtr(propID)
	a.DealID = database.StringPtr(dealID)
	if err := database.DecodeJSON(metadata, &a.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode activity metadata: %w", err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// Append stores an activity. ID and CreatedAt are assigned here.
func (s *Service) Append(ctx context.Context, a *models.Activity) (*models.Activity, error) {
	if strings.TrimSpace(a.Type) == "" || strings.TrimSpace(a.Description) == "" {
		return nil, domain.NewValidationError("activity type and description are required")
	}

	out := *a
	out.ID = uuid.NewString()
	out.CreatedAt = s.now().UTC()

	var metadata any
	if out.Metadata != nil {
		metadata = database.JSON(out.Metadata)
	}

	_, err := s.db.Exec(ctx, s.db.Builder().Insert(database.ActivitiesTable).
		Columns(columns...).
		Values(
			out.ID, out.Type, out.Description,
			database.NullString(out.LeadID), database.NullString(out.PropertyID), database.NullString(out.DealID),
			out.UserID, metadata, out.CreatedAt,
		))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, domain.NewReferenceError("lead, property or deal", err)
		}
		return nil, fmt.Errorf("failed to append activity: %w", err)
	}
	return &out, nil
}

// Log records a manual activity (note, call, showing...) for the caller
func (s *Service) Log(ctx context.Context, req models.CreateActivityRequest, userID string) (*models.Activity, error) {
	return s.Append(ctx, &models.Activity{
		Type:        req.Type,
		Description: req.Description,
		LeadID:      req.LeadID,
		PropertyID:  req.PropertyID,
		DealID:      req.DealID,
		UserID:      userID,
		Metadata:    req.Metadata,
	})
}

// List returns activities newest first
func (s *Service) List(ctx context.Context, f models.ActivityFilter) ([]models.Activity, error) {
	var preds []*entsql.Predicate
	if f.LeadID != "" {
		preds = append(preds, entsql.EQ("lead_id", f.LeadID))
	}
	if f.PropertyID != "" {
		preds = append(preds, entsql.EQ("property_id", f.PropertyID))
	}
	if f.DealID != "" {
		preds = append(preds, entsql.EQ("deal_id", f.DealID))
	}

	b := s.db.Builder()
	sel := b.Select(columns...).From(b.Table(database.ActivitiesTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(models.NormalizeLimit(f.Limit))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	out := []models.Activity{}
	err := s.db.QueryEach(ctx, sel, func(sc database.Scanner) error {
		a, err := scanActivity(sc)
		if err != nil {
			return err
		}
		out = append(out, *a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return out, nil
}
