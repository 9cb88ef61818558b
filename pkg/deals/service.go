package deals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/jordanlanch/realtycrm/pkg/cache"
	"github.com/jordanlanch/realtycrm/pkg/database"
	"github.com/jordanlanch/realtycrm/pkg/domain"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
)

// Collection is the cache namespace for deal reads
const Collection = "deals"

var columns = []string{
	"id", "lead_id", "property_id", "status", "deal_value", "offer_amount", "commission",
	"expected_close_date", "notes", "assigned_to", "created_at", "updated_at",
}

// Service handles deals between leads and properties
type Service struct {
	db    *database.Client
	cache *cache.ListCache
	log   logger.Logger
	now   func() time.Time
}

// NewService creates a new deal service. lc may be nil.
func NewService(db *database.Client, lc *cache.ListCache, log logger.Logger) *Service {
	return &Service{db: db, cache: lc, log: logger.OrDefault(log), now: time.Now}
}

// WithClock overrides the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func scanDeal(sc database.Scanner) (*models.Deal, error) {
	var (
		d         models.Deal
		closeDate sql.NullTime
	)
	err := sc.Scan(
		&d.ID, &d.LeadID, &d.PropertyID, &d.Status, &d.DealValue, &d.OfferAmount, &d.Commission,
		&closeDate, &d.Notes, &d.AssignedTo, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ExpectedCloseDate = database.TimePtr(closeDate)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}

// checkReferences verifies the lead and property exist before a write
func (s *Service) checkReferences(ctx context.Context, leadID, propertyID string) error {
	ok, err := s.db.Exists(ctx, database.LeadsTable, leadID)
	if err != nil {
		return fmt.Errorf("failed to check lead: %w", err)
	}
	if !ok {
		return domain.NewReferenceError("lead", nil)
	}

	ok, err = s.db.Exists(ctx, database.PropertiesTable, propertyID)
	if err != nil {
		return fmt.Errorf("failed to check property: %w", err)
	}
	if !ok {
		return domain.NewReferenceError("property", nil)
	}
	return nil
}

// Create stores a new deal. It fails with a reference error when the lead
// or property does not exist. The lead's own status is left untouched.
func (s *Service) Create(ctx context.Context, req models.CreateDealRequest) (*models.Deal, error) {
	status, err := pipeline.NormalizeStatus(pipeline.KindDeal, req.Status)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.LeadID, req.PropertyID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	d := &models.Deal{
		ID:                uuid.NewString(),
		LeadID:            req.LeadID,
		PropertyID:        req.PropertyID,
		Status:            status,
		DealValue:         req.DealValue,
		OfferAmount:       req.OfferAmount,
		Commission:        req.Commission,
		ExpectedCloseDate: utcPtr(req.ExpectedCloseDate),
		Notes:             req.Notes,
		AssignedTo:        req.AssignedTo,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err = s.db.Exec(ctx, s.db.Builder().Insert(database.DealsTable).
		Columns(columns...).
		Values(
			d.ID, d.LeadID, d.PropertyID, d.Status, d.DealValue, d.OfferAmount, d.Commission,
			database.NullTime(d.ExpectedCloseDate), d.Notes, d.AssignedTo, d.CreatedAt, d.UpdatedAt,
		))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, domain.NewReferenceError("lead or property", err)
		}
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}

	s.cache.Invalidate(ctx, Collection)
	return d, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Get returns a deal by id
func (s *Service) Get(ctx context.Context, id string) (*models.Deal, error) {
	b := s.db.Builder()
	d, err := scanDeal(s.db.QueryRow(ctx, b.Select(columns...).From(b.Table(database.DealsTable)).Where(entsql.EQ("id", id))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("deal")
		}
		return nil, fmt.Errorf("failed to fetch deal: %w", err)
	}
	return d, nil
}

func listPredicates(f models.DealFilter) []*entsql.Predicate {
	var preds []*entsql.Predicate
	if f.Status != "" {
		status := f.Status
		if canonical, err := pipeline.NormalizeStatus(pipeline.KindDeal, f.Status); err == nil {
			status = canonical
		}
		preds = append(preds, entsql.EQ("status", status))
	}
	if f.LeadID != "" {
		preds = append(preds, entsql.EQ("lead_id", f.LeadID))
	}
	if f.PropertyID != "" {
		preds = append(preds, entsql.EQ("property_id", f.PropertyID))
	}
	return preds
}

// List returns deals newest first, cached per filter
func (s *Service) List(ctx context.Context, f models.DealFilter) (*models.ListResponse[models.Deal], error) {
	f.Limit = models.NormalizeLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}

	return cache.Cached(ctx, s.cache, Collection, cache.ListKey(Collection, f), func() (*models.ListResponse[models.Deal], error) {
		total, err := s.db.Count(ctx, database.DealsTable, listPredicates(f)...)
		if err != nil {
			return nil, err
		}
		data, err := s.query(ctx, listPredicates(f), f.Limit, f.Offset)
		if err != nil {
			return nil, err
		}
		return &models.ListResponse[models.Deal]{Data: data, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
	})
}

// All returns every deal matching the filter, newest first
func (s *Service) All(ctx context.Context, f models.DealFilter) ([]models.Deal, error) {
	return s.query(ctx, listPredicates(f), 0, 0)
}

func (s *Service) query(ctx context.Context, preds []*entsql.Predicate, limit, offset int) ([]models.Deal, error) {
	b := s.db.Builder()
	sel := b.Select(columns...).From(b.Table(database.DealsTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if limit > 0 {
		sel.Limit(limit).Offset(offset)
	}

	out := []models.Deal{}
	err := s.db.QueryEach(ctx, sel, func(sc database.Scanner) error {
		d, err := scanDeal(sc)
		if err != nil {
			return err
		}
		out = append(out, *d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	return out, nil
}

// Update applies a partial update. Status moves through the pipeline.
func (s *Service) Update(ctx context.Context, id string, req models.UpdateDealRequest) (*models.Deal, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d := *current
	if req.DealValue != nil {
		d.DealValue = *req.DealValue
	}
	if req.OfferAmount != nil {
		d.OfferAmount = *req.OfferAmount
	}
	if req.Commission != nil {
		d.Commission = *req.Commission
	}
	if req.ExpectedCloseDate != nil {
		d.ExpectedCloseDate = utcPtr(req.ExpectedCloseDate)
	}
	if req.Notes != nil {
		d.Notes = *req.Notes
	}
	if req.AssignedTo != nil {
		d.AssignedTo = *req.AssignedTo
	}
	d.UpdatedAt = s.now().UTC()

	_, err = s.db.Exec(ctx, s.db.Builder().Update(database.DealsTable).
		Set("deal_value", d.DealValue).
		Set("offer_amount", d.OfferAmount).
		Set("commission", d.Commission).
		Set("expected_close_date", database.NullTime(d.ExpectedCloseDate)).
		Set("notes", d.Notes).
		Set("assigned_to", d.AssignedTo).
		Set("updated_at", d.UpdatedAt).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	s.cache.Invalidate(ctx, Collection)
	return &d, nil
}

// GetStatus returns the current status of a deal
func (s *Service) GetStatus(ctx context.Context, id string) (string, error) {
	b := s.db.Builder()
	var status string
	err := s.db.QueryRow(ctx, b.Select("status").From(b.Table(database.DealsTable)).Where(entsql.EQ("id", id))).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.NewNotFoundError("deal")
		}
		return "", fmt.Errorf("failed to fetch deal status: %w", err)
	}
	return status, nil
}

// SetStatus overwrites status and updated_at and returns the updated deal
func (s *Service) SetStatus(ctx context.Context, id, status string, at time.Time) (any, error) {
	res, err := s.db.Exec(ctx, s.db.Builder().Update(database.DealsTable).
		Set("status", status).
		Set("updated_at", at.UTC()).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("failed to update deal status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.NewNotFoundError("deal")
	}
	return s.Get(ctx, id)
}
