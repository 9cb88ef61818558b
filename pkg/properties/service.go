package properties

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
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
)

// Collection is the cache namespace for property reads
const Collection = "properties"

var columns = []string{
	"id", "title", "address", "city", "state", "zip_code", "property_type", "status",
	"price", "bedrooms", "bathrooms", "square_feet", "description", "images",
	"listing_agent", "created_at", "updated_at",
}

// Service handles property listings
type Service struct {
	db    *database.Client
	cache *cache.ListCache
	log   logger.Logger
	now   func() time.Time
}

// NewService creates a new property service. lc may be nil.
func NewService(db *database.Client, lc *cache.ListCache, log logger.Logger) *Service {
	return &Service{db: db, cache: lc, log: logger.OrDefault(log), now: time.Now}
}

// WithClock overrides the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func scanProperty(sc database.Scanner) (*models.Property, error) {
	var (
		p      models.Property
		images sql.NullString
	)
	err := sc.Scan(
		&p.ID, &p.Title, &p.Address, &p.City, &p.State, &p.ZipCode, &p.PropertyType, &p.Status,
		&p.Price, &p.Bedrooms, &p.Bathrooms, &p.SquareFeet, &p.Description, &images,
		&p.ListingAgent, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := database.DecodeJSON(images, &p.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// Create stores a new listing. Status aliases such as "under_contract" are
// stored under their canonical name.
func (s *Service) Create(ctx context.Context, req models.CreatePropertyRequest) (*models.Property, error) {
	status, err := pipeline.NormalizeStatus(pipeline.KindProperty, req.Status)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Address) == "" || strings.TrimSpace(req.City) == "" {
		return nil, domain.NewValidationError("title, address and city are required")
	}

	now := s.now().UTC()
	p := &models.Property{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(req.Title),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		State:        req.State,
		ZipCode:      req.ZipCode,
		PropertyType: req.PropertyType,
		Status:       status,
		Price:        req.Price,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		SquareFeet:   req.SquareFeet,
		Description:  req.Description,
		Images:       req.Images,
		ListingAgent: req.ListingAgent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	_, err = s.db.Exec(ctx, s.db.Builder().Insert(database.PropertiesTable).
		Columns(columns...).
		Values(
			p.ID, p.Title, p.Address, p.City, p.State, p.ZipCode, p.PropertyType, p.Status,
			p.Price, p.Bedrooms, p.Bathrooms, p.SquareFeet, p.Description, database.JSON(p.Images),
			p.ListingAgent, p.CreatedAt, p.UpdatedAt,
		))
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.cache.Invalidate(ctx, Collection)
	return p, nil
}

// Get returns a property by id
func (s *Service) Get(ctx context.Context, id string) (*models.Property, error) {
	b := s.db.Builder()
	p, err := scanProperty(s.db.QueryRow(ctx, b.Select(columns...).From(b.Table(database.PropertiesTable)).Where(entsql.EQ("id", id))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("property")
		}
		return nil, fmt.Errorf("failed to fetch property: %w", err)
	}
	return p, nil
}

func listPredicates(f models.PropertyFilter) []*entsql.Predicate {
	var preds []*entsql.Predicate
	if f.Status != "" {
		status := f.Status
		if canonical, err := pipeline.NormalizeStatus(pipeline.KindProperty, f.Status); err == nil {
			status = canonical
		}
		preds = append(preds, entsql.EQ("status", status))
	}
	if f.City != "" {
		preds = append(preds, entsql.EqualFold("city", f.City))
	}
	if f.PropertyType != "" {
		preds = append(preds, entsql.EQ("property_type", f.PropertyType))
	}
	if f.MinPrice > 0 {
		preds = append(preds, entsql.GTE("price", f.MinPrice))
	}
	if f.MaxPrice > 0 {
		preds = append(preds, entsql.LTE("price", f.MaxPrice))
	}
	return preds
}

// List returns listings newest first, cached per filter
func (s *Service) List(ctx context.Context, f models.PropertyFilter) (*models.ListResponse[models.Property], error) {
	f.Limit = models.NormalizeLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}

	return cache.Cached(ctx, s.cache, Collection, cache.ListKey(Collection, f), func() (*models.ListResponse[models.Property], error) {
		total, err := s.db.Count(ctx, database.PropertiesTable, listPredicates(f)...)
		if err != nil {
			return nil, err
		}

		data, err := s.query(ctx, listPredicates(f), f.Limit, f.Offset)
		if err != nil {
			return nil, err
		}
		return &models.ListResponse[models.Property]{Data: data, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
	})
}

// All returns every listing matching the filter, newest first
func (s *Service) All(ctx context.Context, f models.PropertyFilter) ([]models.Property, error) {
	return s.query(ctx, listPredicates(f), 0, 0)
}

func (s *Service) query(ctx context.Context, preds []*entsql.Predicate, limit, offset int) ([]models.Property, error) {
	b := s.db.Builder()
	sel := b.Select(columns...).From(b.Table(database.PropertiesTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if limit > 0 {
		sel.Limit(limit).Offset(offset)
	}

	out := []models.Property{}
	err := s.db.QueryEach(ctx, sel, func(sc database.Scanner) error {
		p, err := scanProperty(sc)
		if err != nil {
			return err
		}
		out = append(out, *p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return out, nil
}

// Update applies a partial update. Status moves through the pipeline.
func (s *Service) Update(ctx context.Context, id string, req models.UpdatePropertyRequest) (*models.Property, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p := *current
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Title, req.Title)
	set(&p.Address, req.Address)
	set(&p.City, req.City)
	set(&p.State, req.State)
	set(&p.ZipCode, req.ZipCode)
	set(&p.PropertyType, req.PropertyType)
	set(&p.ListingAgent, req.ListingAgent)
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Bedrooms != nil {
		p.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		p.Bathrooms = *req.Bathrooms
	}
	if req.SquareFeet != nil {
		p.SquareFeet = *req.SquareFeet
	}
	if req.Images != nil {
		p.Images = *req.Images
		if p.Images == nil {
			p.Images = []string{}
		}
	}
	if p.Title == "" || p.Address == "" || p.City == "" {
		return nil, domain.NewValidationError("title, address and city cannot be empty")
	}
	p.UpdatedAt = s.now().UTC()

	_, err = s.db.Exec(ctx, s.db.Builder().Update(database.PropertiesTable).
		Set("title", p.Title).
		Set("address", p.Address).
		Set("city", p.City).
		Set("state", p.State).
		Set("zip_code", p.ZipCode).
		Set("property_type", p.PropertyType).
		Set("price", p.Price).
		Set("bedrooms", p.Bedrooms).
		Set("bathrooms", p.Bathrooms).
		Set("square_feet", p.SquareFeet).
		Set("description", p.Description).
		Set("images", database.JSON(p.Images)).
		Set("listing_agent", p.ListingAgent).
		Set("updated_at", p.UpdatedAt).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	s.cache.Invalidate(ctx, Collection)
	return &p, nil
}

// AddImage appends an image URL to a listing
func (s *Service) AddImage(ctx context.Context, id, url string) (*models.Property, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	images := append(current.Images, url)
	return s.Update(ctx, id, models.UpdatePropertyRequest{Images: &images})
}

// GetStatus returns the current status of a property
func (s *Service) GetStatus(ctx context.Context, id string) (string, error) {
	b := s.db.Builder()
	var status string
	err := s.db.QueryRow(ctx, b.Select("status").From(b.Table(database.PropertiesTable)).Where(entsql.EQ("id", id))).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.NewNotFoundError("property")
		}
		return "", fmt.Errorf("failed to fetch property status: %w", err)
	}
	return status, nil
}

// SetStatus overwrites status and updated_at and returns the updated property
func (s *Service) SetStatus(ctx context.Context, id, status string, at time.Time) (any, error) {
	res, err := s.db.Exec(ctx, s.db.Builder().Update(database.PropertiesTable).
		Set("status", status).
		Set("updated_at", at.UTC()).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("failed to update property status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.NewNotFoundError("property")
	}
	return s.Get(ctx, id)
}

// Exists reports whether a property exists
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.db.Exists(ctx, database.PropertiesTable, id)
}
