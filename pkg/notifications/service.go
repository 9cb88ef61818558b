package notifications

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

// List limits
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var columns = []string{
	"id", "user_id", "type", "title", "message", "is_read", "read_at", "action_url", "metadata", "created_at",
}

var validTypes = map[string]bool{
	models.NotificationLeadAssigned:  true,
	models.NotificationTaskDue:       true,
	models.NotificationDealUpdate:    true,
	models.NotificationStatusChange:  true,
	models.NotificationPropertyMatch: true,
	models.NotificationSystem:        true,
}

// Recorder counts created notifications
type Recorder interface {
	NotificationCreated(notificationType string)
}

// Service manages per-user notifications. The only mutation after creation
// is the unread -> read transition.
type Service struct {
	db       *database.Client
	cache    *cache.ListCache
	recorder Recorder
	log      logger.Logger
	now      func() time.Time
}

// NewService creates a new notification service. lc may be nil.
func NewService(db *database.Client, lc *cache.ListCache, log logger.Logger) *Service {
	return &Service{db: db, cache: lc, log: logger.OrDefault(log), now: time.Now}
}

// WithRecorder reports every created notification to r
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// WithClock overrides the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Cache TTL names for the list and the unread count
const (
	ListTTLName  = "notifications"
	CountTTLName = "notification_count"
)

// Collection returns the cache namespace of one user's notifications
func Collection(userID string) string {
	return "notifications:" + userID
}

func scanNotification(sc database.Scanner) (*models.Notification, error) {
	var (
		n        models.Notification
		readAt   sql.NullTime
		metadata sql.NullString
	)
	if err := sc.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &readAt, &n.ActionURL, &metadata, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.ReadAt = database.TimePtr(readAt)
	if err := database.DecodeJSON(metadata, &n.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode notification metadata: %w", err)
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

// Create stores an unread notification for n.UserID
func (s *Service) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if strings.TrimSpace(n.UserID) == "" {
		return nil, domain.NewValidationError("notification user_id is required")
	}
	if strings.TrimSpace(n.Title) == "" {
		return nil, domain.NewValidationError("notification title is required")
	}
	if n.Type == "" {
		n.Type = models.NotificationSystem
	}
	if !validTypes[n.Type] {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid notification type %q", n.Type))
	}

	out := *n
	out.ID = uuid.NewString()
	out.IsRead = false
	out.ReadAt = nil
	out.CreatedAt = s.now().UTC()

	var metadata any
	if out.Metadata != nil {
		metadata = database.JSON(out.Metadata)
	}

	_, err := s.db.Exec(ctx, s.db.Builder().Insert(database.NotificationsTable).
		Columns(columns...).
		Values(out.ID, out.UserID, out.Type, out.Title, out.Message, false, nil, out.ActionURL, metadata, out.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.cache.Invalidate(ctx, Collection(out.UserID))
	if s.recorder != nil {
		s.recorder.NotificationCreated(out.Type)
	}
	return &out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// List returns the user's notifications newest first
func (s *Service) List(ctx context.Context, userID string, f models.NotificationFilter) ([]models.Notification, error) {
	f.Limit = clampLimit(f.Limit)

	return cache.CachedScoped(ctx, s.cache, Collection(userID), ListTTLName, cache.ListKey(Collection(userID), f), func() ([]models.Notification, error) {
		preds := []*entsql.Predicate{entsql.EQ("user_id", userID)}
		if f.IsRead != nil {
			preds = append(preds, entsql.EQ("is_read", *f.IsRead))
		}

		b := s.db.Builder()
		sel := b.Select(columns...).From(b.Table(database.NotificationsTable)).
			Where(entsql.And(preds...)).
			OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
			Limit(f.Limit)

		out := []models.Notification{}
		err := s.db.QueryEach(ctx, sel, func(sc database.Scanner) error {
			n, err := scanNotification(sc)
			if err != nil {
				return err
			}
			out = append(out, *n)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list notifications: %w", err)
		}
		return out, nil
	})
}

// UnreadCount returns the number of unread notifications of the user
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	key := cache.Key(Collection(userID), "count")
	return cache.CachedScoped(ctx, s.cache, Collection(userID), CountTTLName, key, func() (int, error) {
		return s.db.Count(ctx, database.NotificationsTable,
			entsql.EQ("user_id", userID),
			entsql.EQ("is_read", false),
		)
	})
}

// MarkRead marks one of the user's notifications read. Marking an already
// read notification is a no-op. A notification owned by someone else is
// reported as not found.
func (s *Service) MarkRead(ctx context.Context, userID, id string) (*models.Notification, error) {
	b := s.db.Builder()
	n, err := scanNotification(s.db.QueryRow(ctx, b.Select(columns...).From(b.Table(database.NotificationsTable)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID)))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("notification")
		}
		return nil, fmt.Errorf("failed to fetch notification: %w", err)
	}
	if n.IsRead {
		return n, nil
	}

	now := s.now().UTC()
	_, err = s.db.Exec(ctx, b.Update(database.NotificationsTable).
		Set("is_read", true).
		Set("read_at", now).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("is_read", false))))
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}

	s.cache.Invalidate(ctx, Collection(userID))
	n.IsRead = true
	n.ReadAt = &now
	return n, nil
}

// MarkAllRead marks every unread notification of the user read and returns
// how many changed
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	now := s.now().UTC()
	res, err := s.db.Exec(ctx, s.db.Builder().Update(database.NotificationsTable).
		Set("is_read", true).
		Set("read_at", now).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("is_read", false))))
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	s.cache.Invalidate(ctx, Collection(userID))

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count updated notifications: %w", err)
	}
	return int(n), nil
}
