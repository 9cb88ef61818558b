package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jordanlanch/realtycrm/pkg/domain"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

// StatusStore reads and overwrites the status of one kind of entity.
// GetStatus returns a not-found domain error for unknown ids. SetStatus
// writes status and updated_at and returns the updated entity.
type StatusStore interface {
	GetStatus(ctx context.Context, id string) (string, error)
	SetStatus(ctx context.Context, id, status string, at time.Time) (any, error)
}

// Invalidator drops the cached reads of a collection
type Invalidator interface {
	Invalidate(ctx context.Context, collection string)
}

// ActivityLog appends activity entries
type ActivityLog interface {
	Append(ctx context.Context, a *models.Activity) (*models.Activity, error)
}

// Notifier creates notifications
type Notifier interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// MoveRecorder observes completed moves
type MoveRecorder interface {
	StatusMoved(kind, from, to string)
}

type assignable interface {
	Assignee() string
}

// Options configures a Controller. Only Stores is required.
type Options struct {
	Stores     map[Kind]StatusStore
	Policy     Policy
	Cache      Invalidator
	Activities ActivityLog
	Notifier   Notifier
	Recorder   MoveRecorder
	Logger     logger.Logger
	Now        func() time.Time
}

// Controller applies status moves to leads, properties and deals
type Controller struct {
	stores     map[Kind]StatusStore
	policy     Policy
	cache      Invalidator
	activities ActivityLog
	notifier   Notifier
	recorder   MoveRecorder
	log        logger.Logger
	now        func() time.Time
}

// NewController creates a move controller
func NewController(opts Options) *Controller {
	if opts.Policy == nil {
		opts.Policy = AnyTransition{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		stores:     opts.Stores,
		policy:     opts.Policy,
		cache:      opts.Cache,
		activities: opts.Activities,
		notifier:   opts.Notifier,
		recorder:   opts.Recorder,
		log:        logger.OrDefault(opts.Logger),
		now:        opts.Now,
	}
}

// MoveItem overwrites the status of one item. The target is normalized and
// validated against the kind's catalog, the item must exist, and the policy
// must allow the move. On success the collection cache is invalidated and a
// status_changed activity is appended. Activity and notification failures
// are logged and never fail the move.
func (c *Controller) MoveItem(ctx context.Context, kind Kind, id, target, actorID string) (*models.MoveResult, error) {
	cat := CatalogFor(kind)
	store, ok := c.stores[kind]
	if cat == nil || !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown pipeline kind %q", kind))
	}

	if strings.TrimSpace(target) == "" {
		return nil, domain.NewValidationError("status is required")
	}
	to, err := cat.Normalize(target)
	if err != nil {
		return nil, err
	}

	from, err := store.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	if !c.policy.Allow(kind, from, to) {
		return nil, domain.NewConflictError(c.rejection(kind, from, to))
	}

	at := c.now().UTC()
	item, err := store.SetStatus(ctx, id, to, at)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Invalidate(ctx, kind.Collection())
	}
	if c.recorder != nil {
		c.recorder.StatusMoved(string(kind), from, to)
	}

	c.recordActivity(ctx, kind, id, from, to, actorID)
	if cat.NotifyAssignee {
		c.notifyAssignee(ctx, cat, id, item, from, to, actorID)
	}

	c.log.Info("pipeline item moved", "kind", kind, "id", id, "from", from, "to", to, "actor", actorID)

	return &models.MoveResult{
		Kind:      string(kind),
		ID:        id,
		From:      from,
		To:        to,
		UpdatedAt: at,
		Item:      item,
	}, nil
}

// rejection names the allowed targets when the policy can list them
func (c *Controller) rejection(kind Kind, from, to string) string {
	msg := fmt.Sprintf("cannot move %s from %q to %q", kind, from, to)
	lister, ok := c.policy.(interface {
		Successors(kind Kind, from string) []string
	})
	if !ok {
		return msg
	}
	next := lister.Successors(kind, from)
	if len(next) == 0 {
		return msg + "; no further moves are allowed"
	}
	return msg + "; allowed: " + strings.Join(next, ", ")
}

func (c *Controller) recordActivity(ctx context.Context, kind Kind, id, from, to, actorID string) {
	if c.activities == nil {
		return
	}

	cat := CatalogFor(kind)
	a := &models.Activity{
		Type:        models.ActivityStatusChanged,
		Description: fmt.Sprintf("Status changed from %s to %s", cat.LabelOf(from), cat.LabelOf(to)),
		UserID:      actorID,
		Metadata:    map[string]any{"kind": string(kind), "from": from, "to": to},
	}
	ref := id
	switch kind {
	case KindLead:
		a.LeadID = &ref
	case KindProperty:
		a.PropertyID = &ref
	case KindDeal:
		a.DealID = &ref
	}

	if _, err := c.activities.Append(ctx, a); err != nil {
		c.log.Warn("failed to record status change activity", "kind", kind, "id", id, "error", err)
	}
}

func (c *Controller) notifyAssignee(ctx context.Context, cat *Catalog, id string, item any, from, to, actorID string) {
	if c.notifier == nil {
		return
	}
	a, ok := item.(assignable)
	if !ok || a.Assignee() == "" || a.Assignee() == actorID {
		return
	}

	n := &models.Notification{
		UserID:    a.Assignee(),
		Type:      models.NotificationDealUpdate,
		Title:     fmt.Sprintf("%s moved to %s", Label(string(cat.Kind)), cat.LabelOf(to)),
		Message:   fmt.Sprintf("Status changed from %s to %s", cat.LabelOf(from), cat.LabelOf(to)),
		ActionURL: fmt.Sprintf("/%s/%s", cat.Kind.Collection(), id),
		Metadata:  map[string]any{"kind": string(cat.Kind), "id": id, "from": from, "to": to},
	}
	if _, err := c.notifier.Create(ctx, n); err != nil {
		c.log.Warn("failed to notify assignee", "kind", cat.Kind, "id", id, "error", err)
	}
}
