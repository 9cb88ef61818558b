package client

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/querycache"
)

// PollerConfig sets how often the notification badge and list refresh.
// Consecutive failures double the wait up to MaxBackoff.
type PollerConfig struct {
	CountInterval time.Duration
	ListInterval  time.Duration
	MaxBackoff    time.Duration
	ListFilter    models.NotificationFilter

	OnCount func(int)
	OnList  func([]models.Notification)
	OnError func(error)
}

// DefaultPollerConfig polls the count every 30s and the list every minute
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		CountInterval: 30 * time.Second,
		ListInterval:  time.Minute,
		MaxBackoff:    5 * time.Minute,
		ListFilter:    models.NotificationFilter{Limit: 20},
	}
}

// Poller keeps the notification count and list current
type Poller struct {
	client *Client
	cfg    PollerConfig
}

// NewPoller creates a poller. Zero intervals take the defaults.
func (c *Client) NewPoller(cfg PollerConfig) *Poller {
	def := DefaultPollerConfig()
	if cfg.CountInterval <= 0 {
		cfg.CountInterval = def.CountInterval
	}
	if cfg.ListInterval <= 0 {
		cfg.ListInterval = def.ListInterval
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	return &Poller{client: c, cfg: cfg}
}

// Run polls until ctx is done. It returns ErrUnauthorized when the session
// is rejected and nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.loop(ctx, p.cfg.CountInterval, p.pollCount)
	})
	g.Go(func() error {
		return p.loop(ctx, p.cfg.ListInterval, p.pollList)
	})
	return g.Wait()
}

func (p *Poller) pollCount(ctx context.Context) error {
	p.client.cache.Invalidate(unreadCountPath)
	n, err := p.client.UnreadCount(ctx)
	if err != nil {
		return err
	}
	if p.cfg.OnCount != nil {
		p.cfg.OnCount(n)
	}
	return nil
}

func (p *Poller) pollList(ctx context.Context) error {
	p.client.cache.Invalidate(querycache.Key(notificationsPath, notificationQuery(p.cfg.ListFilter)))
	list, err := p.client.ListNotifications(ctx, p.cfg.ListFilter)
	if err != nil {
		return err
	}
	if p.cfg.OnList != nil {
		p.cfg.OnList(list)
	}
	return nil
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, poll func(context.Context) error) error {
	failures := 0
	for {
		err := poll(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrUnauthorized):
			return err
		case err != nil:
			failures++
			p.client.log.Warn("notification poll failed", "failures", failures, "error", err)
			if p.cfg.OnError != nil {
				p.cfg.OnError(err)
			}
		default:
			failures = 0
		}

		t := time.NewTimer(backoff(interval, p.cfg.MaxBackoff, failures))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// backoff doubles interval once per consecutive failure, capped at ceiling
func backoff(interval, ceiling time.Duration, failures int) time.Duration {
	d := interval
	for i := 0; i < failures && d < ceiling; i++ {
		d *= 2
	}
	if d > ceiling {
		d = ceiling
	}
	return d
}
