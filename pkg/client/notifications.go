package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jordanlanch/realtycrm/pkg/models"
)

const (
	notificationsPath = "/notifications"
	unreadCountPath   = notificationsPath + "/unread-count"
)

func notificationQuery(f models.NotificationFilter) url.Values {
	q := params{}
	if f.IsRead != nil {
		q.set("is_read", strconv.FormatBool(*f.IsRead))
	}
	q.setInt("limit", f.Limit)
	return url.Values(q)
}

// ListNotifications returns the caller's notifications, newest first
func (c *Client) ListNotifications(ctx context.Context, f models.NotificationFilter) ([]models.Notification, error) {
	return get[[]models.Notification](ctx, c, notificationsPath, notificationQuery(f))
}

// UnreadCount returns the number of unread notifications
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	resp, err := get[models.UnreadCountResponse](ctx, c, unreadCountPath, nil)
	return resp.Count, err
}

// MarkRead marks one notification read. Marking it twice is not an error.
func (c *Client) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	path := notificationsPath + "/" + url.PathEscape(id) + "/read"
	if err := c.write(ctx, http.MethodPatch, path, nil, &n); err != nil {
		return nil, err
	}
	c.invalidate(notificationsPath, dashboardPath)
	return &n, nil
}

// MarkAllRead marks every unread notification read and returns how many changed
func (c *Client) MarkAllRead(ctx context.Context) (int, error) {
	var resp models.MarkAllReadResponse
	if err := c.write(ctx, http.MethodPatch, notificationsPath+"/read-all", nil, &resp); err != nil {
		return 0, err
	}
	c.invalidate(notificationsPath, dashboardPath)
	return resp.Updated, nil
}
