package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/api/errors"
	custommw "github.com/jordanlanch/realtycrm/pkg/api/middleware"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/notifications"
)

// NotificationHandler serves the caller's notifications
type NotificationHandler struct {
	notificationService *notifications.Service
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *notifications.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// @Summary List the caller's notifications
// @Description Newest first. limit defaults to 20 and is capped at 100.
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param is_read query boolean false "Read state"
// @Param limit query integer false "Page size" default(20)
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	var filter models.NotificationFilter
	if raw := c.QueryParam("is_read"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.ValidationError(c, err)
		}
		filter.IsRead = &isRead
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return errors.ValidationError(c, err)
		}
		filter.Limit = limit
	}

	list, err := h.notificationService.List(c.Request().Context(), custommw.UserID(c), filter)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// UnreadCount returns the number of unread notifications
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	count, err := h.notificationService.UnreadCount(c.Request().Context(), custommw.UserID(c))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, models.UnreadCountResponse{Count: count})
}

// MarkRead marks one notification read. Marking it again is a no-op.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	n, err := h.notificationService.MarkRead(c.Request().Context(), custommw.UserID(c), c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

// MarkAllRead marks every unread notification of the caller read
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	updated, err := h.notificationService.MarkAllRead(c.Request().Context(), custommw.UserID(c))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, models.MarkAllReadResponse{Updated: updated})
}
