package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/api/errors"
	custommw "github.com/jordanlanch/realtycrm/pkg/api/middleware"
	"github.com/jordanlanch/realtycrm/pkg/dashboard"
)

// DashboardHandler serves dashboard counts
type DashboardHandler struct {
	dashboardService *dashboard.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary returns per-status counts, open tasks and the caller's unread count
// GET /api/v1/dashboard/summary
func (h *DashboardHandler) Summary(c echo.Context) error {
	summary, err := h.dashboardService.Summary(c.Request().Context(), custommw.UserID(c))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
