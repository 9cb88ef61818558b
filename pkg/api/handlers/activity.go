package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/activity"
	"github.com/jordanlanch/realtycrm/pkg/api/errors"
	custommw "github.com/jordanlanch/realtycrm/pkg/api/middleware"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

// ActivityHandler serves the activity feed
type ActivityHandler struct {
	activityService *activity.Service
	validator       *validator.Validate
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *activity.Service) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, validator: validator.New()}
}

// List returns activities for a lead, property or deal, newest first
// GET /api/v1/activities
func (h *ActivityHandler) List(c echo.Context) error {
	var filter models.ActivityFilter
	if err := c.Bind(&filter); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(filter); err != nil {
		return errors.ValidationError(c, err)
	}

	list, err := h.activityService.List(c.Request().Context(), filter)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create logs a manual activity such as a call or a note
// POST /api/v1/activities
func (h *ActivityHandler) Create(c echo.Context) error {
	var req models.CreateActivityRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	a, err := h.activityService.Log(c.Request().Context(), req, custommw.UserID(c))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}
