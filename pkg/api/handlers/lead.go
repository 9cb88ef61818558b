package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/api/errors"
	custommw "github.com/jordanlanch/realtycrm/pkg/api/middleware"
	"github.com/jordanlanch/realtycrm/pkg/leads"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

// LeadHandler handles lead endpoints
type LeadHandler struct {
	leadService *leads.Service
	validator   *validator.Validate
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(leadService *leads.Service) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		validator:   validator.New(),
	}
}

// List godoc
// @Summary List leads
// @Description Paginated leads, newest first. Filters by status, assignee and a free-text query.
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param status query string false "Lead status"
// @Param assigned_to query string false "Assigned user id"
// @Param q query string false "Name, email or phone contains"
// @Param limit query integer false "Page size" default(50)
// @Param offset query integer false "Offset" default(0)
// @Success 200 {object} models.ListResponse[models.Lead]
// @Failure 400 {object} models.ErrorResponse "Invalid filter"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /leads [get]
func (h *LeadHandler) List(c echo.Context) error {
	var filter models.LeadFilter
	if err := c.Bind(&filter); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(filter); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.leadService.List(c.Request().Context(), filter)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Create godoc
// @Summary Create a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateLeadRequest true "Lead"
// @Success 201 {object} models.Lead
// @Failure 400 {object} models.ErrorResponse "Invalid payload"
// @Router /leads [post]
func (h *LeadHandler) Create(c echo.Context) error {
	var req models.CreateLeadRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	lead, err := h.leadService.Create(c.Request().Context(), req, custommw.UserID(c))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, lead)
}

// Get godoc
// @Summary Get a lead
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} models.Lead
// @Failure 404 {object} models.ErrorResponse "Lead not found"
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(c echo.Context) error {
	lead, err := h.leadService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, lead)
}

// Update godoc
// @Summary Update a lead
// @Description Partial update. Status changes go through PATCH /leads/{id}/status.
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body models.UpdateLeadRequest true "Changed fields"
// @Success 200 {object} models.Lead
// @Failure 400 {object} models.ErrorResponse "Invalid payload"
// @Failure 404 {object} models.ErrorResponse "Lead not found"
// @Router /leads/{id} [patch]
func (h *LeadHandler) Update(c echo.Context) error {
	var req models.UpdateLeadRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	lead, err := h.leadService.Update(c.Request().Context(), c.Param("id"), req, custommw.UserID(c))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, lead)
}
