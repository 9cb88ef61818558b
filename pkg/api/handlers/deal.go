package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/api/errors"
	"github.com/jordanlanch/realtycrm/pkg/deals"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

// DealHandler handles deal endpoints
type DealHandler struct {
	dealService *deals.Service
	validator   *validator.Validate
}

// NewDealHandler creates a new deal handler
func NewDealHandler(dealService *deals.Service) *DealHandler {
	return &DealHandler{dealService: dealService, validator: validator.New()}
}

// List returns deals filtered by status, lead or property
func (h *DealHandler) List(c echo.Context) error {
	var filter models.DealFilter
	if err := c.Bind(&filter); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(filter); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.dealService.List(c.Request().Context(), filter)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Create godoc
// @Summary Create a deal
// @Description The lead and property must exist; a missing one answers 422.
// @Tags Deals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateDealRequest true "Deal"
// @Success 201 {object} models.Deal
// @Failure 422 {object} models.ErrorResponse "Lead or property does not exist"
// @Router /deals [post]
func (h *DealHandler) Create(c echo.Context) error {
	var req models.CreateDealRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	deal, err := h.dealService.Create(c.Request().Context(), req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, deal)
}

// Get returns one deal
func (h *DealHandler) Get(c echo.Context) error {
	deal, err := h.dealService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, deal)
}

// Update applies a partial update
func (h *DealHandler) Update(c echo.Context) error {
	var req models.UpdateDealRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	deal, err := h.dealService.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, deal)
}
