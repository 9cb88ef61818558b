package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/api/errors"
	"github.com/jordanlanch/realtycrm/pkg/matching"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

// MatchHandler serves lead-property suggestions
type MatchHandler struct {
	matchService *matching.Service
	validator    *validator.Validate
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService *matching.Service) *MatchHandler {
	return &MatchHandler{matchService: matchService, validator: validator.New()}
}

// List returns a lead's matches, best score first
// GET /api/v1/leads/:id/matches
func (h *MatchHandler) List(c echo.Context) error {
	matches, err := h.matchService.List(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, matches)
}

// Regenerate rescores available properties for a lead
// POST /api/v1/leads/:id/matches/regenerate
func (h *MatchHandler) Regenerate(c echo.Context) error {
	matches, err := h.matchService.Regenerate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, matches)
}

// UpdateStatus records what the agent did with a suggestion
// PATCH /api/v1/matches/:id/status
func (h *MatchHandler) UpdateStatus(c echo.Context) error {
	var req models.UpdateMatchStatusRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	match, err := h.matchService.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, match)
}
