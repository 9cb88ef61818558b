package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/api/errors"
	custommw "github.com/jordanlanch/realtycrm/pkg/api/middleware"
	"github.com/jordanlanch/realtycrm/pkg/deals"
	"github.com/jordanlanch/realtycrm/pkg/export"
	"github.com/jordanlanch/realtycrm/pkg/leads"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
	"github.com/jordanlanch/realtycrm/pkg/properties"
)

// PipelineHandler serves status moves, grouped boards and board exports
type PipelineHandler struct {
	controller      *pipeline.Controller
	leadService     *leads.Service
	propertyService *properties.Service
	dealService     *deals.Service
	validator       *validator.Validate
	now             func() time.Time
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(controller *pipeline.Controller, leadService *leads.Service, propertyService *properties.Service, dealService *deals.Service) *PipelineHandler {
	return &PipelineHandler{
		controller:      controller,
		leadService:     leadService,
		propertyService: propertyService,
		dealService:     dealService,
		validator:       validator.New(),
		now:             time.Now,
	}
}

// MoveStatus godoc
// @Summary Move an item to another pipeline status
// @Description Overwrites the status of a lead, property or deal. Any status may move to any other unless strict transitions are enabled.
// @Tags Pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param request body models.MoveStatusRequest true "Target status"
// @Success 200 {object} models.MoveResult
// @Failure 400 {object} models.ErrorResponse "Unknown status"
// @Failure 404 {object} models.ErrorResponse "Item not found"
// @Failure 409 {object} models.ErrorResponse "Transition not allowed"
// @Router /leads/{id}/status [patch]
// @Router /properties/{id}/status [patch]
// @Router /deals/{id}/status [patch]
func (h *PipelineHandler) MoveStatus(kind pipeline.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.MoveStatusRequest
		if err := c.Bind(&req); err != nil {
			return errors.ValidationError(c, err)
		}
		if err := h.validator.Struct(req); err != nil {
			return errors.ValidationError(c, err)
		}

		result, err := h.controller.MoveItem(c.Request().Context(), kind, c.Param("id"), req.Status, custommw.UserID(c))
		if err != nil {
			return errors.FromDomain(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

func (h *PipelineHandler) board(ctx context.Context, kind pipeline.Kind) (models.BoardResponse, error) {
	switch kind {
	case pipeline.KindLead:
		items, err := h.leadService.All(ctx, models.LeadFilter{})
		if err != nil {
			return models.BoardResponse{}, err
		}
		return pipeline.Board(kind, items, func(l models.Lead) string { return l.Status }), nil
	case pipeline.KindProperty:
		items, err := h.propertyService.All(ctx, models.PropertyFilter{})
		if err != nil {
			return models.BoardResponse{}, err
		}
		return pipeline.Board(kind, items, func(p models.Property) string { return p.Status }), nil
	case pipeline.KindDeal:
		items, err := h.dealService.All(ctx, models.DealFilter{})
		if err != nil {
			return models.BoardResponse{}, err
		}
		return pipeline.Board(kind, items, func(d models.Deal) string { return d.Status }), nil
	}
	return models.BoardResponse{}, fmt.Errorf("no board for kind %q", kind)
}

// Board godoc
// @Summary Grouped pipeline board
// @Description Every column of the kind, in order, with the items whose status maps to it. Items with a status outside the columns are left out.
// @Tags Pipeline
// @Produce json
// @Security BearerAuth
// @Param kind path string true "lead, property or deal"
// @Success 200 {object} models.BoardResponse
// @Failure 400 {object} models.ErrorResponse "Unknown kind"
// @Router /pipeline/{kind} [get]
func (h *PipelineHandler) Board(c echo.Context) error {
	kind, err := pipeline.ParseKind(c.Param("kind"))
	if err != nil {
		return errors.FromDomain(c, err)
	}

	board, err := h.board(c.Request().Context(), kind)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, board)
}

// Export downloads the board as an .xlsx workbook
func (h *PipelineHandler) Export(c echo.Context) error {
	kind, err := pipeline.ParseKind(c.Param("kind"))
	if err != nil {
		return errors.FromDomain(c, err)
	}

	board, err := h.board(c.Request().Context(), kind)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	var buf bytes.Buffer
	if err := export.WriteBoard(&buf, board); err != nil {
		return errors.InternalError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, export.Filename(string(kind), h.now())))
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}
