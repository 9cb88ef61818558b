package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/api/errors"
	custommw "github.com/jordanlanch/realtycrm/pkg/api/middleware"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/tasks"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	taskService *tasks.Service
	validator   *validator.Validate
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *tasks.Service) *TaskHandler {
	return &TaskHandler{taskService: taskService, validator: validator.New()}
}

// List godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, in_progress, completed or cancelled"
// @Param due_before query string false "RFC 3339 timestamp"
// @Success 200 {object} models.ListResponse[models.Task]
// @Router /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	var filter models.TaskFilter
	if err := c.Bind(&filter); err != nil {
		return errors.ValidationError(c, err)
	}
	if raw := c.QueryParam("due_before"); raw != "" {
		dueBefore, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return errors.ValidationError(c, err)
		}
		filter.DueBefore = &dueBefore
	}
	if err := h.validator.Struct(filter); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.taskService.List(c.Request().Context(), filter)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Create stores a task. Attached lead, property and deal must exist.
func (h *TaskHandler) Create(c echo.Context) error {
	var req models.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	task, err := h.taskService.Create(c.Request().Context(), req, custommw.UserID(c))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, task)
}

// Get returns one task
func (h *TaskHandler) Get(c echo.Context) error {
	task, err := h.taskService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

// Update applies a partial update
func (h *TaskHandler) Update(c echo.Context) error {
	var req models.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	task, err := h.taskService.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateStatus moves a task between pending, in_progress, completed and
// cancelled
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	var req models.UpdateTaskStatusRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	task, err := h.taskService.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, task)
}
