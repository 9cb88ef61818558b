package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/realtycrm/pkg/api/errors"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/properties"
	"github.com/jordanlanch/realtycrm/pkg/storage"
)

// PropertyHandler handles listing endpoints
type PropertyHandler struct {
	propertyService *properties.Service
	store           storage.Store
	validator       *validator.Validate
}

// NewPropertyHandler creates a new property handler. store may be nil, in
// which case image uploads answer 503.
func NewPropertyHandler(propertyService *properties.Service, store storage.Store) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		store:           store,
		validator:       validator.New(),
	}
}

// List godoc
// @Summary List properties
// @Tags Properties
// @Produce json
// @Security BearerAuth
// @Param status query string false "Listing status"
// @Param city query string false "City"
// @Param property_type query string false "Property type"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Success 200 {object} models.ListResponse[models.Property]
// @Router /properties [get]
func (h *PropertyHandler) List(c echo.Context) error {
	var filter models.PropertyFilter
	if err := c.Bind(&filter); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(filter); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.propertyService.List(c.Request().Context(), filter)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Create godoc
// @Summary Create a property
// @Tags Properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreatePropertyRequest true "Property"
// @Success 201 {object} models.Property
// @Router /properties [post]
func (h *PropertyHandler) Create(c echo.Context) error {
	var req models.CreatePropertyRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	property, err := h.propertyService.Create(c.Request().Context(), req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, property)
}

// Get returns one property
func (h *PropertyHandler) Get(c echo.Context) error {
	property, err := h.propertyService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, property)
}

// Update applies a partial update
func (h *PropertyHandler) Update(c echo.Context) error {
	var req models.UpdatePropertyRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	property, err := h.propertyService.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, property)
}

// UploadImage godoc
// @Summary Attach an image to a property
// @Description Multipart upload in the "image" field (.jpg, .jpeg, .png or .webp, up to 10 MB).
// @Tags Properties
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Param image formData file true "Image"
// @Success 201 {object} models.Property
// @Failure 400 {object} models.ErrorResponse "Missing or invalid image"
// @Failure 404 {object} models.ErrorResponse "Property not found"
// @Failure 503 {object} models.ErrorResponse "Storage not configured"
// @Router /properties/{id}/images [post]
func (h *PropertyHandler) UploadImage(c echo.Context) error {
	if h.store == nil {
		return errors.UnavailableError(c, "Image storage is not configured.")
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	if _, err := h.propertyService.Get(ctx, id); err != nil {
		return errors.FromDomain(c, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return errors.ValidationError(c, err)
	}
	if file.Size > storage.MaxImageSize {
		return errors.ValidationError(c, fmt.Errorf("image is %d bytes", file.Size))
	}

	key, contentType, err := storage.ImageKey(id, file.Filename)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	src, err := file.Open()
	if err != nil {
		return errors.InternalError(c, err)
	}
	defer src.Close()

	url, err := h.store.Put(ctx, key, contentType, src)
	if err != nil {
		return errors.InternalError(c, err)
	}

	property, err := h.propertyService.AddImage(ctx, id, url)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, property)
}
