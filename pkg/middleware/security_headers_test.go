package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serveWithHeaders(t *testing.T, cfg SecurityHeadersConfig, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	return servePathWithHeaders(t, "/api/v1/leads", cfg, next)
}

func servePathWithHeaders(t *testing.T, path string, cfg SecurityHeadersConfig, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	err := SecurityHeaders(cfg)(next)(e.NewContext(req, rec))
	return rec, err
}

func TestSecurityHeaders_DefaultHeaders(t *testing.T) {
	rec, err := serveWithHeaders(t, SecurityHeadersConfig{}, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})
	assert.NoError(t, err)

	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'; base-uri 'none'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Permissions-Policy"), "camera=()")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestSecurityHeaders_UploadsAllowImages(t *testing.T) {
	cfg := SecurityHeadersConfig{UploadsPrefix: "/uploads"}
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	rec, err := servePathWithHeaders(t, "/uploads/properties/p1/a.jpg", cfg, ok)
	assert.NoError(t, err)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "img-src 'self'")

	rec, err = serveWithHeaders(t, cfg, ok)
	assert.NoError(t, err)
	assert.NotContains(t, rec.Header().Get("Content-Security-Policy"), "img-src")
}

func TestSecurityHeaders_CustomValuesOverrideDefaults(t *testing.T) {
	rec, err := serveWithHeaders(t, SecurityHeadersConfig{ReferrerPolicy: "same-origin"}, func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	assert.NoError(t, err)

	assert.Equal(t, "same-origin", rec.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Permissions-Policy"))
}

func TestSecurityHeaders_HandlerError(t *testing.T) {
	rec, err := serveWithHeaders(t, SecurityHeadersConfig{}, func(c echo.Context) error {
		return echo.ErrInternalServerError
	})
	assert.Error(t, err)
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}
