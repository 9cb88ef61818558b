package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BurstThenLimited(t *testing.T) {
	rl := NewRateLimiter(60, 5)
	defer rl.Stop()
	e := echo.New()

	handler := rl.RateLimitMiddleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	for i := 0; i < 7; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, handler(c))
		if i < 5 {
			assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code, "request %d", i)
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		}
	}
}

func TestRateLimiter_KeysByUserBeforeIP(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	defer rl.Stop()
	e := echo.New()

	handler := rl.RateLimitMiddleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if userID != "" {
			c.Set("user_id", userID)
		}
		assert.NoError(t, handler(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("agent-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("agent-1"))
	// Same IP, different user: separate bucket
	assert.Equal(t, http.StatusNoContent, send("agent-2"))
	assert.Equal(t, http.StatusNoContent, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send(""))
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	rl.Stop()
	rl.Stop()
}
