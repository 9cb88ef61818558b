package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jordanlanch/realtycrm/pkg/auth"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-minimum-32-characters-long"

func run(t *testing.T, mw echo.MiddlewareFunc, target, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	err := mw(func(c echo.Context) error {
		seen = UserID(c)
		return c.NoContent(http.StatusNoContent)
	})(c)
	require.NoError(t, err)
	return rec, seen
}

func TestJWTMiddleware(t *testing.T) {
	token, err := auth.GenerateJWT("agent-1", "a@example.com", "agent", secret, 1)
	require.NoError(t, err)

	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantError string
	}{
		{"valid token", "Bearer " + token, http.StatusNoContent, ""},
		{"missing header", "", http.StatusUnauthorized, "missing_token"},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, "invalid_token_format"},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := run(t, JWTMiddleware(secret), "/api/v1/leads", tt.header)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantError == "" {
				assert.Equal(t, "agent-1", seen)
				return
			}
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Empty(t, seen)
		})
	}
}

func TestJWTFromQueryOrHeader(t *testing.T) {
	token, err := auth.GenerateJWT("agent-2", "b@example.com", "agent", secret, 1)
	require.NoError(t, err)

	rec, seen := run(t, JWTFromQueryOrHeader(secret), "/api/v1/pipeline/deal/export?token="+token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "agent-2", seen)

	rec, _ = run(t, JWTMiddleware(secret), "/api/v1/pipeline/deal/export?token="+token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
