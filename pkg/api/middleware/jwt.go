package middleware

import (
	"net/http"
	"strings"

	"github.com/jordanlanch/realtycrm/pkg/auth"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/labstack/echo/v4"
)

// Context keys set by the JWT middleware
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return jwtMiddleware(secret, false)
}

// JWTFromQueryOrHeader accepts the token from the Authorization header or
// the "token" query parameter. Used for download links.
func JWTFromQueryOrHeader(secret string) echo.MiddlewareFunc {
	return jwtMiddleware(secret, true)
}

func jwtMiddleware(secret string, allowQuery bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var token string

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
						Error:   "invalid_token_format",
						Message: "Authorization header must be 'Bearer {token}'",
					})
				}
				token = parts[1]
			}
			if token == "" && allowQuery {
				token = c.QueryParam("token")
			}
			if token == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header is required",
				})
			}

			claims, err := auth.ValidateJWT(token, secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token",
					Message: "Token is invalid or expired",
				})
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUserEmail, claims.Email)
			c.Set(ContextUserRole, claims.Role)

			return next(c)
		}
	}
}

// UserID returns the authenticated user's id, or "" outside the middleware
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}
