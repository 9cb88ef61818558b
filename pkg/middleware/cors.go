package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// preflightMaxAge is how long browsers may cache a preflight answer, in seconds
const preflightMaxAge = 600

// CORSConfig allows the given browser origins to call the API with a bearer
// token. Blank entries are ignored and a lone "*" disables credentials, since
// browsers reject credentialed wildcard responses.
func CORSConfig(origins []string) middleware.CORSConfig {
	allowed := make([]string, 0, len(origins))
	wildcard := false
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o == "*" {
			wildcard = true
		}
		allowed = append(allowed, o)
	}

	return middleware.CORSConfig{
		AllowOrigins:     allowed,
		AllowCredentials: !wildcard,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType,
			echo.HeaderAccept, echo.HeaderAuthorization,
		},
		// export downloads name their file through Content-Disposition
		ExposeHeaders: []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
		MaxAge:        preflightMaxAge,
	}
}
