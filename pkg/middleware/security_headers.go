package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityHeadersConfig overrides the policy headers. Empty fields keep the
// API defaults.
type SecurityHeadersConfig struct {
	ContentSecurityPolicy string
	ReferrerPolicy        string
	PermissionsPolicy     string
	// UploadsPrefix marks paths serving stored images, which get a policy
	// that lets the image render when opened directly
	UploadsPrefix string
}

const (
	apiCSP         = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
	uploadsCSP     = "default-src 'none'; img-src 'self'; frame-ancestors 'none'"
	defaultRefPol  = "no-referrer"
	defaultPermPol = "camera=(), microphone=(), geolocation=()"
)

type header struct{ name, value string }

// SecurityHeaders sets CSP, referrer, permissions and sniffing headers on
// every response before the handler runs, so error responses carry them too.
func SecurityHeaders(config SecurityHeadersConfig) echo.MiddlewareFunc {
	base := []header{
		{"Referrer-Policy", or(config.ReferrerPolicy, defaultRefPol)},
		{"Permissions-Policy", or(config.PermissionsPolicy, defaultPermPol)},
		{echo.HeaderXContentTypeOptions, "nosniff"},
		{echo.HeaderXFrameOptions, "DENY"},
	}
	csp := or(config.ContentSecurityPolicy, apiCSP)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for _, kv := range base {
				h.Set(kv.name, kv.value)
			}
			if config.UploadsPrefix != "" && strings.HasPrefix(c.Request().URL.Path, config.UploadsPrefix) {
				h.Set(echo.HeaderContentSecurityPolicy, uploadsCSP)
			} else {
				h.Set(echo.HeaderContentSecurityPolicy, csp)
			}
			return next(c)
		}
	}
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
