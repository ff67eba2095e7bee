package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequirePracticeAdmin returns middleware that allows only practice admins
// (or super-admins) through.
func RequirePracticeAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !p.IsPracticeAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "practice admin role required")
			}
			return next(c)
		}
	}
}

// RequireSuperAdmin returns middleware that allows only super-admin
// principals through. Tenant tokens, whatever their role, are rejected.
func RequireSuperAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !p.IsSuperAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "super admin access required")
			}
			return next(c)
		}
	}
}
