package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication entirely:
// infrastructure endpoints and the two login endpoints, which by definition
// run before any token exists.
var publicPaths = map[string]bool{
	"/health":                  true,
	"/health/db":               true,
	"/api/v1/auth/login":       true,
	"/api/v1/superadmin/login": true,
}

// Skipper returns true for requests whose path should skip authentication.
// Pass it to Middleware so health checks and logins stay reachable without
// a bearer token.
func Skipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path is a public endpoint.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
