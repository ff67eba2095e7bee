package device

import (
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/errs"
)

// gateExemptPaths are authenticated routes the device gate never blocks.
// Registration must work from a device that is not yet approved, and the
// super-admin surface is governed by role checks instead.
var gateExemptPaths = map[string]bool{
	"/api/v1/devices/register": true,
}

// GateSkipper reports whether the device gate should let the request
// through without evaluating it.
func GateSkipper(c echo.Context) bool {
	path := c.Request().URL.Path
	if gateExemptPaths[path] {
		return true
	}
	return auth.IsPublicPath(path)
}

// TrustGate is the echo middleware form of the Evaluator. It runs after
// authentication and rejects requests from devices that are not approved
// for the caller's practice.
func TrustGate(ev *Evaluator, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := AccessRequest{
				Fingerprint: c.Request().Header.Get(FingerprintHeader),
				SkipCheck:   skipper != nil && skipper(c),
				IP:          c.RealIP(),
			}
			if p, ok := auth.PrincipalFromContext(c.Request().Context()); ok {
				req.Principal = p
			} else if !req.SkipCheck {
				// The authenticator rejects unauthenticated requests on
				// non-public routes, so a missing principal here means the
				// route is public and the gate does not apply.
				return next(c)
			}

			if err := ev.Evaluate(c.Request().Context(), req); err != nil {
				return errs.ToHTTP(err)
			}
			return next(c)
		}
	}
}
