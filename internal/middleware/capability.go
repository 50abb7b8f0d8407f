package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oceanview/resort-booking/internal/access"
)

// RequireCapability aborts with 403 unless the authenticated caller's role
// grants op.  It must run after JWTAuth.  Services re-check the same table,
// so this is an early exit rather than the only gate.
func RequireCapability(op access.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := SessionFrom(c)
			if !ok {
				return abort(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
			}
			if !sess.Can(op) {
				return abort(c, http.StatusForbidden, "forbidden", string(sess.Role)+" may not "+string(op))
			}
			return next(c)
		}
	}
}
