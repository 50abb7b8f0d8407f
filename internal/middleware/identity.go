package middleware

// identity.go holds the helpers that move the caller's access.Session
// through the echo context and the error body shared by every middleware.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/oceanview/resort-booking/internal/access"
)

const sessionKey = "session"

func setSession(c echo.Context, s access.Session) {
	c.Set(sessionKey, s)
}

// SessionFrom returns the session stored by JWTAuth.
func SessionFrom(c echo.Context) (access.Session, bool) {
	s, ok := c.Get(sessionKey).(access.Session)
	return s, ok
}

// userID returns the caller's id for keying, or "anon" when the request
// is unauthenticated.
func userID(c echo.Context) string {
	if s, ok := SessionFrom(c); ok {
		return strconv.FormatUint(s.UserID, 10)
	}
	return "anon"
}

func abort(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": code, "message": msg})
}
