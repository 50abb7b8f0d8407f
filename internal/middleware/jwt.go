package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/model"
)

// bearerAuth verifies HS256 access tokens signed with one secret.
type bearerAuth struct {
	parser  *jwt.Parser
	keyFunc jwt.Keyfunc
}

func newBearerAuth(secret string) bearerAuth {
	return bearerAuth{
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
		keyFunc: func(*jwt.Token) (any, error) { return []byte(secret), nil },
	}
}

// authenticate returns the session carried by the request's bearer token,
// or the reason it was refused.
func (a bearerAuth) authenticate(c echo.Context) (access.Session, string) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return access.Session{}, "missing bearer token"
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	claims := jwt.MapClaims{}
	tok, err := a.parser.ParseWithClaims(raw, claims, a.keyFunc)
	if err != nil || !tok.Valid {
		return access.Session{}, "invalid token"
	}
	sess, ok := sessionFromClaims(claims)
	if !ok {
		return access.Session{}, "invalid claims"
	}
	return sess, ""
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the caller's access.Session in the request context.  The
// token must be HS256-signed with secret and carry a numeric or string
// "sub" claim and a "role" claim naming one of the known roles.  A session
// already resolved by Identify is accepted as is.
func JWTAuth(secret string) echo.MiddlewareFunc {
	a := newBearerAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := SessionFrom(c); ok {
				return next(c)
			}
			sess, reason := a.authenticate(c)
			if reason != "" {
				return abort(c, http.StatusUnauthorized, "unauthenticated", reason)
			}
			setSession(c, sess)
			return next(c)
		}
	}
}

// Identify resolves the caller from a valid bearer token without
// rejecting anything, so middleware that runs ahead of the route groups
// (rate limiting, request logging) can tell callers apart.  Routes that
// require a caller still go through JWTAuth.
func Identify(secret string) echo.MiddlewareFunc {
	a := newBearerAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sess, reason := a.authenticate(c); reason == "" {
				setSession(c, sess)
			}
			return next(c)
		}
	}
}

func sessionFromClaims(claims jwt.MapClaims) (access.Session, bool) {
	var id uint64
	switch v := claims["sub"].(type) {
	case float64:
		if v <= 0 || v != float64(uint64(v)) {
			return access.Session{}, false
		}
		id = uint64(v)
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return access.Session{}, false
		}
		id = n
	default:
		return access.Session{}, false
	}
	roleStr, _ := claims["role"].(string)
	role, err := model.ParseRole(roleStr)
	if err != nil {
		return access.Session{}, false
	}
	return access.Session{UserID: id, Role: role}, true
}
