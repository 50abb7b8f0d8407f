package handler // handler defines http handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/booking"
	"github.com/oceanview/resort-booking/internal/middleware"
	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/repository"
	"github.com/oceanview/resort-booking/internal/service"
)

// errorBody is the JSON shape of every non-2xx response.
func errorBody(code, msg string) echo.Map {
	return echo.Map{"error": code, "message": msg}
}

// session returns the caller stored by the JWT middleware.  Routes that
// reach a handler without one are misconfigured, so this reports 401.
func session(c echo.Context) (access.Session, error) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return access.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return s, nil
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		verr := &booking.ValidationError{}
		verr.Add(name, "must be a positive integer")
		return 0, verr
	}
	return id, nil
}

// queryID reads an optional numeric query parameter; absent means zero.
func queryID(c echo.Context, name string) (uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		verr := &booking.ValidationError{}
		verr.Add(name, "must be a positive integer")
		return 0, verr
	}
	return id, nil
}

// expectedVersion reads the optimistic concurrency token from If-Match or
// the version query parameter.  Zero means the caller did not send one.
func expectedVersion(c echo.Context) (uint64, error) {
	raw := strings.TrimSpace(c.Request().Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		raw = c.QueryParam("version")
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	if raw == "" || raw == "*" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		verr := &booking.ValidationError{}
		verr.Add("version", "must be a positive integer")
		return 0, verr
	}
	return v, nil
}

func etag(version uint64) string { return `"` + strconv.FormatUint(version, 10) + `"` }

// badRequest is a malformed body or parameter that is not a field
// validation failure.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

// bind decodes the request body.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return badRequest{fmt.Sprint(he.Message)}
		}
		return badRequest{"invalid request body"}
	}
	return nil
}

// writeError translates workflow errors into HTTP responses.  Anything it
// does not recognise is returned so the HTTP error handler reports a 500
// and the request logger records the cause.
func writeError(c echo.Context, err error) error {
	var (
		verr *booking.ValidationError
		br   badRequest
	)
	switch {
	case errors.As(err, &br):
		return c.JSON(http.StatusBadRequest, errorBody("invalid_request", br.msg))
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, access.ErrDenied):
		return c.JSON(http.StatusForbidden, errorBody("forbidden", err.Error()))
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody("not_found", err.Error()))
	case errors.Is(err, model.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, errorBody("invalid_transition", err.Error()))
	case errors.Is(err, repository.ErrUnavailable):
		return c.JSON(http.StatusConflict, errorBody("unavailable", err.Error()))
	case errors.Is(err, service.ErrQuoteMismatch):
		return c.JSON(http.StatusConflict, errorBody("quote_mismatch", err.Error()))
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, errorBody("email_exists", err.Error()))
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, errorBody("conflict", err.Error()))
	case errors.Is(err, repository.ErrVersionConflict):
		return c.JSON(http.StatusPreconditionFailed, errorBody("version_conflict", err.Error()))
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, errorBody("timeout", "request timed out"))
	}
	return err
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes,
// timeouts, unclassified failures) with the shared error body.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprint(he.Message)
		if he.Internal != nil && he.Code >= http.StatusInternalServerError {
			msg = http.StatusText(he.Code)
		}
		_ = respond(c, he.Code, errorBody(codeFor(he.Code), msg))
		return
	}
	_ = respond(c, http.StatusInternalServerError, errorBody("internal", "internal server error"))
}

func respond(c echo.Context, status int, body echo.Map) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.JSON(status, body)
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "internal"
	}
	return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
