package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oceanview/resort-booking/internal/service"
)

// UserHandler is the admin user CRUD surface.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	if svc == nil {
		panic("nil service passed to NewUserHandler")
	}
	return &UserHandler{Users: svc}
}

func (h *UserHandler) List(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	users, err := h.Users.List(c.Request().Context(), sess)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	u, err := h.Users.Get(c.Request().Context(), sess, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Create(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var in service.UserInput
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	u, err := h.Users.Create(c.Request().Context(), sess, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Update replaces name, email and role; the password changes only when a
// new one is supplied.
func (h *UserHandler) Update(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in service.UserInput
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	u, err := h.Users.Update(c.Request().Context(), sess, id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Users.Delete(c.Request().Context(), sess, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
