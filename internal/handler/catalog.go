package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oceanview/resort-booking/internal/service"
)

// CatalogHandler serves rooms and room types.  Reads are public; writes
// require the manage-catalog capability, which the service re-checks.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

// NewCatalogHandler panics if svc is nil.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	if svc == nil {
		panic("nil service passed to NewCatalogHandler")
	}
	return &CatalogHandler{Catalog: svc}
}

// ListRooms handles GET /api/rooms.
func (h *CatalogHandler) ListRooms(c echo.Context) error {
	rooms, err := h.Catalog.Rooms(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// GetRoom handles GET /api/rooms/:id.
func (h *CatalogHandler) GetRoom(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	rm, err := h.Catalog.Room(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rm)
}

// CreateRoom handles POST /api/rooms.
func (h *CatalogHandler) CreateRoom(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var in service.RoomInput
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	rm, err := h.Catalog.CreateRoom(c.Request().Context(), sess, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rm)
}

// UpdateRoom handles PUT /api/rooms/:id.
func (h *CatalogHandler) UpdateRoom(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in service.RoomInput
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	rm, err := h.Catalog.UpdateRoom(c.Request().Context(), sess, id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rm)
}

// DeleteRoom handles DELETE /api/rooms/:id.
func (h *CatalogHandler) DeleteRoom(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Catalog.DeleteRoom(c.Request().Context(), sess, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRoomTypes handles GET /api/room-types.
func (h *CatalogHandler) ListRoomTypes(c echo.Context) error {
	types, err := h.Catalog.RoomTypes(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, types)
}

// GetRoomType handles GET /api/room-types/:id.
func (h *CatalogHandler) GetRoomType(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	t, err := h.Catalog.RoomType(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// CreateRoomType handles POST /api/room-types.
func (h *CatalogHandler) CreateRoomType(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var in service.RoomTypeInput
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	t, err := h.Catalog.CreateRoomType(c.Request().Context(), sess, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateRoomType handles PUT /api/room-types/:id.
func (h *CatalogHandler) UpdateRoomType(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in service.RoomTypeInput
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	t, err := h.Catalog.UpdateRoomType(c.Request().Context(), sess, id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteRoomType handles DELETE /api/room-types/:id.
func (h *CatalogHandler) DeleteRoomType(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Catalog.DeleteRoomType(c.Request().Context(), sess, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
