package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oceanview/resort-booking/internal/service"
)

// DashboardHandler serves aggregate figures for staff.
type DashboardHandler struct {
	Dashboard *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	if svc == nil {
		panic("nil service passed to NewDashboardHandler")
	}
	return &DashboardHandler{Dashboard: svc}
}

// Stats handles GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	stats, err := h.Dashboard.Stats(c.Request().Context(), sess)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
