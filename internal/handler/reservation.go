package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oceanview/resort-booking/internal/booking"
	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/repository"
	"github.com/oceanview/resort-booking/internal/service"
)

// ReservationHandler exposes the reservation lifecycle and invoices.  All
// routes run behind JWT authentication; ownership and capability checks
// happen in the service.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

// NewReservationHandler panics if svc is nil.
func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: svc}
}

// List handles GET /api/reservations with optional guestId, roomId and
// status filters.  Guests only ever see their own reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	// Build the filter from the query string; the service narrows it to
	// the caller's own reservations when the caller is a guest.
	var f repository.ReservationFilter
	if f.GuestID, err = queryID(c, "guestId"); err != nil {
		return writeError(c, err)
	}
	if f.RoomID, err = queryID(c, "roomId"); err != nil {
		return writeError(c, err)
	}
	if raw := c.QueryParam("status"); raw != "" {
		st, err := model.ParseReservationStatus(raw)
		if err != nil {
			return writeError(c, fieldError("status", "must be one of PENDING, APPROVED, REJECTED, COMPLETED"))
		}
		f.Status = st
	}
	list, err := h.Reservations.List(c.Request().Context(), sess, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /api/reservations/:id.  The version is returned as the
// ETag so clients can send it back in If-Match.
func (h *ReservationHandler) Get(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.Reservations.Get(c.Request().Context(), sess, id)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("ETag", etag(res.Version))
	return c.JSON(http.StatusOK, res)
}

// Create handles POST /api/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req service.CreateRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	res, err := h.Reservations.Create(c.Request().Context(), sess, req)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("ETag", etag(res.Version))
	return c.JSON(http.StatusCreated, res)
}

// CheckAvailability handles GET /api/reservations/check-availability and
// answers with a bare JSON boolean.
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	verr := &booking.ValidationError{}
	roomID, err := queryID(c, "roomId")
	if err != nil || roomID == 0 {
		verr.Add("roomId", "must be a positive integer")
	}
	stay := booking.Stay{
		CheckIn:  queryDate(c, "checkIn", verr),
		CheckOut: queryDate(c, "checkOut", verr),
	}
	if err := verr.OrNil(); err != nil {
		return writeError(c, err)
	}
	ok, err := h.Reservations.CheckAvailability(c.Request().Context(), sess, roomID, stay)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ok)
}

// UpdateStatus handles PUT /api/reservations/:id/status?status=APPROVED|REJECTED.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	// The decision travels in the query string, as in PUT ...?status=APPROVED.
	to, err := model.ParseReservationStatus(c.QueryParam("status"))
	if err != nil {
		return writeError(c, fieldError("status", "must be APPROVED or REJECTED"))
	}
	// If-Match (or ?version=) guards against approving a record someone
	// else changed since the reviewer loaded it.
	version, err := expectedVersion(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.Reservations.SetStatus(c.Request().Context(), sess, id, to, version)
	if err != nil {
		return writeError(c, err)
	}
	// Hand back the new version so the next write can be conditional too.
	c.Response().Header().Set("ETag", etag(res.Version))
	return c.JSON(http.StatusOK, res)
}

// UpdatePaymentStatus handles PUT /api/reservations/:id/payment-status?status=PAID.
// The body may carry card details for the simulated capture; an empty
// body records a desk payment.  The issued invoice number is returned in
// the X-Invoice-Number header.
func (h *ReservationHandler) UpdatePaymentStatus(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if st, err := model.ParsePaymentStatus(c.QueryParam("status")); err != nil || st != model.PaymentPaid {
		return writeError(c, fieldError("status", "must be PAID"))
	}
	version, err := expectedVersion(c)
	if err != nil {
		return writeError(c, err)
	}
	// Card details are optional and only shape-checked; they are never stored.
	var card service.PaymentDetails
	if err := bind(c, &card); err != nil {
		return writeError(c, err)
	}
	res, inv, err := h.Reservations.Pay(c.Request().Context(), sess, id, card, version)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("ETag", etag(res.Version))
	// The body stays the reservation; the invoice is fetched separately.
	c.Response().Header().Set("X-Invoice-Number", inv.Number)
	return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /api/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Reservations.Delete(c.Request().Context(), sess, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CompleteDue handles POST /api/reservations/complete-due.  An optional
// asOf=YYYY-MM-DD query parameter overrides the resort's current date.
func (h *ReservationHandler) CompleteDue(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	asOf := queryDate(c, "asOf", nil)
	if c.QueryParam("asOf") != "" && asOf.IsZero() {
		return writeError(c, fieldError("asOf", "must be a date in YYYY-MM-DD format"))
	}
	n, err := h.Reservations.CompleteDue(c.Request().Context(), sess, asOf)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": n})
}

// InvoiceByReservation handles GET /api/invoices/reservation/:id.  A 404
// means the reservation has not been paid yet.
func (h *ReservationHandler) InvoiceByReservation(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	inv, err := h.Reservations.InvoiceFor(c.Request().Context(), sess, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// Invoices handles GET /api/invoices.
func (h *ReservationHandler) Invoices(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	list, err := h.Reservations.Invoices(c.Request().Context(), sess)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// queryDate parses a YYYY-MM-DD query parameter.  Missing or malformed
// values are recorded on verr when it is non-nil.
func queryDate(c echo.Context, name string, verr *booking.ValidationError) model.Date {
	raw := c.QueryParam(name)
	d, err := model.ParseDate(raw)
	if err != nil || raw == "" {
		if verr != nil {
			verr.Add(name, "must be a date in YYYY-MM-DD format")
		}
		return model.Date{}
	}
	return d
}

func fieldError(field, msg string) error {
	verr := &booking.ValidationError{}
	verr.Add(field, msg)
	return verr
}
