package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/booking"
	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/queue"
	"github.com/oceanview/resort-booking/internal/repository"
)

const (
	unknownGuest = "Unknown Guest"
	unknownRoom  = "Unknown Room"
)

// PaymentDetails is the card a guest pays with.  Capture is simulated:
// details are checked for shape and then discarded, never stored.  An
// empty PaymentDetails is accepted as a desk payment.
type PaymentDetails struct {
	CardHolder string `json:"cardHolder" validate:"required,max=120"`
	CardNumber string `json:"cardNumber" validate:"required,credit_card"`
	Expiry     string `json:"expiry" validate:"required,datetime=01/06"`
	CVV        string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

// Empty reports whether no card field was supplied.
func (p PaymentDetails) Empty() bool {
	return p.CardHolder == "" && p.CardNumber == "" && p.Expiry == "" && p.CVV == ""
}

// Validate checks the card shape.  Spaces and dashes in the number are
// ignored.
func (p PaymentDetails) Validate() error {
	if p.Empty() {
		return nil
	}
	p.CardNumber = strings.NewReplacer(" ", "", "-", "").Replace(p.CardNumber)
	return booking.ValidateStruct(p)
}

// Pay captures payment for an approved, unpaid reservation.  The payment
// flag and the invoice are written in one transaction; the invoice is
// returned alongside the updated reservation.
func (s *ReservationService) Pay(ctx context.Context, sess access.Session, id uint64, card PaymentDetails, expectedVersion uint64) (*model.Reservation, *model.Invoice, error) {
	if err := sess.Require(access.PayReservation); err != nil {
		return nil, nil, err
	}
	if err := card.Validate(); err != nil {
		return nil, nil, err
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.RequireOwner(access.PayReservation, access.ViewAllReservations, res.GuestID); err != nil {
		return nil, nil, err
	}
	if expectedVersion != 0 && expectedVersion != res.Version {
		return nil, nil, repository.ErrVersionConflict
	}
	if err := res.CheckPayment(); err != nil {
		return nil, nil, err
	}

	inv := &model.Invoice{
		Number:        "INV-" + strings.ToUpper(uuid.NewString()),
		GuestID:       res.GuestID,
		GuestName:     s.guestName(ctx, res.GuestID),
		RoomName:      s.roomName(ctx, res.RoomID),
		TotalPrice:    res.TotalCost,
		InvoiceDate:   s.clock().UTC(),
		PaymentStatus: model.PaymentPaid,
	}
	updated, err := s.reservations.MarkPaid(ctx, id, res.Version, inv)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("reservation paid",
		zap.Uint64("reservation_id", id), zap.String("invoice", inv.Number), zap.Int64("total", inv.TotalPrice))
	s.publish(ctx, queue.InvoiceIssued, updated, inv.Number)
	return updated, inv, nil
}

func (s *ReservationService) guestName(ctx context.Context, id uint64) string {
	u, err := s.users.GetByID(ctx, id)
	if err != nil || u.Name == "" {
		return unknownGuest
	}
	return u.Name
}

func (s *ReservationService) roomName(ctx context.Context, id uint64) string {
	rm, err := s.rooms.GetByID(ctx, id)
	if err != nil || rm.Name == "" {
		return unknownRoom
	}
	return rm.Name
}

// InvoiceFor returns the invoice of a paid reservation, or
// repository.ErrNotFound while it is still unpaid.
func (s *ReservationService) InvoiceFor(ctx context.Context, sess access.Session, reservationID uint64) (*model.Invoice, error) {
	if err := sess.Require(access.ViewInvoice); err != nil {
		return nil, err
	}
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := sess.RequireOwner(access.ViewInvoice, access.ViewAllInvoices, res.GuestID); err != nil {
		return nil, err
	}
	return s.invoices.GetByReservationID(ctx, reservationID)
}

// Invoices lists invoices visible to the caller.
func (s *ReservationService) Invoices(ctx context.Context, sess access.Session) ([]model.Invoice, error) {
	if err := sess.Require(access.ViewInvoice); err != nil {
		return nil, err
	}
	var guestID uint64
	if !sess.Can(access.ViewAllInvoices) {
		guestID = sess.UserID
	}
	return s.invoices.List(ctx, guestID)
}
