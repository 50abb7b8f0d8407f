package service

import (
	"strings"
	"time"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/booking"
	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/queue"
	"github.com/oceanview/resort-booking/internal/repository"
)

var testCard = PaymentDetails{CardHolder: "Ann Perera", CardNumber: "4111 1111 1111 1111", Expiry: "12/29", CVV: "123"}

func (s *ReservationSuite) approved(in, out model.Date) *model.Reservation {
	res := s.create(s.guest, in, out)
	res, err := s.svc.SetStatus(s.ctx, sessionOf(s.admin), res.ID, model.StatusApproved, 0)
	s.Require().NoError(err)
	return res
}

func (s *ReservationSuite) TestPayIssuesInvoice() {
	res := s.approved(date(time.March, 1), date(time.March, 4))

	_, err := s.svc.InvoiceFor(s.ctx, sessionOf(s.guest), res.ID)
	s.ErrorIs(err, repository.ErrNotFound)

	paid, inv, err := s.svc.Pay(s.ctx, sessionOf(s.guest), res.ID, testCard, res.Version)
	s.Require().NoError(err)
	s.Equal(model.PaymentPaid, paid.PaymentStatus)
	s.Equal(model.StatusApproved, paid.Status)
	s.True(strings.HasPrefix(inv.Number, "INV-"))
	s.Equal(int64(30000), inv.TotalPrice)
	s.Equal("ann", inv.GuestName)
	s.Equal("Ocean Suite", inv.RoomName)
	s.Equal(res.ID, inv.ReservationID)

	got, err := s.svc.InvoiceFor(s.ctx, sessionOf(s.guest), res.ID)
	s.Require().NoError(err)
	s.Equal(inv.Number, got.Number)

	evs := s.events.Events()
	last := evs[len(evs)-1]
	s.Equal(queue.InvoiceIssued, last.Type)
	s.Equal(inv.Number, last.InvoiceNumber)
}

func (s *ReservationSuite) TestPayRequiresApprovedAndUnpaid() {
	pending := s.create(s.guest, date(time.March, 1), date(time.March, 2))
	_, _, err := s.svc.Pay(s.ctx, sessionOf(s.guest), pending.ID, testCard, 0)
	s.ErrorIs(err, model.ErrInvalidTransition)

	res := s.approved(date(time.March, 5), date(time.March, 6))
	_, _, err = s.svc.Pay(s.ctx, sessionOf(s.guest), res.ID, PaymentDetails{}, 0)
	s.Require().NoError(err)
	_, _, err = s.svc.Pay(s.ctx, sessionOf(s.guest), res.ID, testCard, 0)
	s.ErrorIs(err, model.ErrInvalidTransition)
}

func (s *ReservationSuite) TestPayChecksOwnershipAndCapability() {
	res := s.approved(date(time.March, 1), date(time.March, 2))
	_, _, err := s.svc.Pay(s.ctx, sessionOf(s.other), res.ID, testCard, 0)
	s.ErrorIs(err, access.ErrDenied)
	_, _, err = s.svc.Pay(s.ctx, sessionOf(s.staff), res.ID, testCard, 0)
	s.ErrorIs(err, access.ErrDenied)
	_, _, err = s.svc.Pay(s.ctx, sessionOf(s.admin), res.ID, testCard, 0)
	s.NoError(err)
}

func (s *ReservationSuite) TestPayRejectsMalformedCard() {
	res := s.approved(date(time.March, 1), date(time.March, 2))
	bad := testCard
	bad.CardNumber = "4111 1111 1111 1112"
	bad.CVV = "12a"
	_, _, err := s.svc.Pay(s.ctx, sessionOf(s.guest), res.ID, bad, 0)
	s.Require().True(booking.IsValidation(err))
	s.Contains(err.Error(), "cardNumber")
	s.Contains(err.Error(), "cvv")

	got, err := s.svc.Get(s.ctx, sessionOf(s.guest), res.ID)
	s.Require().NoError(err)
	s.Equal(model.PaymentUnpaid, got.PaymentStatus)
}

func (s *ReservationSuite) TestPayFallsBackToUnknownNames() {
	ghost := s.store.PutReservation(model.Reservation{
		GuestID: s.guest.ID, RoomID: 4242, CheckIn: date(time.March, 1), CheckOut: date(time.March, 2),
		TotalCost: 5000, TotalNights: 1, Status: model.StatusApproved, PaymentStatus: model.PaymentUnpaid,
	})
	_, inv, err := s.svc.Pay(s.ctx, sessionOf(s.admin), ghost.ID, PaymentDetails{}, 0)
	s.Require().NoError(err)
	s.Equal(unknownRoom, inv.RoomName)
	s.Equal("ann", inv.GuestName)
}

func (s *ReservationSuite) TestInvoicesAreOwnerScoped() {
	a := s.approved(date(time.March, 1), date(time.March, 2))
	_, _, err := s.svc.Pay(s.ctx, sessionOf(s.guest), a.ID, testCard, 0)
	s.Require().NoError(err)

	mine, err := s.svc.Invoices(s.ctx, sessionOf(s.guest))
	s.Require().NoError(err)
	s.Len(mine, 1)

	none, err := s.svc.Invoices(s.ctx, sessionOf(s.other))
	s.Require().NoError(err)
	s.Empty(none)

	_, err = s.svc.InvoiceFor(s.ctx, sessionOf(s.other), a.ID)
	s.ErrorIs(err, access.ErrDenied)

	all, err := s.svc.Invoices(s.ctx, sessionOf(s.staff))
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ReservationSuite) TestCompleteDueMovesPaidStaysPastCheckout() {
	done := s.store.PutReservation(model.Reservation{
		GuestID: s.guest.ID, RoomID: s.room.ID, CheckIn: date(time.February, 10), CheckOut: date(time.February, 12),
		Status: model.StatusApproved, PaymentStatus: model.PaymentPaid,
	})
	unpaid := s.store.PutReservation(model.Reservation{
		GuestID: s.guest.ID, RoomID: s.room.ID, CheckIn: date(time.February, 12), CheckOut: date(time.February, 14),
		Status: model.StatusApproved, PaymentStatus: model.PaymentUnpaid,
	})
	future := s.store.PutReservation(model.Reservation{
		GuestID: s.guest.ID, RoomID: s.room.ID, CheckIn: date(time.February, 20), CheckOut: date(time.February, 23),
		Status: model.StatusApproved, PaymentStatus: model.PaymentPaid,
	})

	n, err := s.svc.CompleteDue(s.ctx, access.System, model.Date{})
	s.Require().NoError(err)
	s.Equal(1, n)

	for id, want := range map[uint64]model.ReservationStatus{
		done.ID: model.StatusCompleted, unpaid.ID: model.StatusApproved, future.ID: model.StatusApproved,
	} {
		got, err := s.svc.Get(s.ctx, sessionOf(s.admin), id)
		s.Require().NoError(err)
		s.Equal(want, got.Status, "reservation %d", id)
	}

	n, err = s.svc.CompleteDue(s.ctx, access.System, date(time.February, 23))
	s.Require().NoError(err)
	s.Equal(1, n)

	_, err = s.svc.CompleteDue(s.ctx, sessionOf(s.staff), model.Date{})
	s.ErrorIs(err, access.ErrDenied)
}

func (s *ReservationSuite) TestCompletedIsTerminal() {
	r := s.store.PutReservation(model.Reservation{
		GuestID: s.guest.ID, RoomID: s.room.ID, CheckIn: date(time.February, 10), CheckOut: date(time.February, 12),
		Status: model.StatusCompleted, PaymentStatus: model.PaymentPaid,
	})
	_, err := s.svc.SetStatus(s.ctx, sessionOf(s.admin), r.ID, model.StatusApproved, 0)
	s.ErrorIs(err, model.ErrInvalidTransition)
	_, _, err = s.svc.Pay(s.ctx, sessionOf(s.admin), r.ID, PaymentDetails{}, 0)
	s.ErrorIs(err, model.ErrInvalidTransition)
}
