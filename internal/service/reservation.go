package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/booking"
	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/queue"
	"github.com/oceanview/resort-booking/internal/repository"
)

// ReservationService owns the reservation lifecycle.  The server is the
// only authority on status, payment status and price; clients can only
// request transitions.
type ReservationService struct {
	rooms        RoomStore
	reservations ReservationStore
	invoices     InvoiceStore
	users        UserStore
	events       EventPublisher
	log          *zap.Logger
	clock        func() time.Time
	loc          *time.Location
}

// Option customises a ReservationService.
type Option func(*ReservationService)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *ReservationService) { s.clock = clock }
}

// WithLocation sets the resort's time zone, which decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *ReservationService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewReservationService wires the service.  A nil publisher disables
// events.
func NewReservationService(rooms RoomStore, reservations ReservationStore, invoices InvoiceStore, users UserStore,
	events EventPublisher, log *zap.Logger, opts ...Option) *ReservationService {
	if events == nil {
		events = NopPublisher{}
	}
	s := &ReservationService{
		rooms:        rooms,
		reservations: reservations,
		invoices:     invoices,
		users:        users,
		events:       events,
		log:          log.Named("reservations"),
		clock:        time.Now,
		loc:          time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar date in the resort's time zone.
func (s *ReservationService) Today() model.Date {
	return model.DateOf(s.clock().In(s.loc))
}

// CreateRequest is the body of a reservation create call.  TotalCost and
// TotalNights are optional; when present they must equal the server's
// quote.  GuestID is only honoured for callers allowed to book for others.
type CreateRequest struct {
	booking.Draft
	GuestID     uint64 `json:"guestId"`
	TotalCost   int64  `json:"totalCost"`
	TotalNights int    `json:"totalNights"`
}

// CheckAvailability reports whether the room can take a new reservation
// for the stay.  Rooms under maintenance are never available.
func (s *ReservationService) CheckAvailability(ctx context.Context, sess access.Session, roomID uint64, stay booking.Stay) (bool, error) {
	if err := sess.Require(access.CheckAvailability); err != nil {
		return false, err
	}
	if err := stay.Validate(s.Today()); err != nil {
		return false, err
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("room %d: %w", roomID, err)
	}
	if !room.Status.Bookable() {
		return false, nil
	}
	taken, err := s.reservations.HasBlockingOverlap(ctx, roomID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// Create validates the draft, re-prices it and inserts a PENDING, UNPAID
// reservation.  The availability check and the insert are one atomic
// store operation, so overlapping creates cannot both succeed.
func (s *ReservationService) Create(ctx context.Context, sess access.Session, req CreateRequest) (*model.Reservation, error) {
	if err := sess.Require(access.CreateReservation); err != nil {
		return nil, err
	}
	guestID := sess.UserID
	if req.GuestID != 0 && req.GuestID != sess.UserID {
		if err := sess.Require(access.BookForOthers); err != nil {
			return nil, err
		}
		guestID = req.GuestID
	}
	if err := req.Draft.Validate(s.Today()); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, guestID); err != nil {
		return nil, fmt.Errorf("guest %d: %w", guestID, err)
	}
	room, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, fmt.Errorf("room %d: %w", req.RoomID, err)
	}
	if !room.Status.Bookable() {
		return nil, fmt.Errorf("room %d is under maintenance: %w", room.ID, repository.ErrUnavailable)
	}
	quote, err := booking.QuoteStay(req.Stay, room.Rate)
	if err != nil {
		return nil, err
	}
	if (req.TotalCost != 0 && req.TotalCost != quote.Total) || (req.TotalNights != 0 && req.TotalNights != quote.Nights) {
		return nil, fmt.Errorf("%w: expected %d for %d nights", ErrQuoteMismatch, quote.Total, quote.Nights)
	}

	res := &model.Reservation{
		GuestID:       guestID,
		RoomID:        room.ID,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		TotalCost:     quote.Total,
		TotalNights:   quote.Nights,
		Notes:         req.Notes,
		GuestAddress:  req.GuestAddress,
		GuestPhone:    req.GuestPhone,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentUnpaid,
	}
	if err := s.reservations.CreateIfAvailable(ctx, res); err != nil {
		return nil, err
	}
	s.log.Info("reservation created",
		zap.Uint64("reservation_id", res.ID), zap.Uint64("room_id", res.RoomID), zap.Uint64("guest_id", res.GuestID),
		zap.Stringer("check_in", res.CheckIn), zap.Stringer("check_out", res.CheckOut), zap.Int64("total", res.TotalCost))
	s.publish(ctx, queue.ReservationCreated, res, "")
	return res, nil
}

// Get returns one reservation.  Guests may only read their own.
func (s *ReservationService) Get(ctx context.Context, sess access.Session, id uint64) (*model.Reservation, error) {
	if err := sess.Require(access.ViewReservations); err != nil {
		return nil, err
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.RequireOwner(access.ViewReservations, access.ViewAllReservations, res.GuestID); err != nil {
		return nil, err
	}
	return res, nil
}

// List returns reservations matching f.  Callers who cannot view every
// reservation are restricted to their own regardless of f.GuestID.
func (s *ReservationService) List(ctx context.Context, sess access.Session, f repository.ReservationFilter) ([]model.Reservation, error) {
	if err := sess.Require(access.ViewReservations); err != nil {
		return nil, err
	}
	if !sess.Can(access.ViewAllReservations) {
		f.GuestID = sess.UserID
	}
	return s.reservations.List(ctx, f)
}

// SetStatus records a review decision (APPROVED or REJECTED) on a pending
// reservation.  expectedVersion of zero means "whatever I just read";
// otherwise it must match the stored version.
func (s *ReservationService) SetStatus(ctx context.Context, sess access.Session, id uint64, to model.ReservationStatus, expectedVersion uint64) (*model.Reservation, error) {
	if err := sess.Require(access.ReviewReservation); err != nil {
		return nil, err
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != 0 && expectedVersion != res.Version {
		return nil, repository.ErrVersionConflict
	}
	if err := res.CheckReview(to); err != nil {
		return nil, err
	}
	updated, err := s.reservations.UpdateStatus(ctx, id, res.Status, to, res.Version)
	if err != nil {
		return nil, err
	}
	s.log.Info("reservation reviewed",
		zap.Uint64("reservation_id", id), zap.String("from", string(res.Status)), zap.String("to", string(to)),
		zap.Uint64("by", sess.UserID))
	s.publish(ctx, queue.ReservationStatusChanged, updated, "")
	return updated, nil
}

// Delete removes a reservation and its invoice regardless of status.
func (s *ReservationService) Delete(ctx context.Context, sess access.Session, id uint64) error {
	if err := sess.Require(access.DeleteReservation); err != nil {
		return err
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reservations.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("reservation deleted", zap.Uint64("reservation_id", id), zap.Uint64("by", sess.UserID))
	s.publish(ctx, queue.ReservationDeleted, res, "")
	return nil
}

// publish sends an event for res.  Failures are logged and never fail the
// operation that already committed.
func (s *ReservationService) publish(ctx context.Context, t queue.EventType, res *model.Reservation, invoiceNumber string) {
	ev := queue.NewEvent(t, res, s.clock())
	ev.InvoiceNumber = invoiceNumber
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("event publish failed", zap.String("event", string(t)), zap.Uint64("reservation_id", res.ID), zap.Error(err))
	}
}

// isStale reports whether err means another writer got there first.
func isStale(err error) bool {
	return errors.Is(err, repository.ErrVersionConflict) || errors.Is(err, repository.ErrNotFound)
}
