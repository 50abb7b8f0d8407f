package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oceanview/resort-booking/internal/booking"
	"github.com/oceanview/resort-booking/internal/model"
)

// Availability is the outcome of an availability check.  Unknown means
// the check could not be completed; it must never be treated as free.
type Availability int

const (
	Unknown Availability = iota
	Available
	Unavailable
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	}
	return "unknown"
}

// AvailabilityChecker validates a stay locally and then asks the server.
type AvailabilityChecker struct {
	API   *Client
	Today func() model.Date // defaults to the local calendar date
}

func (a *AvailabilityChecker) today() model.Date {
	if a.Today != nil {
		return a.Today()
	}
	return model.DateOf(time.Now())
}

// Check returns Available or Unavailable when the server answered.  An
// invalid stay is reported as a *booking.ValidationError before any
// request is made; transport and server failures return Unknown with the
// error.
func (a *AvailabilityChecker) Check(ctx context.Context, roomID uint64, stay booking.Stay) (Availability, error) {
	if err := stay.Validate(a.today()); err != nil {
		return Unknown, err
	}
	free, err := a.API.CheckAvailability(ctx, roomID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return Unknown, err
	}
	if free {
		return Available, nil
	}
	return Unavailable, nil
}

// CreateReservationRequest is the body of POST /api/reservations.
type CreateReservationRequest struct {
	booking.Draft
	GuestID     uint64 `json:"guestId,omitempty"`
	TotalCost   int64  `json:"totalCost"`
	TotalNights int    `json:"totalNights"`
}

var (
	// ErrNotConfirmed is returned by Build before availability for the
	// current stay has been confirmed.
	ErrNotConfirmed = errors.New("availability not confirmed for this stay")
	// ErrNoNights is returned when the stay prices to zero nights.
	ErrNoNights = errors.New("stay must be at least one night")
)

// DraftBuilder assembles a reservation for one room.  Changing the stay
// clears any earlier availability confirmation.
type DraftBuilder struct {
	room      model.Room
	draft     booking.Draft
	guestID   uint64
	confirmed bool
}

func NewDraftBuilder(room model.Room) *DraftBuilder {
	return &DraftBuilder{room: room, draft: booking.Draft{RoomID: room.ID}}
}

// SetStay records the dates and returns the quote at the room's rate.
// Inverted or empty ranges quote zero.
func (b *DraftBuilder) SetStay(checkIn, checkOut model.Date) (booking.Quote, error) {
	b.draft.Stay = booking.Stay{CheckIn: checkIn, CheckOut: checkOut}
	b.confirmed = false
	return b.Quote()
}

// Quote prices the current stay.
func (b *DraftBuilder) Quote() (booking.Quote, error) {
	return booking.QuoteStay(b.draft.Stay, b.room.Rate)
}

// Confirm runs the availability check for the current stay.  Only an
// Available result lets Build proceed.
func (b *DraftBuilder) Confirm(ctx context.Context, checker *AvailabilityChecker) (Availability, error) {
	av, err := checker.Check(ctx, b.room.ID, b.draft.Stay)
	b.confirmed = err == nil && av == Available
	return av, err
}

// SetContact records the guest's contact details.
func (b *DraftBuilder) SetContact(address, phone, notes string) {
	b.draft.GuestAddress = address
	b.draft.GuestPhone = phone
	b.draft.Notes = notes
}

// BookFor makes the request on behalf of another guest (staff only).
func (b *DraftBuilder) BookFor(guestID uint64) { b.guestID = guestID }

// Build returns the create request.  It fails when the draft is invalid,
// prices to zero nights or has no confirmed availability.
func (b *DraftBuilder) Build(today model.Date) (CreateReservationRequest, error) {
	if err := b.draft.Validate(today); err != nil {
		return CreateReservationRequest{}, err
	}
	q, err := b.Quote()
	if err != nil {
		return CreateReservationRequest{}, err
	}
	if q.Nights <= 0 {
		return CreateReservationRequest{}, ErrNoNights
	}
	if !b.confirmed {
		return CreateReservationRequest{}, ErrNotConfirmed
	}
	return CreateReservationRequest{
		Draft:       b.draft,
		GuestID:     b.guestID,
		TotalCost:   q.Total,
		TotalNights: q.Nights,
	}, nil
}

// Submit builds and sends the request.
func (b *DraftBuilder) Submit(ctx context.Context, api *Client, today model.Date) (*model.Reservation, error) {
	req, err := b.Build(today)
	if err != nil {
		return nil, err
	}
	res, err := api.CreateReservation(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	return res, nil
}
