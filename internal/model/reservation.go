package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ReservationStatus is the review axis of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusApproved  ReservationStatus = "APPROVED"
	StatusRejected  ReservationStatus = "REJECTED"
	StatusCompleted ReservationStatus = "COMPLETED"
)

// PaymentStatus is the payment axis of a reservation.  It moves
// independently of ReservationStatus.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// ErrInvalidTransition is returned when a reservation is asked to move to
// a state its current state does not allow.
var ErrInvalidTransition = errors.New("invalid reservation transition")

var statusTransitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusCompleted},
	StatusRejected:  {},
	StatusCompleted: {},
}

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the status machine has an edge s -> to.
func (s ReservationStatus) CanTransitionTo(to ReservationStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status change is possible.
func (s ReservationStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// Blocking reports whether a reservation in this status holds its room
// for its date range.
func (s ReservationStatus) Blocking() bool {
	return s == StatusPending || s == StatusApproved
}

// IsReviewDecision reports whether s is a status an admin may set by
// reviewing a pending reservation.
func (s ReservationStatus) IsReviewDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseReservationStatus converts a case-insensitive string to a status.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	st := ReservationStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid reservation status: %q", s)
	}
	return st, nil
}

// ParsePaymentStatus converts a case-insensitive string to a payment status.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	ps := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if ps != PaymentUnpaid && ps != PaymentPaid {
		return "", fmt.Errorf("invalid payment status: %q", s)
	}
	return ps, nil
}

// Reservation is a guest's request to occupy a room for a date range.
// TotalCost and TotalNights are a snapshot taken at creation and are never
// recomputed.  Version increases by one on every write and is used for
// optimistic concurrency.
//
// Fields:
//
//	CheckIn/CheckOut – half-open stay [CheckIn, CheckOut).
//	TotalCost        – TotalNights × room rate at creation, whole currency units.
//	Status           – review axis.
//	PaymentStatus    – payment axis.
type Reservation struct {
	ID            uint64            `json:"id"`            // reservations.id
	GuestID       uint64            `json:"guestId"`       // reservations.guest_id
	RoomID        uint64            `json:"roomId"`        // reservations.room_id
	CheckIn       Date              `json:"checkIn"`       // reservations.check_in
	CheckOut      Date              `json:"checkOut"`      // reservations.check_out
	TotalCost     int64             `json:"totalCost"`     // reservations.total_cost
	TotalNights   int               `json:"totalNights"`   // reservations.total_nights
	Notes         string            `json:"notes"`         // reservations.notes
	GuestAddress  string            `json:"guestAddress"`  // reservations.guest_address
	GuestPhone    string            `json:"guestPhone"`    // reservations.guest_phone
	Status        ReservationStatus `json:"status"`        // reservations.status
	PaymentStatus PaymentStatus     `json:"paymentStatus"` // reservations.payment_status
	Version       uint64            `json:"version"`       // reservations.version
	CreatedAt     time.Time         `json:"createdAt"`     // reservations.created_at
	UpdatedAt     time.Time         `json:"updatedAt"`     // reservations.updated_at
}

// CheckReview verifies that the reservation may receive the review
// decision to.  Only pending reservations can be approved or rejected.
func (r *Reservation) CheckReview(to ReservationStatus) error {
	if !to.IsReviewDecision() {
		return fmt.Errorf("%w: %s is not a review decision", ErrInvalidTransition, to)
	}
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: %s reservations are final", ErrInvalidTransition, r.Status)
	}
	if !r.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	return nil
}

// CheckPayment verifies that the reservation can be paid.
func (r *Reservation) CheckPayment() error {
	if r.Status != StatusApproved {
		return fmt.Errorf("%w: cannot pay a %s reservation", ErrInvalidTransition, r.Status)
	}
	if r.PaymentStatus != PaymentUnpaid {
		return fmt.Errorf("%w: reservation is already %s", ErrInvalidTransition, r.PaymentStatus)
	}
	return nil
}

// Payable reports whether CheckPayment would succeed.
func (r *Reservation) Payable() bool { return r.CheckPayment() == nil }

// Overlaps reports whether the reservation's stay intersects the half-open
// range [checkIn, checkOut).  A stay may start on the day another ends.
func (r *Reservation) Overlaps(checkIn, checkOut Date) bool {
	return r.CheckIn.Before(checkOut) && checkIn.Before(r.CheckOut)
}

// BlocksRange reports whether the reservation makes the room unavailable
// for [checkIn, checkOut).
func (r *Reservation) BlocksRange(checkIn, checkOut Date) bool {
	return r.Status.Blocking() && r.Overlaps(checkIn, checkOut)
}

// DueForCompletion reports whether the reservation has been approved and
// paid and its stay ended on or before today.
func (r *Reservation) DueForCompletion(today Date) bool {
	return r.Status == StatusApproved && r.PaymentStatus == PaymentPaid && !r.CheckOut.After(today)
}
