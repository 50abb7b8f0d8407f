// Package queue carries reservation domain events over RabbitMQ.  The
// publisher is used by the reservation service after a state change has
// been committed; the consumer turns events into guest notification
// records.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/oceanview/resort-booking/internal/model"
)

// EventsQueue is the durable queue every reservation event is routed to.
const EventsQueue = "reservation.events"

// EventType names a reservation lifecycle change.
type EventType string

const (
	ReservationCreated       EventType = "reservation.created"
	ReservationStatusChanged EventType = "reservation.status_changed"
	InvoiceIssued            EventType = "invoice.issued"
	ReservationCompleted     EventType = "reservation.completed"
	ReservationDeleted       EventType = "reservation.deleted"
)

// Event is published after a reservation write commits.  It carries enough
// information for downstream consumers to notify the guest without querying
// the primary database.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	ReservationID uint64    `json:"reservation_id"`
	GuestID       uint64    `json:"guest_id"`
	RoomID        uint64    `json:"room_id"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	TotalCost     int64     `json:"total_cost"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
}

// NewEvent snapshots r into an event of type t.
func NewEvent(t EventType, r *model.Reservation, at time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          t,
		OccurredAt:    at.UTC(),
		ReservationID: r.ID,
		GuestID:       r.GuestID,
		RoomID:        r.RoomID,
		CheckIn:       r.CheckIn.String(),
		CheckOut:      r.CheckOut.String(),
		Status:        string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
		TotalCost:     r.TotalCost,
	}
}
