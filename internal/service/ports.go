// Package service implements the reservation workflow on top of the
// storage interfaces declared here.  Every operation takes the caller's
// access.Session and consults the capability table before touching state.
package service

import (
	"context"

	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/queue"
	"github.com/oceanview/resort-booking/internal/repository"
)

// RoomStore is satisfied by *repository.RoomRepo.
type RoomStore interface {
	List(ctx context.Context) ([]model.Room, error)
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
	Create(ctx context.Context, rm *model.Room) error
	Update(ctx context.Context, rm *model.Room) error
	Delete(ctx context.Context, id uint64) error
}

// RoomTypeStore is satisfied by *repository.RoomTypeRepo.
type RoomTypeStore interface {
	List(ctx context.Context) ([]model.RoomType, error)
	GetByID(ctx context.Context, id uint64) (*model.RoomType, error)
	Create(ctx context.Context, t *model.RoomType) error
	Update(ctx context.Context, t *model.RoomType) error
	Delete(ctx context.Context, id uint64) error
}

// ReservationStore is satisfied by *repository.ReservationRepo.  Writes
// that change lifecycle state are conditional on status and version.
type ReservationStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error)
	ListDueForCompletion(ctx context.Context, today model.Date) ([]model.Reservation, error)
	HasBlockingOverlap(ctx context.Context, roomID uint64, checkIn, checkOut model.Date) (bool, error)
	CreateIfAvailable(ctx context.Context, res *model.Reservation) error
	UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus, version uint64) (*model.Reservation, error)
	MarkPaid(ctx context.Context, id, version uint64, inv *model.Invoice) (*model.Reservation, error)
	Delete(ctx context.Context, id uint64) error
}

// InvoiceStore is satisfied by *repository.InvoiceRepo.
type InvoiceStore interface {
	GetByReservationID(ctx context.Context, reservationID uint64) (*model.Invoice, error)
	List(ctx context.Context, guestID uint64) ([]model.Invoice, error)
}

// UserStore is satisfied by *repository.UserRepo.
type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	Create(ctx context.Context, u *model.User, password string) error
	Update(ctx context.Context, u *model.User, password string) error
	Delete(ctx context.Context, id uint64) error
}

// StatsStore is satisfied by *repository.StatsRepo.
type StatsStore interface {
	CountRooms(ctx context.Context) (int64, error)
	CountReservations(ctx context.Context) (int64, error)
	CountUsersByRole(ctx context.Context, roles ...model.Role) (int64, error)
	RevenueByDay(ctx context.Context) ([]model.RevenuePoint, error)
}

// EventPublisher is satisfied by *queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// NopPublisher drops every event.  It is used when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.Event) error { return nil }
