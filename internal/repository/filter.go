package repository

import "github.com/oceanview/resort-booking/internal/model"

// ReservationFilter narrows reservation listings.  Zero values match
// everything.
type ReservationFilter struct {
	GuestID uint64
	RoomID  uint64
	Status  model.ReservationStatus
}

// Match reports whether r passes the filter.
func (f ReservationFilter) Match(r *model.Reservation) bool {
	if f.GuestID != 0 && r.GuestID != f.GuestID {
		return false
	}
	if f.RoomID != 0 && r.RoomID != f.RoomID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}
