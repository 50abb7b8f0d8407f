package model

import (
	"fmt"
	"strings"
	"time"
)

// RoomStatus is the catalog status of a room.  It is independent of the
// reservations held against the room.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomMaintenance RoomStatus = "MAINTENANCE"
	RoomBooked      RoomStatus = "BOOKED"
)

// MaxRoomImages is the number of image slots a room carries.
const MaxRoomImages = 3

// ParseRoomStatus converts a case-insensitive string to a RoomStatus.
func ParseRoomStatus(s string) (RoomStatus, error) {
	st := RoomStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case RoomAvailable, RoomMaintenance, RoomBooked:
		return st, nil
	}
	return "", fmt.Errorf("invalid room status: %q", s)
}

// Bookable reports whether new reservations may be placed on a room in
// this status.  Rooms under maintenance never are.
func (s RoomStatus) Bookable() bool { return s != RoomMaintenance }

// Room is a bookable unit in the catalog.  Rate is the nightly price in
// whole currency units.
type Room struct {
	ID          uint64     `json:"id"`          // rooms.id
	Name        string     `json:"name"`        // rooms.name
	RoomTypeID  uint64     `json:"roomTypeId"`  // rooms.room_type_id
	Rate        int64      `json:"rate"`        // rooms.rate
	Capacity    int        `json:"capacity"`    // rooms.capacity
	Status      RoomStatus `json:"status"`      // rooms.status
	Description string     `json:"description"` // rooms.description
	Images      []string   `json:"images"`      // rooms.image1..image3
	Amenities   []string   `json:"amenities"`   // rooms.amenities (JSON array)
	CreatedAt   time.Time  `json:"createdAt"`   // rooms.created_at
	UpdatedAt   time.Time  `json:"updatedAt"`   // rooms.updated_at
}

// RoomType groups rooms into a category.
type RoomType struct {
	ID   uint64 `json:"id"`   // room_types.id
	Name string `json:"name"` // room_types.name
	Type string `json:"type"` // room_types.type
}
