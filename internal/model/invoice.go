package model

import "time"

// Invoice is the billing record issued when a reservation is paid.  It
// is immutable once created.  GuestName and RoomName are copied at issue
// time so the invoice survives later catalog or user edits.
type Invoice struct {
	ID            uint64        `json:"id"`            // invoices.id
	Number        string        `json:"number"`        // invoices.number
	ReservationID uint64        `json:"reservationId"` // invoices.reservation_id
	GuestID       uint64        `json:"guestId"`       // invoices.guest_id
	GuestName     string        `json:"guestName"`     // invoices.guest_name
	RoomName      string        `json:"roomName"`      // invoices.room_name
	TotalPrice    int64         `json:"totalPrice"`    // invoices.total_price
	InvoiceDate   time.Time     `json:"invoiceDate"`   // invoices.invoice_date
	PaymentStatus PaymentStatus `json:"paymentStatus"` // invoices.payment_status
}

// DashboardStats aggregates headline numbers for the admin dashboard.
type DashboardStats struct {
	TotalRooms        int64          `json:"totalRooms"`
	TotalGuests       int64          `json:"totalGuests"`
	TotalReservations int64          `json:"totalReservations"`
	StaffCapacity     int64          `json:"staffCapacity"`
	TotalRevenue      int64          `json:"totalRevenue"`
	RevenueTimeline   []RevenuePoint `json:"revenueTimeline"`
}

// RevenuePoint is the invoiced total for one calendar day.
type RevenuePoint struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}
