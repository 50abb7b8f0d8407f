package repository

import (
	"context"
	"database/sql"

	"github.com/oceanview/resort-booking/internal/model"
)

// InvoiceRepo reads the invoices table.  Invoices are only ever written by
// ReservationRepo.MarkPaid, inside the payment transaction.
type InvoiceRepo struct {
	db *sql.DB
}

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

const invoiceColumns = `id, number, reservation_id, guest_id, guest_name, room_name, total_price, invoice_date, payment_status`

func scanInvoice(s rowScanner) (*model.Invoice, error) {
	var inv model.Invoice
	if err := s.Scan(&inv.ID, &inv.Number, &inv.ReservationID, &inv.GuestID, &inv.GuestName, &inv.RoomName,
		&inv.TotalPrice, &inv.InvoiceDate, &inv.PaymentStatus); err != nil {
		return nil, err
	}
	return &inv, nil
}

func insertInvoice(ctx context.Context, q querier, inv *model.Invoice) error {
	const ins = `INSERT INTO invoices (number, reservation_id, guest_id, guest_name, room_name, total_price, invoice_date, payment_status)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := q.ExecContext(ctx, ins, inv.Number, inv.ReservationID, inv.GuestID, inv.GuestName, inv.RoomName,
		inv.TotalPrice, inv.InvoiceDate, string(inv.PaymentStatus))
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}

// GetByReservationID returns the invoice issued for a reservation or
// ErrNotFound when it has not been paid yet.
func (r *InvoiceRepo) GetByReservationID(ctx context.Context, reservationID uint64) (*model.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE reservation_id = ?`, reservationID)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

// List returns invoices ordered by date.  A non-zero guestID restricts the
// result to that guest.
func (r *InvoiceRepo) List(ctx context.Context, guestID uint64) ([]model.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices`
	var args []any
	if guestID != 0 {
		q += ` WHERE guest_id = ?`
		args = append(args, guestID)
	}
	q += ` ORDER BY invoice_date, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
