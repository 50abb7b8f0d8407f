package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oceanview/resort-booking/internal/model"
)

// ReservationRepo provides access to the reservations table.  Every write
// that changes lifecycle state is conditional on the row's current status
// and version so that concurrent writers cannot silently overwrite each
// other.  All timestamps are stored in UTC.
type ReservationRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const reservationColumns = `id, guest_id, room_id, check_in, check_out, total_cost, total_nights,
       notes, guest_address, guest_phone, status, payment_status, version, created_at, updated_at`

func scanReservation(s rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	var notes, address, phone sql.NullString
	err := s.Scan(
		&res.ID, &res.GuestID, &res.RoomID, &res.CheckIn, &res.CheckOut, &res.TotalCost, &res.TotalNights,
		&notes, &address, &phone, &res.Status, &res.PaymentStatus, &res.Version, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Notes = notes.String
	res.GuestAddress = address.String
	res.GuestPhone = phone.String
	return &res, nil
}

func getReservation(ctx context.Context, q querier, id uint64) (*model.Reservation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := scanReservation(row)
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

// GetByID returns a single reservation or ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return getReservation(ctx, r.db, id)
}

// List returns reservations matching the filter, newest first.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if f.GuestID != 0 {
		where = append(where, "guest_id = ?")
		args = append(args, f.GuestID)
	}
	if f.RoomID != 0 {
		where = append(where, "room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	return r.query(ctx, q, args...)
}

// ListDueForCompletion returns approved and paid reservations whose
// check-out date is on or before today.
func (r *ReservationRepo) ListDueForCompletion(ctx context.Context, today model.Date) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
               WHERE status = 'APPROVED' AND payment_status = 'PAID' AND check_out <= ?
               ORDER BY check_out, id`
	return r.query(ctx, q, today)
}

func (r *ReservationRepo) query(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const overlapQuery = `SELECT EXISTS (
        SELECT 1 FROM reservations
        WHERE room_id = ? AND status IN ('PENDING', 'APPROVED')
          AND check_in < ? AND check_out > ?)`

// HasBlockingOverlap reports whether a pending or approved reservation on
// the room intersects [checkIn, checkOut).
func (r *ReservationRepo) HasBlockingOverlap(ctx context.Context, roomID uint64, checkIn, checkOut model.Date) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, overlapQuery, roomID, checkOut, checkIn).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateIfAvailable inserts a reservation only when its room is bookable
// and no blocking reservation overlaps the stay.  The room row is locked
// for the duration of the transaction, which serialises concurrent
// creates for the same room.  On success the generated ID, version and
// timestamps are populated on res.
func (r *ReservationRepo) CreateIfAvailable(ctx context.Context, res *model.Reservation) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var roomStatus model.RoomStatus
		err := tx.QueryRowContext(ctx, `SELECT status FROM rooms WHERE id = ? FOR UPDATE`, res.RoomID).Scan(&roomStatus)
		if err != nil {
			return notFound(err)
		}
		if !roomStatus.Bookable() {
			return ErrUnavailable
		}
		var exists bool
		if err := tx.QueryRowContext(ctx, overlapQuery, res.RoomID, res.CheckOut, res.CheckIn).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrUnavailable
		}
		now := r.now()
		const ins = `INSERT INTO reservations
            (guest_id, room_id, check_in, check_out, total_cost, total_nights, notes, guest_address, guest_phone,
             status, payment_status, version, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`
		result, err := tx.ExecContext(ctx, ins,
			res.GuestID, res.RoomID, res.CheckIn, res.CheckOut, res.TotalCost, res.TotalNights,
			res.Notes, res.GuestAddress, res.GuestPhone, string(res.Status), string(res.PaymentStatus), now, now)
		if err != nil {
			if isMySQLError(err, mysqlNoReferencedRow) {
				return fmt.Errorf("guest %d: %w", res.GuestID, ErrNotFound)
			}
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		res.ID = uint64(id)
		res.Version = 1
		res.CreatedAt = now
		res.UpdatedAt = now
		return nil
	})
}

// UpdateStatus moves a reservation from status `from` to `to` provided it
// is still at version.  It returns the updated row, ErrNotFound when the
// reservation does not exist and ErrVersionConflict when it changed.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus, version uint64) (*model.Reservation, error) {
	var out *model.Reservation
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const upd = `UPDATE reservations SET status = ?, version = version + 1, updated_at = ?
                     WHERE id = ? AND status = ? AND version = ?`
		result, err := tx.ExecContext(ctx, upd, string(to), r.now(), id, string(from), version)
		if err != nil {
			return err
		}
		if err := expectOneRow(ctx, tx, result, id); err != nil {
			return err
		}
		out, err = getReservation(ctx, tx, id)
		return err
	})
	return out, err
}

// MarkPaid flips an approved, unpaid reservation at version to PAID and
// stores inv in the same transaction.  inv.ID is populated on success.
func (r *ReservationRepo) MarkPaid(ctx context.Context, id, version uint64, inv *model.Invoice) (*model.Reservation, error) {
	var out *model.Reservation
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const upd = `UPDATE reservations SET payment_status = 'PAID', version = version + 1, updated_at = ?
                     WHERE id = ? AND status = 'APPROVED' AND payment_status = 'UNPAID' AND version = ?`
		result, err := tx.ExecContext(ctx, upd, r.now(), id, version)
		if err != nil {
			return err
		}
		if err := expectOneRow(ctx, tx, result, id); err != nil {
			return err
		}
		inv.ReservationID = id
		if err := insertInvoice(ctx, tx, inv); err != nil {
			return err
		}
		out, err = getReservation(ctx, tx, id)
		return err
	})
	return out, err
}

// Delete hard-deletes a reservation and its invoice.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE reservation_id = ?`, id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// expectOneRow turns a zero-row conditional update into ErrNotFound or
// ErrVersionConflict depending on whether the row still exists.
func expectOneRow(ctx context.Context, tx *sql.Tx, result sql.Result, id uint64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}
