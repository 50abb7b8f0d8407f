package repository

import (
	"context"
	"database/sql"

	"github.com/oceanview/resort-booking/internal/model"
)

// StatsRepo runs the aggregate queries behind the dashboard.  Each method
// is a single independent query so callers may run them concurrently.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) count(ctx context.Context, q string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountRooms returns the number of rooms in the catalog.
func (r *StatsRepo) CountRooms(ctx context.Context) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM rooms")
}

// CountReservations returns the number of reservations in any status.
func (r *StatsRepo) CountReservations(ctx context.Context) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM reservations")
}

// CountUsersByRole returns the number of users holding any of roles.
func (r *StatsRepo) CountUsersByRole(ctx context.Context, roles ...model.Role) (int64, error) {
	if len(roles) == 0 {
		return 0, nil
	}
	q := "SELECT COUNT(*) FROM users WHERE role IN (?"
	args := []any{string(roles[0])}
	for _, role := range roles[1:] {
		q += ",?"
		args = append(args, string(role))
	}
	q += ")"
	return r.count(ctx, q, args...)
}

// RevenueByDay sums invoice totals per invoice date, oldest first.
func (r *StatsRepo) RevenueByDay(ctx context.Context) ([]model.RevenuePoint, error) {
	const q = `SELECT DATE_FORMAT(invoice_date, '%Y-%m-%d') AS day, SUM(total_price)
               FROM invoices GROUP BY day ORDER BY day`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RevenuePoint, 0)
	for rows.Next() {
		var p model.RevenuePoint
		if err := rows.Scan(&p.Date, &p.Amount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
