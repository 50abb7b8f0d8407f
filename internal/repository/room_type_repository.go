package repository

import (
	"context"
	"database/sql"

	"github.com/oceanview/resort-booking/internal/model"
)

// RoomTypeRepo reads and writes the room_types table.
type RoomTypeRepo struct {
	db *sql.DB
}

func NewRoomTypeRepo(db *sql.DB) *RoomTypeRepo { return &RoomTypeRepo{db: db} }

// List returns all room types ordered by id.
func (r *RoomTypeRepo) List(ctx context.Context) ([]model.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type FROM room_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RoomType, 0)
	for rows.Next() {
		var t model.RoomType
		if err := rows.Scan(&t.ID, &t.Name, &t.Type); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a room type or ErrNotFound.
func (r *RoomTypeRepo) GetByID(ctx context.Context, id uint64) (*model.RoomType, error) {
	var t model.RoomType
	err := r.db.QueryRowContext(ctx, `SELECT id, name, type FROM room_types WHERE id = ?`, id).Scan(&t.ID, &t.Name, &t.Type)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Create inserts t and sets its ID.
func (r *RoomTypeRepo) Create(ctx context.Context, t *model.RoomType) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO room_types (name, type) VALUES (?, ?)`, t.Name, t.Type)
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
	t.ID = uint64(id)
	return nil
}

// Update renames a room type.
func (r *RoomTypeRepo) Update(ctx context.Context, t *model.RoomType) error {
	if _, err := r.GetByID(ctx, t.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE room_types SET name = ?, type = ? WHERE id = ?`, t.Name, t.Type, t.ID)
	if isMySQLError(err, mysqlDuplicateEntry) {
		return ErrConflict
	}
	return err
}

// Delete removes a room type.  Types still used by rooms yield ErrConflict.
func (r *RoomTypeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM room_types WHERE id = ?`, id)
	if err != nil {
		if isMySQLError(err, mysqlRowIsReferenced) {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
