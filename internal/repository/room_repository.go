package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/oceanview/resort-booking/internal/model"
)

// RoomRepo encapsulates all database queries related to rooms.  Images
// are stored in three nullable columns (image1..image3) and amenities as
// a JSON array in a TEXT column.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the provided DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, name, room_type_id, rate, capacity, status, description,
       image1, image2, image3, amenities, created_at, updated_at`

func scanRoom(s rowScanner) (*model.Room, error) {
	var rm model.Room
	var desc, amenities sql.NullString
	var img [model.MaxRoomImages]sql.NullString
	if err := s.Scan(&rm.ID, &rm.Name, &rm.RoomTypeID, &rm.Rate, &rm.Capacity, &rm.Status, &desc,
		&img[0], &img[1], &img[2], &amenities, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	rm.Description = desc.String
	rm.Images = make([]string, 0, model.MaxRoomImages)
	for _, v := range img {
		if v.Valid && v.String != "" {
			rm.Images = append(rm.Images, v.String)
		}
	}
	rm.Amenities = []string{}
	if amenities.Valid && amenities.String != "" {
		if err := json.Unmarshal([]byte(amenities.String), &rm.Amenities); err != nil {
			return nil, err
		}
	}
	return &rm, nil
}

// imageArgs spreads up to three image URLs over the image columns.
func imageArgs(images []string) [model.MaxRoomImages]sql.NullString {
	var out [model.MaxRoomImages]sql.NullString
	for i := 0; i < len(images) && i < model.MaxRoomImages; i++ {
		out[i] = sql.NullString{String: images[i], Valid: images[i] != ""}
	}
	return out
}

func amenitiesArg(a []string) (string, error) {
	if a == nil {
		a = []string{}
	}
	b, err := json.Marshal(a)
	return string(b), err
}

// List returns all rooms ordered by id.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a room by its ID or returns ErrNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return rm, nil
}

// Create inserts a new room and reloads it so timestamps are populated.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	img := imageArgs(rm.Images)
	am, err := amenitiesArg(rm.Amenities)
	if err != nil {
		return err
	}
	const q = `INSERT INTO rooms (name, room_type_id, rate, capacity, status, description, image1, image2, image3, amenities)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rm.Name, rm.RoomTypeID, rm.Rate, rm.Capacity, string(rm.Status),
		rm.Description, img[0], img[1], img[2], am)
	if err != nil {
		if isMySQLError(err, mysqlNoReferencedRow) {
			return ErrNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	saved, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*rm = *saved
	return nil
}

// Update overwrites every mutable column of the room.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	img := imageArgs(rm.Images)
	am, err := amenitiesArg(rm.Amenities)
	if err != nil {
		return err
	}
	const q = `UPDATE rooms SET name = ?, room_type_id = ?, rate = ?, capacity = ?, status = ?, description = ?,
               image1 = ?, image2 = ?, image3 = ?, amenities = ? WHERE id = ?`
	_, err = r.db.ExecContext(ctx, q, rm.Name, rm.RoomTypeID, rm.Rate, rm.Capacity, string(rm.Status),
		rm.Description, img[0], img[1], img[2], am, rm.ID)
	if err != nil {
		if isMySQLError(err, mysqlNoReferencedRow) {
			return ErrNotFound
		}
		return err
	}
	// MySQL reports 0 affected rows when nothing changed, so existence is
	// checked by reloading.
	saved, err := r.GetByID(ctx, rm.ID)
	if err != nil {
		return err
	}
	*rm = *saved
	return nil
}

// Delete removes a room.  Rooms referenced by reservations cannot be
// deleted and yield ErrConflict.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
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
