package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/utils"
)

// UserRepo mirrors the 'users' table.  Emails are stored normalised to
// lower case and passwords only as bcrypt digests.
type UserRepo struct {
	db   *sql.DB
	cost int
}

// NewUserRepo returns a UserRepo that hashes passwords with the given
// bcrypt cost.
func NewUserRepo(db *sql.DB, bcryptCost int) *UserRepo { return &UserRepo{db: db, cost: bcryptCost} }

const userColumns = "id, name, email, password_hash, role, created_at, updated_at"

func scanUser(s rowScanner) (*model.User, error) {
	var u model.User
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func normaliseEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes password, inserts the user and populates ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string) error {
	hash, err := utils.HashPassword(password, r.cost)
	if err != nil {
		return err
	}
	u.Email = normaliseEmail(u.Email)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		u.Name, u.Email, hash, string(u.Role))
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return ErrEmailExists
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
	*u = *saved
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// GetByEmail fetches a user by normalised email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normaliseEmail(email)))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes name, email and role.  A non-empty password replaces the
// stored hash.
func (r *UserRepo) Update(ctx context.Context, u *model.User, password string) error {
	if _, err := r.GetByID(ctx, u.ID); err != nil {
		return err
	}
	u.Email = normaliseEmail(u.Email)
	var err error
	if password != "" {
		var hash string
		if hash, err = utils.HashPassword(password, r.cost); err != nil {
			return err
		}
		_, err = r.db.ExecContext(ctx, "UPDATE users SET name=?, email=?, role=?, password_hash=? WHERE id=?",
			u.Name, u.Email, string(u.Role), hash, u.ID)
	} else {
		_, err = r.db.ExecContext(ctx, "UPDATE users SET name=?, email=?, role=? WHERE id=?",
			u.Name, u.Email, string(u.Role), u.ID)
	}
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return ErrEmailExists
		}
		return err
	}
	saved, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *saved
	return nil
}

// Delete removes a user.  Users that still own reservations yield
// ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
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
