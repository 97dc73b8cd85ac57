package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/service"
)

// UserRepo persists user accounts in the `users` table.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, name, email, phone, password_hash, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var phone sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Email, &phone, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Phone = phone.String
	return &u, nil
}

// Create inserts a user and returns its ID.  The password must
// already be hashed by the caller.
func (r *UserRepo) Create(ctx context.Context, name, email, phone, passwordHash, role string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, phone, password_hash, role) VALUES (?,?,?,?,?)",
		name, email, nullString(phone), passwordHash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, fmt.Errorf("%w: email already exists", service.ErrConflict)
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user not found", service.ErrNotFound)
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user not found", service.ErrNotFound)
	}
	return u, err
}
