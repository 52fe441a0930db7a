package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, username, hashed_password, first_name, last_name, role, is_active, is_verified, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

// Create inserts u and fills its generated columns.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (email, username, hashed_password, first_name, last_name, role, is_active, is_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Username, u.HashedPassword, u.FirstName, u.LastName, u.Role, u.IsActive, u.IsVerified,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return translate(err, "creating user")
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, translate(err, "user by username")
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "user by id")
	}
	return &u, nil
}

// Taken reports which of username and email are already registered.
func (r *UserRepository) Taken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	err = r.db.QueryRowxContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1), EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($2))`,
		username, email,
	).Scan(&usernameTaken, &emailTaken)
	return usernameTaken, emailTaken, translate(err, "checking user uniqueness")
}
