package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const pgUniqueViolation = "23505"

var (
	// ErrUserNotFound is returned when no row matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the users_email_key constraint rejects a write.
	ErrEmailTaken = errors.New("email already taken")
)

// Store persists users.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateUser(ctx context.Context, u *User) error
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, name, password, is_active, is_staff, created_at, updated_at`

// CreateUser inserts u and fills in its generated id and timestamps.
func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	const query = `INSERT INTO users (email, name, password, is_active, is_staff)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query, u.Email, u.Name, u.PasswordHash, u.IsActive, u.IsStaff).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return translateError("create user", err)
	}
	return nil
}

// GetUserByID loads a user by primary key.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, translateError("get user by id", err)
	}
	return &u, nil
}

// GetUserByEmail loads a user by its (already normalized) email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = $1`, email); err != nil {
		return nil, translateError("get user by email", err)
	}
	return &u, nil
}

// EmailExists reports whether a user already owns email.
func (s *PostgresStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// UpdateUser writes the mutable profile fields of u.
func (s *PostgresStore) UpdateUser(ctx context.Context, u *User) error {
	const query = `UPDATE users
		SET name = $1, password = $2, updated_at = now()
		WHERE id = $3
		RETURNING updated_at`

	if err := s.db.QueryRowxContext(ctx, query, u.Name, u.PasswordHash, u.ID).Scan(&u.UpdatedAt); err != nil {
		return translateError("update user", err)
	}
	return nil
}

func translateError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrEmailTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}
