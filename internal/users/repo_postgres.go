package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE users (
//	  id            UUID PRIMARY KEY,
//	  email         TEXT NOT NULL UNIQUE,
//	  password_hash TEXT NOT NULL,
//	  role          TEXT NOT NULL,
//	  is_active     BOOLEAN NOT NULL DEFAULT TRUE,
//	  created_at    TIMESTAMPTZ NOT NULL
//	);
//
// role is deliberately TEXT: values outside the enum surface as ErrInvalidRole.

const pgUniqueViolation = "23505"

// PostgresRepo implements Store on database/sql with the pgx driver.
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

const selectUser = `
SELECT id, email, password_hash, role, is_active, created_at
FROM users
`

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		// Not a key the table could hold; skip the round trip.
		return User{}, ErrNotFound
	}
	return scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE id = $1`, id))
}

func (r *PostgresRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE email = $1`, NormalizeEmail(email)))
}

func (r *PostgresRepo) Insert(ctx context.Context, n NewUser) (User, error) {
	if err := n.validate(); err != nil {
		return User{}, err
	}
	const q = `
INSERT INTO users (id, email, password_hash, role, is_active, created_at)
VALUES ($1, $2, $3, $4, TRUE, $5)
RETURNING id, email, password_hash, role, is_active, created_at
`
	u, err := scanUser(r.db.QueryRowContext(ctx, q,
		uuid.NewString(),
		NormalizeEmail(n.Email),
		n.PasswordHash,
		string(n.Role),
		r.clock().UTC(),
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

func scanUser(row *sql.Row) (User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	r, err := ParseRole(role)
	if err != nil {
		return User{}, err
	}
	u.Role = r
	return u, nil
}
