package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/talgya/ashes-void/internal/auth"
)

var _ auth.UserStore = (*DB)(nil)

type userRow struct {
	ID           int64  `db:"id"`
	Email        string `db:"email"`
	DisplayName  string `db:"display_name"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

const userCols = "id, email, display_name, password_hash, created_at"

func (r userRow) user() auth.User {
	return auth.User{
		ID:           r.ID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PasswordHash: r.PasswordHash,
		CreatedAt:    parseTime(r.CreatedAt),
	}
}

// CreateUser stores a new account. A duplicate email yields auth.ErrEmailTaken.
func (s store) CreateUser(ctx context.Context, u auth.User) (int64, error) {
	id, err := s.insert(ctx, "INSERT INTO users (email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?)",
		strings.ToLower(u.Email), u.DisplayName, u.PasswordHash, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return 0, auth.ErrEmailTaken
	}
	return id, err
}

// UserByEmail looks an account up by (lower-cased) email.
func (s store) UserByEmail(ctx context.Context, email string) (auth.User, bool, error) {
	var row userRow
	err := s.get(ctx, &row, "SELECT "+userCols+" FROM users WHERE email = ?", strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}
	return row.user(), true, nil
}

// UserByID looks an account up by id.
func (s store) UserByID(ctx context.Context, id int64) (auth.User, bool, error) {
	var row userRow
	err := s.get(ctx, &row, "SELECT "+userCols+" FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}
	return row.user(), true, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}
