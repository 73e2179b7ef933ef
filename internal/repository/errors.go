package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store-level conditions shared by every store implementation.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// translate maps driver errors onto the store-level conditions.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &DuplicateKeyError{Constraint: pgErr.ConstraintName}
	}
	return err
}

// DuplicateKeyError reports which unique constraint rejected a write.
type DuplicateKeyError struct {
	Constraint string
}

func (e *DuplicateKeyError) Error() string {
	if e.Constraint == "" {
		return ErrDuplicateKey.Error()
	}
	return ErrDuplicateKey.Error() + ": " + e.Constraint
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// Constraint names declared in migrations/.
const (
	ConstraintAdminUsername   = "admins_username_key"
	ConstraintAdminEmail      = "admins_email_key"
	ConstraintAdminSession    = "admins_session_token_key"
	ConstraintStudentIdentity = "students_class_section_roll_key"
)
