package service

import (
	"errors"
	"fmt"

	"github.com/stemsi/idcard-backend/internal/model"
)

// Error taxonomy shared by the auth and registration services. Callers
// match with errors.Is; messages carry the detail.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	ErrInvalidCode        = errors.New("invalid OTP")
	ErrUnauthorized       = errors.New("session expired, please login again")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrForbidden          = errors.New("only super admins can create new admin accounts")
	ErrExpired            = errors.New("OTP expired, please request a new one")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// DuplicateStudentError reports a taken (class, section, roll number) key.
// Existing is nil when the record could not be read back after a
// constraint violation.
type DuplicateStudentError struct {
	Class      string
	Section    string
	RollNumber string
	Existing   *model.StudentSummary
}

func (e *DuplicateStudentError) Error() string {
	return fmt.Sprintf("student with Class %s, Section %s, Roll No %s already exists",
		e.Class, e.Section, e.RollNumber)
}

func (e *DuplicateStudentError) Unwrap() error { return ErrConflict }
