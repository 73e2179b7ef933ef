package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/idcard-backend/internal/model"
)

const adminColumns = `id, username, email, password_hash, full_name, role,
	otp_code, otp_expires_at, session_token, session_expires_at, created_at`

// AdminRepository handles admin data access.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.Admin, error) {
	a := &model.Admin{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE `+where, arg,
	).Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FullName, &a.Role,
		&a.OTPCode, &a.OTPExpiresAt, &a.SessionToken, &a.SessionExpiresAt, &a.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

// GetByUsername retrieves an admin by exact username.
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	return r.getOne(ctx, `username = $1`, username)
}

// GetByEmail retrieves an admin by exact email.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return r.getOne(ctx, `email = $1`, email)
}

// GetByIdentifier retrieves an admin whose username or email equals identifier.
// A username match wins over an email match.
func (r *AdminRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.Admin, error) {
	return r.getOne(ctx, `username = $1 OR email = $1 ORDER BY (username = $1) DESC LIMIT 1`, identifier)
}

// GetBySessionToken retrieves the admin holding token.
func (r *AdminRepository) GetBySessionToken(ctx context.Context, token string) (*model.Admin, error) {
	return r.getOne(ctx, `session_token = $1`, token)
}

// Create inserts a new admin.
func (r *AdminRepository) Create(ctx context.Context, a *model.Admin) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admins (username, email, password_hash, full_name, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		a.Username, a.Email, a.PasswordHash, a.FullName, a.Role,
	).Scan(&a.ID, &a.CreatedAt)
	return translate(err)
}

// UpdatePassword replaces the password hash.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execOne(ctx,
		`UPDATE admins SET password_hash = $1 WHERE id = $2`, passwordHash, id)
}

// ResetPassword replaces the password hash and consumes the one-time code.
func (r *AdminRepository) ResetPassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execOne(ctx,
		`UPDATE admins SET password_hash = $1, otp_code = NULL, otp_expires_at = NULL WHERE id = $2`,
		passwordHash, id)
}

// SetOTP stores a one-time code, superseding any previous one.
func (r *AdminRepository) SetOTP(ctx context.Context, id int64, code string, expiresAt time.Time) error {
	return r.execOne(ctx,
		`UPDATE admins SET otp_code = $1, otp_expires_at = $2 WHERE id = $3`, code, expiresAt, id)
}

// SetSession stores a freshly minted session token.
func (r *AdminRepository) SetSession(ctx context.Context, id int64, token string, expiresAt time.Time) error {
	return r.execOne(ctx,
		`UPDATE admins SET session_token = $1, session_expires_at = $2 WHERE id = $3`, token, expiresAt, id)
}

// ExtendSession slides the expiry of the current session.
func (r *AdminRepository) ExtendSession(ctx context.Context, id int64, expiresAt time.Time) error {
	return r.execOne(ctx,
		`UPDATE admins SET session_expires_at = $1 WHERE id = $2 AND session_token IS NOT NULL`, expiresAt, id)
}

// ClearSession drops the session token and its expiry.
func (r *AdminRepository) ClearSession(ctx context.Context, id int64) error {
	return r.execOne(ctx,
		`UPDATE admins SET session_token = NULL, session_expires_at = NULL WHERE id = $1`, id)
}

func (r *AdminRepository) execOne(ctx context.Context, sql string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
