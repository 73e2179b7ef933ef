package model

import "time"

// Role is an administrator privilege level.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Admin is an administrator account as persisted by the credential store.
type Admin struct {
	ID               int64      `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	FullName         *string    `json:"full_name,omitempty"`
	Role             Role       `json:"role"`
	OTPCode          *string    `json:"-"`
	OTPExpiresAt     *time.Time `json:"-"`
	SessionToken     *string    `json:"-"`
	SessionExpiresAt *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AdminPublic is the subset of an Admin that may leave the service.
type AdminPublic struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Public strips credentials, OTP and session fields.
func (a *Admin) Public() AdminPublic {
	return AdminPublic{
		Username:  a.Username,
		Email:     a.Email,
		FullName:  a.FullName,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

// Session is returned by login and session verification.
type Session struct {
	Admin     AdminPublic `json:"admin"`
	Token     string      `json:"session_token"`
	ExpiresIn int64       `json:"session_expires_in"` // seconds
	Reused    bool        `json:"-"` // an unexpired session was handed back
}

// PasswordResetTicket describes an issued one-time code. Code is only set
// when no out-of-band sender delivered it.
type PasswordResetTicket struct {
	Email     string `json:"email"`
	Code      string `json:"otp,omitempty"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

// SignupInput carries the fields accepted by admin signup.
type SignupInput struct {
	Username  string
	Email     string
	Password  string
	FullName  string
	Role      string
	CreatedBy string
}

// LoginRequest is the payload for admin login. Username may hold an email.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// SignupRequest is the payload for creating an admin account.
type SignupRequest struct {
	Username  string `json:"username" binding:"required,max=64"`
	Email     string `json:"email" binding:"required,max=255"`
	Password  string `json:"password" binding:"required,max=128"`
	FullName  string `json:"full_name" binding:"omitempty,max=128"`
	Role      string `json:"role" binding:"omitempty,max=32"`
	CreatedBy string `json:"created_by" binding:"omitempty,max=64"`
}

// ChangePasswordRequest is the payload for a password change.
type ChangePasswordRequest struct {
	Username        string `json:"username" binding:"required"`
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,max=128"`
}

// ForgotPasswordRequest starts the OTP reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,max=255"`
}

// ResetPasswordRequest completes the OTP reset flow.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,max=255"`
	OTP         string `json:"otp" binding:"required,max=16"`
	NewPassword string `json:"new_password" binding:"required,max=128"`
}

// VerifySessionRequest carries a session token in the body.
type VerifySessionRequest struct {
	SessionToken string `json:"session_token"`
}
