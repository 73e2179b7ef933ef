package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/idcard-backend/internal/config"
	"github.com/stemsi/idcard-backend/internal/metrics"
	"github.com/stemsi/idcard-backend/internal/model"
	"github.com/stemsi/idcard-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Default account created by BootstrapDefaultAdmin. First-run only.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
	DefaultAdminEmail    = "admin@school.com"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AdminStore is the credential store the auth service runs against.
type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.Admin, error)
	GetBySessionToken(ctx context.Context, token string) (*model.Admin, error)
	Create(ctx context.Context, a *model.Admin) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	ResetPassword(ctx context.Context, id int64, passwordHash string) error
	SetOTP(ctx context.Context, id int64, code string, expiresAt time.Time) error
	SetSession(ctx context.Context, id int64, token string, expiresAt time.Time) error
	ExtendSession(ctx context.Context, id int64, expiresAt time.Time) error
	ClearSession(ctx context.Context, id int64) error
}

// CodeSender delivers one-time codes. OutOfBand reports whether the code
// reached the admin through another channel; if not, it is handed back to
// the caller of RequestPasswordReset.
type CodeSender interface {
	SendCode(ctx context.Context, destination, code string) error
	OutOfBand() bool
}

// sessionClaims is the signed body of a session token. Expiry lives in the
// store so that it can slide; the token itself never expires.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// AuthService handles admin authentication, password lifecycle and sessions.
type AuthService struct {
	admins     AdminStore
	sender     CodeSender
	secret     []byte
	sessionTTL time.Duration
	otpTTL     time.Duration
	bcryptCost int
	log        zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, admins AdminStore, sender CodeSender, log zerolog.Logger) *AuthService {
	s := &AuthService{
		admins:     admins,
		sender:     sender,
		secret:     []byte(cfg.SessionSecret),
		sessionTTL: cfg.SessionTTL,
		otpTTL:     cfg.OTPTTL,
		bcryptCost: cfg.BcryptCost,
		log:        log.With().Str("component", "auth_service").Logger(),
		now:        time.Now,
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = 30 * 24 * time.Hour
	}
	if s.otpTTL <= 0 {
		s.otpTTL = 10 * time.Minute
	}
	if s.bcryptCost < bcrypt.MinCost || s.bcryptCost > bcrypt.MaxCost {
		s.bcryptCost = bcrypt.DefaultCost
	}
	return s
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login authenticates by username or email. An unexpired session is handed
// back unchanged; otherwise a new token is minted.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (session *model.Session, err error) {
	defer func() { observe("login", err) }()

	admin, err := s.admins.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	if err := s.CheckPassword(admin.PasswordHash, password); err != nil {
		return nil, err
	}

	now := s.now()
	if admin.SessionToken != nil && admin.SessionExpiresAt != nil && admin.SessionExpiresAt.After(now) {
		s.log.Info().Str("username", admin.Username).Msg("Login reused existing session")
		return &model.Session{
			Admin:     admin.Public(),
			Token:     *admin.SessionToken,
			ExpiresIn: int64(admin.SessionExpiresAt.Sub(now) / time.Second),
			Reused:    true,
		}, nil
	}

	token, err := s.mintToken(admin.Username, now)
	if err != nil {
		return nil, err
	}
	if err := s.admins.SetSession(ctx, admin.ID, token, now.Add(s.sessionTTL)); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info().Str("username", admin.Username).Msg("Login successful")
	return &model.Session{
		Admin:     admin.Public(),
		Token:     token,
		ExpiresIn: int64(s.sessionTTL / time.Second),
	}, nil
}

// VerifySession checks a bearer token and slides its expiry forward.
// A matching but expired token is cleared before the failure is reported.
func (s *AuthService) VerifySession(ctx context.Context, token string) (session *model.Session, err error) {
	defer func() { observe("verify_session", err) }()

	if token == "" {
		return nil, ErrUnauthorized
	}
	if err := s.parseToken(token); err != nil {
		return nil, ErrUnauthorized
	}

	admin, err := s.admins.GetBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	now := s.now()
	if admin.SessionExpiresAt == nil || !admin.SessionExpiresAt.After(now) {
		if err := s.admins.ClearSession(ctx, admin.ID); err != nil {
			return nil, fmt.Errorf("clear expired session: %w", err)
		}
		s.log.Info().Str("username", admin.Username).Msg("Expired session cleared")
		return nil, ErrUnauthorized
	}

	if err := s.admins.ExtendSession(ctx, admin.ID, now.Add(s.sessionTTL)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("extend session: %w", err)
	}

	return &model.Session{
		Admin:     admin.Public(),
		Token:     token,
		ExpiresIn: int64(s.sessionTTL / time.Second),
	}, nil
}

// ChangePassword replaces the password of username after checking the
// current one. The active session stays valid.
func (s *AuthService) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) (err error) {
	defer func() { observe("change_password", err) }()

	if username == "" || currentPassword == "" || newPassword == "" {
		return validationError("all fields are required")
	}
	if len(newPassword) < minPasswordLength {
		return validationError("new password must be at least 6 characters")
	}

	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("admin %w", ErrNotFound)
		}
		return fmt.Errorf("find admin: %w", err)
	}
	if err := s.CheckPassword(admin.PasswordHash, currentPassword); err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrInvalidCredentials)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.admins.UpdatePassword(ctx, admin.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Info().Str("username", username).Msg("Password changed")
	return nil
}

// RequestPasswordReset issues a 6-digit one-time code for the admin owning
// email. A newer code supersedes any previous one.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (ticket *model.PasswordResetTicket, err error) {
	defer func() { observe("forgot_password", err) }()

	if email == "" {
		return nil, validationError("email is required")
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("admin %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	if err := s.admins.SetOTP(ctx, admin.ID, code, s.now().Add(s.otpTTL)); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}
	if err := s.sender.SendCode(ctx, admin.Email, code); err != nil {
		return nil, fmt.Errorf("send otp: %w", err)
	}

	ticket = &model.PasswordResetTicket{
		Email:     admin.Email,
		ExpiresIn: int64(s.otpTTL / time.Second),
	}
	if !s.sender.OutOfBand() {
		ticket.Code = code
	}

	s.log.Info().Str("username", admin.Username).Bool("out_of_band", s.sender.OutOfBand()).Msg("Password reset code issued")
	return ticket, nil
}

// ResetPassword consumes a one-time code and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) (err error) {
	defer func() { observe("reset_password", err) }()

	if email == "" || code == "" || newPassword == "" {
		return validationError("email, OTP and new password are required")
	}
	if len(newPassword) < minPasswordLength {
		return validationError("new password must be at least 6 characters")
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("admin %w", ErrNotFound)
		}
		return fmt.Errorf("find admin: %w", err)
	}

	if admin.OTPExpiresAt == nil || !admin.OTPExpiresAt.After(s.now()) {
		return ErrExpired
	}
	if admin.OTPCode == nil || *admin.OTPCode != code {
		return ErrInvalidCode
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.admins.ResetPassword(ctx, admin.ID, hash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.log.Info().Str("username", admin.Username).Msg("Password reset")
	return nil
}

// Signup creates an admin account. When in.CreatedBy is set it must name
// a superadmin.
func (s *AuthService) Signup(ctx context.Context, in model.SignupInput) (public *model.AdminPublic, err error) {
	defer func() { observe("signup", err) }()

	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, validationError("username, email and password are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError("password must be at least 6 characters")
	}
	if in.CreatedBy != "" {
		creator, err := s.admins.GetByUsername(ctx, in.CreatedBy)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("find creator: %w", err)
		}
		if creator == nil || creator.Role != model.RoleSuperAdmin {
			return nil, ErrForbidden
		}
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, validationError("invalid email format")
	}
	role := model.RoleAdmin
	if in.Role != "" {
		role = model.Role(in.Role)
		if !role.Valid() {
			return nil, validationError("invalid role, must be admin or superadmin")
		}
	}

	// Both lookups only give a friendly message; the unique indexes decide.
	if _, err := s.admins.GetByUsername(ctx, in.Username); err == nil {
		return nil, fmt.Errorf("username %w", ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find username: %w", err)
	}
	if _, err := s.admins.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("email %w", ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find email: %w", err)
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &model.Admin{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if name := strings.TrimSpace(in.FullName); name != "" {
		admin.FullName = &name
	}

	if err := s.admins.Create(ctx, admin); err != nil {
		var dup *repository.DuplicateKeyError
		if errors.As(err, &dup) {
			if dup.Constraint == repository.ConstraintAdminEmail {
				return nil, fmt.Errorf("email %w", ErrConflict)
			}
			return nil, fmt.Errorf("username %w", ErrConflict)
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}

	s.log.Info().
		Str("username", admin.Username).
		Str("role", string(admin.Role)).
		Str("created_by", in.CreatedBy).
		Msg("Admin account created")

	p := admin.Public()
	return &p, nil
}

// BootstrapDefaultAdmin creates the default superadmin unless an account
// named "admin" exists. created is false when nothing was inserted.
func (s *AuthService) BootstrapDefaultAdmin(ctx context.Context) (created bool, err error) {
	if _, err := s.admins.GetByUsername(ctx, DefaultAdminUsername); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("find default admin: %w", err)
	}

	hash, err := s.HashPassword(DefaultAdminPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	admin := &model.Admin{
		Username:     DefaultAdminUsername,
		Email:        DefaultAdminEmail,
		PasswordHash: hash,
		Role:         model.RoleSuperAdmin,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		// Lost a race with a concurrent bootstrap.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("create default admin: %w", err)
	}

	s.log.Warn().Str("username", DefaultAdminUsername).Msg("Default admin created, change its password")
	return true, nil
}

// GetAdminDetails returns the public fields of username.
func (s *AuthService) GetAdminDetails(ctx context.Context, username string) (*model.AdminPublic, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("admin %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	p := admin.Public()
	return &p, nil
}

// mintToken signs a fresh, globally unique session token.
func (s *AuthService) mintToken(username string, now time.Time) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.New().String(),
			Subject:  username,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// parseToken rejects tokens this service did not sign.
func (s *AuthService) parseToken(tokenStr string) error {
	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid token claims")
	}
	return nil
}

// generateOTP draws a code uniformly from 100000–999999.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// observe records an auth operation outcome.
func observe(operation string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case isDomainError(err):
		outcome = metrics.OutcomeFailure
	default:
		outcome = metrics.OutcomeError
	}
	metrics.AuthEvents.WithLabelValues(operation, outcome).Inc()
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrInvalidCredentials, ErrInvalidCode, ErrUnauthorized,
		ErrNotFound, ErrConflict, ErrForbidden, ErrExpired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
