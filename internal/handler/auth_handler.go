package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/idcard-backend/internal/middleware"
	"github.com/stemsi/idcard-backend/internal/model"
	"github.com/stemsi/idcard-backend/internal/response"
	"github.com/stemsi/idcard-backend/internal/service"
	"github.com/stemsi/idcard-backend/internal/validator"
)

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Initialize godoc
// POST /api/v1/auth/initialize
// Creates the default superadmin on first run. Safe to call repeatedly.
func (h *AuthHandler) Initialize(c *gin.Context) {
	created, err := h.authService.BootstrapDefaultAdmin(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if !created {
		response.SuccessWithMessage(c, http.StatusOK, "Admin already exists", gin.H{"created": false})
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Default admin created successfully", gin.H{
		"created":  true,
		"username": service.DefaultAdminUsername,
		"password": service.DefaultAdminPassword,
		"email":    service.DefaultAdminEmail,
	})
}

// Signup godoc
// POST /api/v1/auth/signup
// Creates an admin account. created_by, when given, must be a superadmin.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	admin, err := h.authService.Signup(c.Request.Context(), model.SignupInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		Role:      req.Role,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, "Admin account created successfully", gin.H{"admin": admin})
}

// Login godoc
// POST /api/v1/auth/login
// Accepts a username or email with a password and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	msg := "Login successful"
	if session.Reused {
		msg = "Login successful with existing session"
	}
	response.SuccessWithMessage(c, http.StatusOK, msg, session)
}

// ChangePassword godoc
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), req.Username, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Password changed successfully", gin.H{})
}

// ForgotPassword godoc
// POST /api/v1/auth/forgot-password
// Issues a one-time reset code. The code is only echoed back when no
// out-of-band channel delivered it.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ticket, err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "OTP sent to your email", ticket)
}

// ResetPassword godoc
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK,
		"Password reset successfully. You can now login with your new password.", gin.H{})
}

// VerifySession godoc
// POST /api/v1/auth/verify-session
// Accepts the token in the body or as a bearer header and renews it.
func (h *AuthHandler) VerifySession(c *gin.Context) {
	var req model.VerifySessionRequest
	// An empty or absent body is allowed; the header may carry the token.
	_ = c.ShouldBindJSON(&req)

	token := req.SessionToken
	if token == "" {
		token = middleware.ExtractToken(c)
	}

	session, err := h.authService.VerifySession(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Session valid", session)
}

// GetAdmin godoc
// GET /api/v1/auth/admin/:username
// Returns public account details. Requires an admin session.
func (h *AuthHandler) GetAdmin(c *gin.Context) {
	admin, err := h.authService.GetAdminDetails(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"admin": admin})
}
