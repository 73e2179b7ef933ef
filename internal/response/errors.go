package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrInvalidCode        ErrCode = "INVALID_OTP"
	ErrCodeExpired        ErrCode = "OTP_EXPIRED"
	ErrUnauthorized       ErrCode = "UNAUTHORIZED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDuplicateStudent ErrCode = "DUPLICATE_STUDENT"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid username/email or password."
	case ErrInvalidCode:
		return "Invalid OTP."
	case ErrCodeExpired:
		return "OTP expired. Please request a new one."
	case ErrUnauthorized:
		return "Session expired. Please login again."
	case ErrTokenRequired:
		return "Session token is required."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Only super admins can create new admin accounts."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDuplicateStudent:
		return "A student with this class, section and roll number already exists."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
