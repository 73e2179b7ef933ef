package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/idcard-backend/internal/model"
	"github.com/stemsi/idcard-backend/internal/response"
	"github.com/stemsi/idcard-backend/internal/service"
)

// ContextKeySession is the Gin context key for the verified admin session.
const ContextKeySession = "admin_session"

// SessionVerifier checks and renews admin session tokens.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*model.Session, error)
}

// RequireAdminSession admits requests carrying a live admin session token,
// from the Authorization header or the ?token= query (WebSocket clients
// cannot set headers). Each admitted request slides the session expiry.
func RequireAdminSession(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		session, err := verifier.VerifySession(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrUnauthorized)
				return
			}
			_ = c.Error(err)
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Set(ContextKeySession, session)
		c.Next()
	}
}

// GetSession retrieves the verified admin session from the Gin context.
func GetSession(c *gin.Context) *model.Session {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	session, ok := val.(*model.Session)
	if !ok {
		return nil
	}
	return session
}

// ExtractToken reads a bearer token from the Authorization header, falling
// back to the token query parameter.
func ExtractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Query("token")
}
