package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/idcard-backend/internal/response"
	"github.com/stemsi/idcard-backend/internal/service"
)

// respondError maps a service error onto the response envelope. Unknown
// errors are logged and surface as 500 with their message.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var dup *service.DuplicateStudentError
	if errors.As(err, &dup) {
		var details map[string]interface{}
		if dup.Existing != nil {
			details = map[string]interface{}{"existing_student": dup.Existing}
		}
		response.FailWithDetails(c, http.StatusConflict, response.ErrDuplicateStudent, dup.Error(), details)
		return
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, detail(err, service.ErrValidation))
	case errors.Is(err, service.ErrInvalidCredentials):
		response.FailWithMessage(c, http.StatusUnauthorized, response.ErrInvalidCredentials, detail(err, service.ErrInvalidCredentials))
	case errors.Is(err, service.ErrInvalidCode):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCode)
	case errors.Is(err, service.ErrExpired):
		response.Fail(c, http.StatusUnauthorized, response.ErrCodeExpired)
	case errors.Is(err, service.ErrUnauthorized):
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized)
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrNotFound):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, sentence(err.Error()))
	case errors.Is(err, service.ErrConflict):
		response.FailWithMessage(c, http.StatusConflict, response.ErrConflict, sentence(err.Error()))
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.FailWithMessage(c, http.StatusInternalServerError, response.ErrInternal, err.Error())
	}
}

// detail strips the sentinel prefix from a wrapped "%w: detail" error.
func detail(err, sentinel error) string {
	return sentence(strings.TrimPrefix(err.Error(), sentinel.Error()+": "))
}

func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
