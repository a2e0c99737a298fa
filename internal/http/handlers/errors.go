package handlers

import (
	"errors"
	"net/http"

	"transportdesk/internal/domain"
	"transportdesk/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

const genericFailureMessage = "something went wrong, please try again"

// ErrorResponse is the uniform failure body.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Redirect  string `json:"redirect,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error())
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error())
	case domain.IsUnauthorized(err):
		middleware.AbortUnauthorized(c, err.Error())
	case domain.IsInternal(err):
		var internal domain.InternalError
		errors.As(err, &internal)
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal_error", internal.Error())
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal_error", genericFailureMessage)
	}
}
