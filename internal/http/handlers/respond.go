package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// HTTPError is attached to the gin context with ctx.Error and rendered by
// the terminal error handler.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// Fail hands err to the terminal error handler and stops the chain.
func Fail(ctx *gin.Context, status int, message string, err error) {
	_ = ctx.Error(&HTTPError{
		Status:  status,
		Code:    codeForStatus(status),
		Message: message,
		Err:     err,
	})
	ctx.Abort()
}

// RespondFromError renders err with its own status when it carries one,
// otherwise as a 500.
func RespondFromError(ctx *gin.Context, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		status := httpErr.Status
		if status < 400 {
			status = http.StatusInternalServerError
		}
		code := httpErr.Code
		if code == "" {
			code = codeForStatus(status)
		}
		RespondError(ctx, status, code, httpErr.Message, nil)
		return
	}

	RespondError(ctx, http.StatusInternalServerError, "internal_error", err.Error(), nil)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		if status >= 500 {
			return "internal_error"
		}
		return "error"
	}
}
