package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// per-request budget for store calls
const storeTimeout = 3 * time.Second

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// requestContext bounds a handler's store work by the request and storeTimeout.
func requestContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), storeTimeout)
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

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

var kindStatus = map[error]int{
	apperr.ErrValidation:      http.StatusBadRequest,
	apperr.ErrUnauthenticated: http.StatusUnauthorized,
	apperr.ErrForbidden:       http.StatusForbidden,
	apperr.ErrNotFound:        http.StatusNotFound,
	apperr.ErrConflict:        http.StatusConflict,
}

// RespondDomainError maps a classified error onto the envelope. Anything
// unclassified is logged and answered with an opaque 500.
func RespondDomainError(ctx *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		if status, ok := kindStatus[appErr.Kind]; ok {
			RespondError(ctx, status, appErr.Code, appErr.Message, appErr.Details)
			return
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		slog.Default().WarnContext(ctx.Request.Context(), "request timed out", "err", err)
		RespondError(ctx, http.StatusServiceUnavailable, "timeout", "The request took too long. Please retry.", nil)
		return
	}

	slog.Default().ErrorContext(ctx.Request.Context(), "unhandled error", "err", err)
	RespondInternal(ctx, "Something went wrong")
}
