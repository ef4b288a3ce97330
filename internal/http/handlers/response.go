// Package handlers provides HTTP handler implementations for the journal API.
//
// This file defines the response helpers shared by every endpoint. Errors
// always use ErrorResponse; failErr maps service errors onto a status and
// code so handlers never inspect error types themselves:
//
//	services.ErrNotFound    -> 404 not_found
//	services.ErrValidation  -> 422 validation_failed (fields when known)
//	services.ErrDependency  -> 500 dependency_failed
//	services.ErrStorage     -> 503 storage_failed
//	services.ErrNoRenderer  -> 503 export_unavailable
//	anything else           -> 500 internal_error
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/service-journal/internal/http/middleware"
	"github.com/tbourn/service-journal/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Заказ не найден"`
	// Per-field messages for validation failures
	Fields map[string]string `json:"fields,omitempty"`
}

// fail aborts the request with a structured error. Server errors (>=500)
// are logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg}, nil)
}

func failWith(c *gin.Context, status int, resp ErrorResponse, cause error) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")

	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", resp.Code)
		if cause != nil {
			ev = ev.Err(cause)
		}
		ev.Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr translates a service error into the matching response.
func failErr(c *gin.Context, err error) {
	status, code := classify(err)
	resp := ErrorResponse{Code: code, Message: services.UserMessage(err)}

	var ve *services.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		resp.Fields = map[string]string(ve.Fields)
	}
	if errors.Is(err, services.ErrNoRenderer) {
		resp.Message = "Печать отчёта недоступна"
	}
	failWith(c, status, resp, err)
}

// classify picks the status and code for err. Dependency is checked before
// storage because a failed debt insert wraps both.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity, ErrCodeValidation
	case errors.Is(err, services.ErrDependency):
		return http.StatusInternalServerError, ErrCodeDependencyFailed
	case errors.Is(err, services.ErrStorage):
		return http.StatusServiceUnavailable, ErrCodeStorageFailed
	case errors.Is(err, services.ErrNoRenderer):
		return http.StatusServiceUnavailable, ErrCodeExportUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
