package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/erpgenie-cli/internal/ai"
	"github.com/KaramelBytes/erpgenie-cli/internal/chart"
	"github.com/KaramelBytes/erpgenie-cli/internal/export"
)

// APIResponse is the standard envelope for every JSON response.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapError translates package errors to HTTP status codes and error codes.
func MapError(err error) (status int, code, msg string) {
	var (
		statusErr   *ai.WebhookStatusError
		unreachable *ai.UnreachableError
		authErr     *ai.AuthError
		rateErr     *ai.RateLimitError
	)
	switch {
	case errors.Is(err, chart.ErrNotGraphable):
		return http.StatusUnprocessableEntity, "NOT_GRAPHABLE", err.Error()
	case errors.Is(err, chart.ErrNothingToRender):
		return http.StatusUnprocessableEntity, "NOTHING_TO_RENDER", err.Error()
	case errors.Is(err, export.ErrEmptyTable):
		return http.StatusUnprocessableEntity, "NO_TABLE", err.Error()
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED", ai.ChatErrorText(err)
	case errors.As(err, &authErr):
		return http.StatusBadGateway, "UPSTREAM_AUTH", ai.ChatErrorText(err)
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, "UPSTREAM_STATUS", ai.ChatErrorText(err)
	case errors.As(err, &unreachable):
		return http.StatusBadGateway, "UPSTREAM_UNREACHABLE", ai.ChatErrorText(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", ai.ChatErrorText(err)
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", err.Error()
	}
}
