package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taigabase/geobase/internal/errors"
)

// ErrorResponse is the wire shape of every error the API returns.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
	Timestamp     string `json:"timestamp"`
}

// statusOf maps an error category to an HTTP status code.
func statusOf(err error) int {
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryDatabase, errors.CategoryCache, errors.CategoryNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleError logs the error and writes the wire shape with a correlation
// id so a client report can be matched to a log line. Upstream failures
// (5xx) keep their detail in the log only; the response stays generic.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	code := statusOf(err)
	resp := ErrorResponse{
		Message:       message,
		Code:          code,
		CorrelationID: uuid.New().String()[:8],
		Timestamp:     time.Now().Format(time.RFC3339),
	}
	var detail string
	if err != nil {
		detail = err.Error()
	}
	if code >= http.StatusInternalServerError {
		resp.Error = "temporarily unavailable"
	} else {
		resp.Error = detail
	}

	c.logger.Error("API Error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", detail,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)

	return ctx.JSON(code, resp)
}
