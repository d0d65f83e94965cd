package web

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Context struct {
	echo.Context
	L *zap.Logger
}

type HandlerFunc func(ctx Context) error

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func Wrap(h HandlerFunc, l *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)

		ctx := Context{
			Context: c,
			L:       l.With(zap.String("request_id", rid)),
		}

		return h(ctx)
	}
}

// Timestamp formats the current time for response bodies.
func Timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}

func (c Context) Error(status int, message string) error {
	return c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

func (c Context) BadRequest(message string) error {
	return c.Error(http.StatusBadRequest, message)
}

func (c Context) InternalError(message string) error {
	return c.Error(http.StatusInternalServerError, message)
}

func (c Context) OK(data any) error {
	return c.JSON(http.StatusOK, data)
}
