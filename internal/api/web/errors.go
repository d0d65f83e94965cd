package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorHandler renders errors that escape handlers, including echo's own
// routing errors, as ErrorResponse bodies.
func ErrorHandler(l *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch {
			case status == http.StatusNotFound:
				message = "Endpoint not found"
			case status == http.StatusMethodNotAllowed:
				message = "Method not allowed"
			case status >= http.StatusInternalServerError:
			default:
				if m, ok := he.Message.(string); ok {
					message = m
				} else {
					message = http.StatusText(status)
				}
			}
		}

		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		if status >= http.StatusInternalServerError {
			l.Error("unhandled error", zap.Error(err), zap.String("request_id", rid))
		} else {
			l.Debug("request rejected",
				zap.Int("status", status),
				zap.String("path", c.Request().URL.Path),
				zap.String("request_id", rid),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, ErrorResponse{Success: false, Error: message})
		}
		if err != nil {
			l.Error("failed to write error response", zap.Error(err))
		}
	}
}
