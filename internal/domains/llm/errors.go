package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
)

// ErrLLMService matches every *ServiceError via errors.Is.
var ErrLLMService = errors.New("llm service error")

// ServiceError is a failed call to the remote LLM endpoint. StatusCode is
// zero when no HTTP response was received.
type ServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm service error (status %d): %s", e.StatusCode, e.Message)
	}
	return "llm service error: " + e.Message
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLLMService}
	}
	return []error{ErrLLMService, e.Err}
}

// Retryable reports whether the same request may succeed later.
func (e *ServiceError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return !errors.Is(e.Err, context.Canceled)
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return e.StatusCode >= 500
	}
}

func toServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &ServiceError{StatusCode: apiErr.StatusCode, Message: msg, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Message: "request timed out", Err: err}
	}

	return &ServiceError{Message: err.Error(), Err: err}
}
