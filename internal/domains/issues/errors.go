package issues

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v72/github"
)

var (
	ErrInvalidPayload = errors.New("invalid issue payload")

	ErrAuth          = errors.New("issue tracker authentication failed")
	ErrNotFound      = errors.New("repository not found")
	ErrRateLimited   = errors.New("issue tracker rate limit exceeded")
	ErrIssueCreation = errors.New("issue creation failed")
)

// UpstreamError is a failed issue-tracker call. Kind is one of ErrAuth,
// ErrNotFound, ErrRateLimited or ErrIssueCreation and matches via errors.Is.
type UpstreamError struct {
	Kind       error
	StatusCode int
	Message    string

	// RetryAfter is set for rate-limited requests when upstream supplies a hint.
	RetryAfter time.Duration
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Kind
}

func classify(err error, now time.Time) *UpstreamError {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &UpstreamError{
			Kind:       ErrRateLimited,
			StatusCode: statusOf(rateErr.Response),
			Message:    rateErr.Message,
			RetryAfter: max(0, rateErr.Rate.Reset.Time.Sub(now)),
		}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &UpstreamError{
			Kind:       ErrRateLimited,
			StatusCode: statusOf(abuseErr.Response),
			Message:    abuseErr.Message,
			RetryAfter: abuseErr.GetRetryAfter(),
		}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		status := statusOf(respErr.Response)
		return &UpstreamError{
			Kind:       kindOf(status),
			StatusCode: status,
			Message:    describe(respErr),
		}
	}

	return &UpstreamError{Kind: ErrIssueCreation, Message: err.Error()}
}

func kindOf(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrIssueCreation
	}
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func describe(e *github.ErrorResponse) string {
	msg := e.Message
	for _, fe := range e.Errors {
		detail := fe.Message
		if detail == "" {
			detail = fmt.Sprintf("%s %s", fe.Field, fe.Code)
		}
		msg += "; " + detail
	}
	return msg
}
