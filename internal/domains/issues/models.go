package issues

import (
	"fmt"
	"strings"
)

// Payload is the issue to create. Fields other than Title and Body are
// passed through as given.
type Payload struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
	Milestone *int     `json:"milestone,omitempty"`
}

// Validate checks the fields the issue tracker requires.
func (p Payload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(p.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidPayload)
	}
	return nil
}

// Result is the normalized view of a created issue.
type Result struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Number int    `json:"number"`
	State  string `json:"state"`
}
