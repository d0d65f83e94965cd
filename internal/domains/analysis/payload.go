package analysis

import (
	"strings"

	"github.com/gomantics/reposcout/internal/domains/issues"
)

const payloadFooter = "*This issue was created by AI agents analyzing the repository structure and suggesting enhancements.*"

// Payload renders s as an issue ready for publishing.
func (s Suggestion) Payload() issues.Payload {
	var b strings.Builder

	b.WriteString("## Feature Description\n")
	b.WriteString(s.Body)
	b.WriteString("\n\n## Implementation Details\n")
	b.WriteString("**Difficulty Level**: " + s.Difficulty + "\n")
	b.WriteString("**Priority**: " + s.Priority + "\n")
	b.WriteString("**Estimated Time**: " + s.ImplementationEstimate + "\n")

	b.WriteString("\n## Technical Requirements\n")
	for _, req := range s.TechnicalRequirements {
		b.WriteString("- " + req + "\n")
	}

	b.WriteString("\n## Acceptance Criteria\n")
	for _, c := range s.AcceptanceCriteria {
		b.WriteString("- [ ] " + c + "\n")
	}

	b.WriteString("\n---\n")
	b.WriteString(payloadFooter + "\n")

	return issues.Payload{
		Title:  s.Title,
		Body:   b.String(),
		Labels: clone(s.Labels),
	}
}
