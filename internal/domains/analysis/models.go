package analysis

import (
	"strings"

	"github.com/gomantics/reposcout/internal/domains/issues"
	"github.com/gomantics/reposcout/internal/libs/gitrepo"
)

const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"

	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Method names the way a Result was produced.
const Method = "Direct LLM Analysis"

const (
	defaultTitle    = "AI-Generated Repository Enhancement"
	defaultBody     = "AI-generated feature suggestion based on repository analysis."
	defaultEstimate = "2-3 weeks"
)

var (
	defaultLabels       = []string{"enhancement", "ai-generated"}
	defaultRequirements = []string{"Implementation planning", "Code development"}
	defaultCriteria     = []string{"Feature implemented", "Tests pass"}
)

// Suggestion is one proposed improvement extracted from a model reply.
type Suggestion struct {
	Title                  string   `json:"title"`
	Body                   string   `json:"body"`
	Difficulty             string   `json:"difficulty"`
	Priority               string   `json:"priority"`
	Labels                 []string `json:"labels"`
	ImplementationEstimate string   `json:"implementation_estimate"`
	TechnicalRequirements  []string `json:"technical_requirements"`
	AcceptanceCriteria     []string `json:"acceptance_criteria"`
}

// Result is the outcome of one analysis. Suggestions is empty, never nil,
// when the reply held nothing extractable; RawResponse is always set.
type Result struct {
	Repository          string                `json:"repository"`
	AnalysisMethod      string                `json:"analysis_method"`
	ConversationID      string                `json:"conversation_id"`
	Metadata            *gitrepo.RepoMetadata `json:"metadata,omitempty"`
	Suggestions         []Suggestion          `json:"suggestions"`
	SynthesizedAnalysis *Suggestion           `json:"synthesized_analysis"`
	GithubPayload       *issues.Payload       `json:"github_payload"`
	RawResponse         string                `json:"raw_response"`
}

func (s *Suggestion) normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.Body = strings.TrimSpace(s.Body)
	if s.Title == "" {
		s.Title = defaultTitle
	}
	if s.Body == "" {
		s.Body = defaultBody
	}

	s.Difficulty = canonical(s.Difficulty, DifficultyMedium, DifficultyEasy, DifficultyMedium, DifficultyHard)
	s.Priority = canonical(s.Priority, PriorityMedium, PriorityLow, PriorityMedium, PriorityHigh)

	if len(s.Labels) == 0 {
		s.Labels = clone(defaultLabels)
	}
	if strings.TrimSpace(s.ImplementationEstimate) == "" {
		s.ImplementationEstimate = defaultEstimate
	}
	if len(s.TechnicalRequirements) == 0 {
		s.TechnicalRequirements = clone(defaultRequirements)
	}
	if len(s.AcceptanceCriteria) == 0 {
		s.AcceptanceCriteria = clone(defaultCriteria)
	}
}

func canonical(v, fallback string, allowed ...string) string {
	v = strings.TrimSpace(v)
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	return fallback
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
