package analysis

import (
	"fmt"
	"strings"

	"github.com/gomantics/reposcout/internal/libs/gitrepo"
)

const suggestionSchema = `{
  "title": "Clear feature title (max 80 chars)",
  "body": "Detailed description with benefits and implementation context",
  "difficulty": "Easy OR Medium OR Hard",
  "priority": "Low OR Medium OR High",
  "labels": ["enhancement", "feature", "relevant-category"],
  "implementation_estimate": "Time estimate like '2-3 weeks'",
  "technical_requirements": ["requirement1", "requirement2", "requirement3"],
  "acceptance_criteria": ["criteria1", "criteria2", "criteria3"]
}`

const strictExample = `{"title":"Feature name","body":"Description","difficulty":"Medium","priority":"Medium","labels":["enhancement"],"implementation_estimate":"2-3 weeks","technical_requirements":["req1","req2"],"acceptance_criteria":["criteria1","criteria2"]}`

func analysisPrompt(ref gitrepo.Reference, meta *gitrepo.RepoMetadata) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the GitHub repository https://github.com/%s (%s).\n", ref, ref)
	if meta != nil {
		b.WriteString("\nRepository facts:\n")
		if meta.DefaultBranch != "" {
			fmt.Fprintf(&b, "- default branch: %s\n", meta.DefaultBranch)
		}
		if meta.HeadCommitSHA != "" {
			fmt.Fprintf(&b, "- head commit: %s\n", meta.HeadCommitSHA)
		}
		fmt.Fprintf(&b, "- branches: %d\n- tags: %d\n", meta.Branches, meta.Tags)
	}

	b.WriteString("\nBased on the repository and common patterns for projects like it, suggest ONE practical feature enhancement.\n")
	b.WriteString("\nIMPORTANT: Respond with ONLY a valid JSON object in this exact format:\n\n")
	b.WriteString(suggestionSchema)
	b.WriteString("\n\nFocus on practical, high-impact features. Return ONLY the JSON object.")

	return b.String()
}

func strictPrompt() string {
	return "The previous response was not valid JSON. Return ONLY a JSON object, with no markdown and no other text, in exactly this format:\n" + strictExample
}
