package analysis

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// Extract pulls suggestions out of a free-form model reply. It accepts a
// fenced block, a JSON value surrounded by prose, a single object, an array
// of objects or an object with a "suggestions" array. Replies that hold
// nothing usable yield an empty slice.
func Extract(reply string) []Suggestion {
	reply = strings.TrimSpace(reply)

	for _, m := range fencePattern.FindAllStringSubmatch(reply, -1) {
		if found := fromText(m[1]); len(found) > 0 {
			return found
		}
	}
	if found := fromText(reply); len(found) > 0 {
		return found
	}
	return []Suggestion{}
}

// fromText decodes the first well-formed JSON value starting at any opening
// bracket. Prose such as markdown links may open brackets that never decode,
// so every offset is tried before falling back to repair.
func fromText(s string) []Suggestion {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		var v any
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&v); err != nil {
			continue
		}
		if found := fromValue(v); len(found) > 0 {
			return found
		}
	}

	for _, span := range repairSpans(s) {
		v, ok := repair(span)
		if !ok {
			continue
		}
		if found := fromValue(v); len(found) > 0 {
			return found
		}
	}
	return nil
}

// repairSpans returns the text from the first "{" to the last "}" and from
// the first "[" to the last "]". A span whose closer is missing runs to the
// end of s.
func repairSpans(s string) []string {
	var out []string
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(s, pair[0])
		if start < 0 {
			continue
		}
		end := strings.LastIndex(s, pair[1])
		if end < start {
			out = append(out, s[start:])
			continue
		}
		out = append(out, s[start:end+1])
	}
	return out
}

func repair(s string) (any, bool) {
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, false
	}
	return v, true
}

func fromValue(v any) []Suggestion {
	switch t := v.(type) {
	case []any:
		return fromList(t)
	case map[string]any:
		if list, ok := t["suggestions"].([]any); ok {
			return fromList(list)
		}
		if s, ok := fromObject(t); ok {
			return []Suggestion{s}
		}
	}
	return nil
}

func fromList(list []any) []Suggestion {
	out := make([]Suggestion, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := fromObject(obj); ok {
			out = append(out, s)
		}
	}
	return out
}

func fromObject(m map[string]any) (Suggestion, bool) {
	s := Suggestion{
		Title:                  stringField(m, "title"),
		Body:                   stringField(m, "body", "description"),
		Difficulty:             stringField(m, "difficulty"),
		Priority:               stringField(m, "priority"),
		Labels:                 listField(m, "labels"),
		ImplementationEstimate: stringField(m, "implementation_estimate", "estimate"),
		TechnicalRequirements:  listField(m, "technical_requirements"),
		AcceptanceCriteria:     listField(m, "acceptance_criteria"),
	}
	if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Body) == "" {
		return Suggestion{}, false
	}

	s.normalize()
	return s, true
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func listField(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{strings.TrimSpace(v)}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}
