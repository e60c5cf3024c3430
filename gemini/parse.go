package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/agendex"
)

// ParseResponse turns raw model output into a partial field map restricted
// to the enabled toggles. It strips markdown code fences, bracket-matches
// the first top-level JSON object, and decodes it tolerantly (strings,
// numbers, booleans and string arrays are all accepted). The bool result
// is false when no parseable object could be recovered.
func ParseResponse(raw string, enabled []agendex.FieldToggle) (*agendex.EventFields, bool) {
	obj := ExtractJSONObject(StripFences(raw))
	if obj == "" {
		return nil, false
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(obj), &decoded); err != nil {
		return nil, false
	}

	fields := &agendex.EventFields{}
	for _, toggle := range enabled {
		value, ok := decoded[toggle.Field]
		if !ok || value == nil {
			continue
		}
		switch toggle.Field {
		case agendex.FieldTags:
			fields.Tags = toStringSlice(value)
		case agendex.FieldIsFull:
			if b, ok := value.(bool); ok {
				fields.IsFull = &b
			}
		default:
			fields.Set(toggle.Field, toString(value))
		}
	}
	return fields, true
}

// StripFences removes a surrounding markdown code fence (``` or ```json)
// if present.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the first top-level {...} block via bracket
// matching, respecting string literals and escapes. Returns "" when no
// balanced object exists.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// PostProcess normalizes a parsed field map in place: whitespace in the
// title is collapsed, runs of three or more newlines in the description
// become two, tags are lowercased and deduplicated.
func PostProcess(fields *agendex.EventFields) {
	fields.Title = strings.Join(strings.Fields(fields.Title), " ")
	fields.Description = collapseNewlines(fields.Description)

	if len(fields.Tags) > 0 {
		seen := make(map[string]bool)
		var tags []string
		for _, tag := range fields.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
		fields.Tags = tags
	}
}

// collapseNewlines reduces runs of three or more newlines to two.
func collapseNewlines(s string) string {
	s = strings.TrimSpace(s)
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	}
	return ""
}

func toStringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := toString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
