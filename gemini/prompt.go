package gemini

import (
	"fmt"
	"strings"

	"github.com/fwojciec/agendex"
)

// fieldDefinitions are the fixed human-readable definitions enumerated in
// the prompt for each enabled field. Operator hints are appended to these.
var fieldDefinitions = map[string]string{
	agendex.FieldTitle:         "The event title, without venue or date decorations.",
	agendex.FieldDescription:   "A full description of the event in plain text.",
	agendex.FieldStartDate:     "The start date and time in ISO 8601 form if derivable.",
	agendex.FieldEndDate:       "The end date and time in ISO 8601 form if derivable.",
	agendex.FieldPrice:         "The standard ticket price as a decimal number string, no currency symbol.",
	agendex.FieldPriceReduced:  "The reduced or concession ticket price as a decimal number string.",
	agendex.FieldVenue:         "The name of the venue hosting the event.",
	agendex.FieldAddress:       "The street address of the venue.",
	agendex.FieldImageURL:      "The URL of the main event image or poster.",
	agendex.FieldOrganizerName: "The name of the organizing person or body.",
	agendex.FieldCategory:      "A single category such as music, theatre, sports, market.",
	agendex.FieldTags:          "A short array of lowercase keyword tags.",
	agendex.FieldCapacity:      "The venue or event capacity as a number string.",
	agendex.FieldDoorTime:      "The door-opening time, if distinct from the start time.",
	agendex.FieldIsFull:        "true if the event is explicitly marked sold out or full, false if marked available, omit otherwise.",
}

// BuildUserPrompt assembles the bounded extraction prompt: the enabled
// field definitions with operator hints, a JSON skeleton restricted to
// those fields, page metadata, values the CSS layer already extracted,
// structured fragments, and the truncated main-content text.
func BuildUserPrompt(page *agendex.PageContext, enabled []agendex.FieldToggle) string {
	var sb strings.Builder

	sb.WriteString("Extract the following fields from the event page below.\n\n")

	sb.WriteString("Fields:\n")
	for _, toggle := range enabled {
		def := fieldDefinitions[toggle.Field]
		if toggle.Hint != "" {
			def = strings.TrimSuffix(def, ".") + ". Hint: " + toggle.Hint
		}
		fmt.Fprintf(&sb, "- %s: %s\n", toggle.Field, def)
	}

	sb.WriteString("\nRespond with a JSON object of this shape:\n{")
	for i, toggle := range enabled {
		if i > 0 {
			sb.WriteString(",")
		}
		if toggle.Field == agendex.FieldTags {
			fmt.Fprintf(&sb, "\n  %q: [\"...\"]", toggle.Field)
		} else if toggle.Field == agendex.FieldIsFull {
			fmt.Fprintf(&sb, "\n  %q: true", toggle.Field)
		} else {
			fmt.Fprintf(&sb, "\n  %q: \"...\"", toggle.Field)
		}
	}
	sb.WriteString("\n}\n")

	sb.WriteString("\n<page>\n")
	fmt.Fprintf(&sb, "<url>%s</url>\n", page.URL)
	if page.Meta.Title != "" {
		fmt.Fprintf(&sb, "<meta_title>%s</meta_title>\n", page.Meta.Title)
	}
	if page.Meta.Description != "" {
		fmt.Fprintf(&sb, "<meta_description>%s</meta_description>\n", page.Meta.Description)
	}
	if page.Meta.ImageURL != "" {
		fmt.Fprintf(&sb, "<meta_image>%s</meta_image>\n", page.Meta.ImageURL)
	}

	if css := cssFieldLines(page.CSSFields); len(css) > 0 {
		sb.WriteString("<already_extracted>\nThese fields were already extracted by CSS selectors and will be kept; do not re-derive them:\n")
		for _, line := range css {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("</already_extracted>\n")
	}

	if len(page.Fragments) > 0 {
		sb.WriteString("<fragments>\n")
		for _, fragment := range page.Fragments {
			fmt.Fprintf(&sb, "- %s\n", fragment)
		}
		sb.WriteString("</fragments>\n")
	}

	if page.MainText != "" {
		fmt.Fprintf(&sb, "<content>\n%s\n</content>\n", Truncate(page.MainText, maxMainTextChars))
	}
	sb.WriteString("</page>")

	return sb.String()
}

// cssFieldLines renders the non-empty CSS-layer values for prompt context.
func cssFieldLines(css *agendex.EventFields) []string {
	if css == nil {
		return nil
	}
	var lines []string
	for _, field := range agendex.Fields() {
		if field == agendex.FieldTags || field == agendex.FieldIsFull {
			continue
		}
		if v := css.Get(field); v != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", field, v))
		}
	}
	if css.IsFull != nil {
		lines = append(lines, fmt.Sprintf("- %s: %t", agendex.FieldIsFull, *css.IsFull))
	}
	return lines
}

// Truncate bounds s to max characters.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
