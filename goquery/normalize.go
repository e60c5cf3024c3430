// Package goquery provides the DOM query engine for the extraction
// pipeline: selector-rule evaluation, agenda link discovery, and page
// metadata extraction, built on PuerkitoBio/goquery.
package goquery

import (
	"fmt"
	"regexp"
	"strings"
)

// bareAttrRe matches a bare "attr=value" expression: an attribute name
// followed by "=" and the rest of the string as the value.
var bareAttrRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)=(.*)$`)

// NormalizeSelector repairs selectors that operators entered as bare
// "attr=value" expressions instead of valid CSS. Inputs that already look
// like CSS (leading ".", "#", "[" or ":", or no "=" at all, or an "=" that
// is part of an attribute selector) pass through untouched.
//
// Repair cases:
//
//	class=foo bar   -> .foo.bar
//	id=main         -> #main
//	data-id=123     -> [data-id="123"]
//	class=css-[h4x] -> [class*="css-"]   (dynamic class names)
func NormalizeSelector(selector string) string {
	s := strings.TrimSpace(selector)
	if s == "" {
		return s
	}

	switch s[0] {
	case '.', '#', '[', ':':
		return s
	}
	eq := strings.Index(s, "=")
	if eq < 0 {
		return s
	}
	// A bracket before the "=" means a real attribute selector, not a bare
	// attr=value expression.
	if i := strings.Index(s, "["); i >= 0 && i < eq {
		return s
	}

	m := bareAttrRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	attr, value := m[1], strings.TrimSpace(m[2])
	if value == "" {
		return s
	}

	switch strings.ToLower(attr) {
	case "class":
		var parts []string
		for _, token := range strings.Fields(value) {
			if sel := classSelector(token); sel != "" {
				parts = append(parts, sel)
			}
		}
		if len(parts) == 0 {
			return s
		}
		return strings.Join(parts, "")
	case "id":
		if hasDynamicChars(value) {
			return substringSelector("id", value)
		}
		return "#" + value
	default:
		if hasDynamicChars(value) {
			return substringSelector(attr, value)
		}
		return fmt.Sprintf("[%s=%q]", attr, value)
	}
}

// classSelector turns one class token into a selector. Tokens containing
// bracket or paren characters come from hashed or utility class names; the
// stable prefix before the first such character becomes a substring match.
func classSelector(token string) string {
	if !hasDynamicChars(token) {
		return "." + token
	}
	return substringSelector("class", token)
}

// substringSelector builds an [attr*="prefix"] selector from the stable
// prefix before the first bracket or paren character.
func substringSelector(attr, value string) string {
	prefix := value
	if i := strings.IndexAny(value, "[](){}"); i >= 0 {
		prefix = value[:i]
	}
	if prefix == "" {
		return ""
	}
	return fmt.Sprintf("[%s*=%q]", attr, prefix)
}

func hasDynamicChars(s string) bool {
	return strings.ContainsAny(s, "[](){}")
}
