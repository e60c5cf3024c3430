package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/agendex"
)

// Ensure Extractor implements agendex.SelectorExtractor at compile time.
var _ agendex.SelectorExtractor = (*Extractor)(nil)

// Extractor evaluates selector rules against an event page.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract applies the rules in stored order against the page. Only the
// first element matching a rule's selector is read. Rules are isolated:
// an invalid selector, a missing match or a missing attribute yields no
// value for that rule and never fails the call. Assignment goes through
// EventFields.Set, so for rules targeting the same field the last
// non-empty value wins.
func (e *Extractor) Extract(html string, rules []*agendex.SelectorRule) (*agendex.EventFields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, agendex.Errorf(agendex.EINVALID, "failed to parse HTML: %v", err)
	}

	fields := &agendex.EventFields{}
	for _, rule := range rules {
		value := evalRule(doc, rule)
		fields.Set(rule.Field, value)
	}
	return fields, nil
}

// evalRule evaluates one rule. goquery panics on selectors cascadia cannot
// compile; the recover keeps a bad rule from taking down the rest.
func evalRule(doc *goquery.Document, rule *agendex.SelectorRule) (value string) {
	defer func() {
		if r := recover(); r != nil {
			value = ""
		}
	}()

	sel := doc.Find(NormalizeSelector(rule.Selector)).First()
	if sel.Length() == 0 {
		return ""
	}

	switch rule.Attribute {
	case agendex.AttrTextContent, "":
		value = sel.Text()
	case agendex.AttrInnerHTML:
		inner, err := sel.Html()
		if err != nil {
			return ""
		}
		value = inner
	default:
		attr, ok := sel.Attr(rule.Attribute)
		if !ok {
			return ""
		}
		value = attr
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if rule.TextPrefix != "" {
		value = trimAfterPrefix(value, rule.TextPrefix)
		if value == "" {
			return ""
		}
	}

	if rule.Transform == agendex.TransformPrice {
		value = ExtractPrice(value)
	}

	return value
}

// trimAfterPrefix keeps only the suffix after the prefix, located
// case-sensitively first and ASCII-case-insensitively second. The fold is
// ASCII-only so byte offsets in the folded string stay valid in the
// original; Unicode case folds can change byte lengths. No match discards
// the value.
func trimAfterPrefix(value, prefix string) string {
	if i := strings.Index(value, prefix); i >= 0 {
		return strings.TrimSpace(value[i+len(prefix):])
	}
	if i := strings.Index(asciiLower(value), asciiLower(prefix)); i >= 0 {
		return strings.TrimSpace(value[i+len(prefix):])
	}
	return ""
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

var priceRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ExtractPrice extracts the first numeric substring from a price string,
// treating a comma as the decimal separator: "12,50 €" becomes "12.50".
// Returns "" when the input carries no number.
func ExtractPrice(value string) string {
	m := priceRe.FindString(value)
	if m == "" {
		return ""
	}
	return strings.ReplaceAll(m, ",", ".")
}
