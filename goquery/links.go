package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/agendex"
)

// Ensure Links implements agendex.LinkExtractor at compile time.
var _ agendex.LinkExtractor = (*Links)(nil)

// Links implements agendex.LinkExtractor over the package functions.
type Links struct{}

// NewLinks creates a new Links.
func NewLinks() *Links {
	return &Links{}
}

// EventLinks evaluates the event link selector against a listing page.
func (l *Links) EventLinks(html, pageURL, selector, attribute string) ([]string, error) {
	return EventLinks(html, pageURL, selector, attribute)
}

// NextPageURL extracts the pagination link from a listing page.
func (l *Links) NextPageURL(html, pageURL, selector, attribute string) string {
	return NextPageURL(html, pageURL, selector, attribute)
}

// EventLinks evaluates the event link selector against a listing page and
// returns the resolved detail URLs in document order, deduplicated. The
// attribute defaults to "href" when empty. Empty, unresolvable and
// non-HTTP values are dropped.
func EventLinks(html, pageURL, selector, attribute string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, agendex.Errorf(agendex.EINVALID, "invalid page URL: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, agendex.Errorf(agendex.EINVALID, "failed to parse HTML: %v", err)
	}
	if attribute == "" {
		attribute = "href"
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find(NormalizeSelector(selector)).Each(func(_ int, sel *goquery.Selection) {
		raw, ok := sel.Attr(attribute)
		if !ok || raw == "" {
			return
		}
		if isNonHTTPLink(raw) {
			return
		}
		resolved := resolveURL(base, raw)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})
	return links, nil
}

// NextPageURL extracts the pagination link from a listing page via the next
// page selector, reading the given attribute (default "href") from the
// first match only. Returns "" when the selector matches nothing or the
// link cannot be resolved.
func NextPageURL(html, pageURL, selector, attribute string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if attribute == "" {
		attribute = "href"
	}

	raw, ok := doc.Find(NormalizeSelector(selector)).First().Attr(attribute)
	if !ok || raw == "" || isNonHTTPLink(raw) {
		return ""
	}
	return resolveURL(base, raw)
}

// resolveURL resolves a relative URL against a base URL. Returns empty
// string if the href cannot be parsed. Fragments are stripped for
// deduplication purposes.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
