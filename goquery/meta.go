package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/agendex"
)

// Ensure Analyzer implements agendex.PageAnalyzer at compile time.
var _ agendex.PageAnalyzer = (*Analyzer)(nil)

// Analyzer implements agendex.PageAnalyzer over the package functions.
type Analyzer struct{}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Meta extracts page metadata.
func (a *Analyzer) Meta(html string) (*agendex.PageMeta, error) {
	return Meta(html)
}

// Fragments collects short structured text fragments.
func (a *Analyzer) Fragments(html string, max int) ([]string, error) {
	return Fragments(html, max)
}

// maxFragmentLen caps a single context fragment; longer blocks belong to
// the main-content text instead.
const maxFragmentLen = 300

// fragmentSelectors are the elements mined for short structured context
// fragments, in priority order: headings first, then common event-info
// class names, then generic text blocks.
var fragmentSelectors = []string{
	"h1", "h2", "h3", "h4",
	".event-info", ".event-details", ".event-meta", ".date", ".datetime",
	".time", ".location", ".venue", ".address", ".price", ".tickets",
	".organizer", ".category",
	"p", "li",
}

// Meta extracts page metadata, preferring Open Graph over Twitter Card
// over standard title/description tags.
func Meta(html string) (*agendex.PageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, agendex.Errorf(agendex.EINVALID, "failed to parse HTML: %v", err)
	}

	meta := &agendex.PageMeta{}
	meta.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		metaContent(doc, `meta[name="twitter:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	meta.Description = firstNonEmpty(
		metaContent(doc, `meta[property="og:description"]`),
		metaContent(doc, `meta[name="twitter:description"]`),
		metaContent(doc, `meta[name="description"]`),
	)
	meta.ImageURL = firstNonEmpty(
		metaContent(doc, `meta[property="og:image"]`),
		metaContent(doc, `meta[name="twitter:image"]`),
	)
	return meta, nil
}

// Fragments collects short structured text fragments from the page for the
// AI prompt context: headings, common event-info elements, paragraphs and
// list items, deduplicated and capped at max.
func Fragments(html string, max int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, agendex.Errorf(agendex.EINVALID, "failed to parse HTML: %v", err)
	}

	// Strip elements that only produce noise.
	doc.Find("script, style, nav, header, footer").Remove()

	seen := make(map[string]bool)
	var fragments []string
	for _, selector := range fragmentSelectors {
		if len(fragments) >= max {
			break
		}
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := collapseWhitespace(sel.Text())
			if text == "" || len(text) > maxFragmentLen || seen[text] {
				return true
			}
			seen[text] = true
			fragments = append(fragments, text)
			return len(fragments) < max
		})
	}
	return fragments, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
