// Package trafilatura extracts the main content region from event pages
// for the AI prompt context, with boilerplate removed.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/agendex"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements agendex.ContentExtractor at compile time.
var _ agendex.ContentExtractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the page's main content region as clean HTML plus the
// metadata title. When trafilatura cannot identify a main region the full
// body (scripts, styles, nav, header and footer stripped) is returned, so
// the AI layer always has text to work with.
func (e *Extractor) Extract(rawHTML string) (*agendex.ContentResult, error) {
	if rawHTML == "" {
		return nil, agendex.Errorf(agendex.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err == nil && result.ContentNode != nil {
		contentHTML, renderErr := renderNode(result.ContentNode)
		if renderErr == nil && strings.TrimSpace(contentHTML) != "" {
			return &agendex.ContentResult{
				Title:       result.Metadata.Title,
				ContentHTML: contentHTML,
			}, nil
		}
	}

	return bodyFallback(rawHTML)
}

// bodyFallback strips boilerplate elements and returns the remaining body.
func bodyFallback(rawHTML string) (*agendex.ContentResult, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	var title string
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "body":
				body = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if body == nil {
		return &agendex.ContentResult{Title: title}, nil
	}
	removeBoilerplate(body)

	contentHTML, err := renderNode(body)
	if err != nil {
		return nil, err
	}
	return &agendex.ContentResult{Title: title, ContentHTML: contentHTML}, nil
}

// boilerplateTags never contribute to event content.
var boilerplateTags = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"header": true,
	"footer": true,
	"iframe": true,
}

func removeBoilerplate(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode && (boilerplateTags[c.Data] || isCookieBanner(c)) {
			n.RemoveChild(c)
			continue
		}
		removeBoilerplate(c)
	}
}

// isCookieBanner identifies common cookie-consent containers by class or id.
func isCookieBanner(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" && attr.Key != "id" {
			continue
		}
		v := strings.ToLower(attr.Val)
		if strings.Contains(v, "cookie") || strings.Contains(v, "consent") || strings.Contains(v, "gdpr") {
			return true
		}
	}
	return false
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
