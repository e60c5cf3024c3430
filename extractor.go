package agendex

import "context"

// SelectorExtractor evaluates operator-defined selector rules against a
// single event page and produces a partial field map.
type SelectorExtractor interface {
	// Extract applies the rules in stored order. A single rule's failure
	// (invalid selector, no match, missing attribute) yields no value for
	// that rule and never fails the call.
	Extract(html string, rules []*SelectorRule) (*EventFields, error)
}

// PageContext is the bounded textual context assembled from an event page
// for the AI extraction layer.
type PageContext struct {
	// URL is the event page URL.
	URL string

	// Meta holds Open Graph / Twitter Card derived metadata.
	Meta PageMeta

	// MainText is the page's main content region as Markdown, boilerplate
	// removed, truncated by the AI layer.
	MainText string

	// Fragments are short structured text fragments (paragraphs, list
	// items, headings, common event-info elements), at most 50.
	Fragments []string

	// CSSFields are values the selector layer already extracted. They are
	// surfaced in the prompt so the model need not re-derive fields it
	// will not own.
	CSSFields *EventFields
}

// AIExtractor performs one structured-extraction pass over a page context,
// constrained to the enabled fields.
type AIExtractor interface {
	// Extract returns a partial field map for the enabled toggles. It
	// never fails on malformed model output: parse failures degrade to
	// metadata-derived title and description.
	Extract(ctx context.Context, page *PageContext, toggles []FieldToggle) (*EventFields, error)
}

// ContentExtractor extracts the main content region from raw HTML,
// removing boilerplate (nav, header, footer, scripts, cookie banners).
type ContentExtractor interface {
	// Extract returns the main content as clean HTML and the metadata
	// title. Implementations fall back to the full body when no main
	// region can be identified.
	Extract(html string) (*ContentResult, error)
}

// ContentResult holds the extracted main content from an HTML page.
type ContentResult struct {
	Title       string
	ContentHTML string
}

// PageAnalyzer derives metadata and short context fragments from raw HTML.
type PageAnalyzer interface {
	// Meta extracts Open Graph / Twitter Card derived metadata.
	Meta(html string) (*PageMeta, error)

	// Fragments collects up to max short structured text fragments.
	Fragments(html string, max int) ([]string, error)
}

// VenueDirectory resolves venue names for location owners. The venue
// catalog itself lives outside this module.
type VenueDirectory interface {
	// VenueName returns the display name for a location ID.
	// Returns ENOTFOUND if the location does not exist.
	VenueName(ctx context.Context, locationID string) (string, error)
}
