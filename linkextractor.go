package agendex

// LinkExtractor evaluates configured link selectors against listing pages.
type LinkExtractor interface {
	// EventLinks returns the resolved event-detail URLs matched by the
	// selector, in document order, deduplicated. The attribute defaults
	// to "href" when empty.
	EventLinks(html, pageURL, selector, attribute string) ([]string, error)

	// NextPageURL returns the resolved pagination link from the first
	// element matching the selector, or "" when there is none.
	NextPageURL(html, pageURL, selector, attribute string) string
}
