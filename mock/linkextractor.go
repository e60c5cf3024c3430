package mock

import "github.com/fwojciec/agendex"

var _ agendex.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of agendex.LinkExtractor.
type LinkExtractor struct {
	EventLinksFn  func(html, pageURL, selector, attribute string) ([]string, error)
	NextPageURLFn func(html, pageURL, selector, attribute string) string
}

func (l *LinkExtractor) EventLinks(html, pageURL, selector, attribute string) ([]string, error) {
	return l.EventLinksFn(html, pageURL, selector, attribute)
}

func (l *LinkExtractor) NextPageURL(html, pageURL, selector, attribute string) string {
	return l.NextPageURLFn(html, pageURL, selector, attribute)
}
