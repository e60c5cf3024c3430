package agendex

import (
	"context"
	"regexp"
)

// SitemapService discovers URLs from website sitemaps. Discovery falls back
// to it when an agenda page yields no event links.
type SitemapService interface {
	// DiscoverURLs finds all URLs from a site's sitemap. It first checks
	// robots.txt for sitemap directives, then falls back to /sitemap.xml.
	// Sitemap indexes are resolved recursively.
	//
	// A nil filter returns all URLs.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter restricts discovered URLs to those matching a config's URL
// pattern.
type URLFilter struct {
	// Pattern keeps only matching URLs. A nil pattern keeps everything.
	Pattern *regexp.Regexp
}

// Match reports whether the URL passes the filter. A nil filter or a nil
// pattern passes every URL.
func (f *URLFilter) Match(url string) bool {
	if f == nil || f.Pattern == nil {
		return true
	}
	return f.Pattern.MatchString(url)
}
