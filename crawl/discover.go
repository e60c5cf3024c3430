// Package crawl provides agenda discovery and ingestion orchestration: it
// walks paginated listing pages to find event-detail URLs, runs the
// extraction pipeline against each one, and creates idempotent ingestion
// requests while reporting progress.
package crawl

import (
	"context"
	"net/url"
	"regexp"
	"time"

	"github.com/fwojciec/agendex"
)

// Discoverer walks one agenda config's paginated listing and collects
// event-detail URLs.
type Discoverer struct {
	Fetcher     agendex.Fetcher
	Links       agendex.LinkExtractor
	RateLimiter agendex.DomainLimiter
	RetryDelays []time.Duration

	// Sitemaps, when set, enables sitemap-based fallback discovery for
	// configs with a URL pattern whose listing page yields no links.
	Sitemaps agendex.SitemapService
}

// Discover returns the event-detail URLs found for the config, in
// discovery order. It starts at the agenda URL and follows the configured
// pagination selector, bounded by the config's page ceiling and a
// visited-URL cycle guard. Without a pagination selector exactly one page
// is visited. A fetch or parse failure aborts discovery for this config.
func (d *Discoverer) Discover(ctx context.Context, config *agendex.AgendaConfig) ([]string, error) {
	visited := make(map[string]bool)
	seen := make(map[string]bool)
	var found []string

	current := config.AgendaURL
	for page := 0; page < config.PageCeiling(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		html, err := d.fetchPage(ctx, current)
		if err != nil {
			return nil, err
		}
		visited[current] = true

		links, err := d.Links.EventLinks(html, current, config.EventLinkSelector, config.LinkAttribute())
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			if !seen[link] {
				seen[link] = true
				found = append(found, link)
			}
		}

		if config.NextPageSelector == "" {
			break
		}
		next := d.Links.NextPageURL(html, current, config.NextPageSelector, config.NextPageAttribute)
		if next == "" || visited[next] {
			break // dead end or cycle
		}
		current = next
	}

	if len(found) == 0 && d.Sitemaps != nil && config.URLPattern != "" {
		return d.discoverFromSitemap(ctx, config)
	}
	return found, nil
}

// discoverFromSitemap falls back to the site's sitemap, keeping only URLs
// matching the config's URL pattern. Static sites with stale listing
// selectors often still advertise event pages there.
func (d *Discoverer) discoverFromSitemap(ctx context.Context, config *agendex.AgendaConfig) ([]string, error) {
	re, err := regexp.Compile(config.URLPattern)
	if err != nil {
		return nil, agendex.Errorf(agendex.EINVALID, "invalid URL pattern %q: %v", config.URLPattern, err)
	}

	base, err := url.Parse(config.AgendaURL)
	if err != nil {
		return nil, agendex.Errorf(agendex.EINVALID, "invalid agenda URL: %v", err)
	}
	origin := url.URL{Scheme: base.Scheme, Host: base.Host}

	return d.Sitemaps.DiscoverURLs(ctx, origin.String(), &agendex.URLFilter{Pattern: re})
}

// fetchPage rate-limits and fetches one listing page with retry.
func (d *Discoverer) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if d.RateLimiter != nil {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return "", agendex.Errorf(agendex.EINVALID, "invalid page URL %q: %v", pageURL, err)
		}
		if err := d.RateLimiter.Wait(ctx, parsed.Host); err != nil {
			return "", err
		}
	}

	delays := d.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	return fetchWithRetry(ctx, pageURL, d.Fetcher.Fetch, delays)
}
