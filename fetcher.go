package agendex

import "context"

// Fetcher retrieves raw HTML from organizer-controlled URLs.
type Fetcher interface {
	// Fetch performs a GET against the URL and returns the raw markup.
	// Non-2xx responses are errors. The context controls timeout and
	// cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases any underlying resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
