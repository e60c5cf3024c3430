// Package rod fetches pages through a headless Chrome browser. Some venue
// agendas render their event listings client side, so the plain HTTP
// fetcher sees an empty shell; this fetcher returns the DOM after scripts
// have run.
package rod

import (
	"context"

	"github.com/fwojciec/agendex"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Fetcher implements agendex.Fetcher at compile time.
var _ agendex.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation. The
// underlying browser is recycled periodically, so a single Fetcher can
// serve long crawl runs. Fetcher is safe for concurrent use by multiple
// goroutines.
type Fetcher struct {
	browsers *BrowserManager
}

// Option configures a Fetcher.
type Option func(*options)

type options struct {
	recycleAfter int64
}

// WithRecycleAfter sets how many pages the browser serves before it is
// replaced with a fresh instance.
func WithRecycleAfter(n int64) Option {
	return func(o *options) {
		o.recycleAfter = n
	}
}

// NewFetcher launches a headless Chrome browser. Close must be called when
// the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	o := options{recycleAfter: DefaultRecycleAfter}
	for _, opt := range opts {
		opt(&o)
	}

	browsers, err := NewBrowserManager(o.recycleAfter)
	if err != nil {
		return nil, err
	}

	return &Fetcher{browsers: browsers}, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := f.browsers.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", agendex.Errorf(agendex.EUNAVAILABLE, "failed to open browser page: %v", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	html, err := page.HTML()
	if err != nil {
		return "", err
	}

	f.browsers.RecordPage()
	return html, nil
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.browsers.Close()
}
