package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/fwojciec/agendex"
	agendexhttp "github.com/fwojciec/agendex/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSitemapServer serves the given path->body map, replacing {{BASE}} with
// the server's own URL so sitemap locs point back at it.
func newSitemapServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(strings.ReplaceAll(body, "{{BASE}}", srv.URL)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("reads sitemap from robots.txt directive", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{
			"/robots.txt": "User-agent: *\nSitemap: {{BASE}}/sitemap.xml\n",
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/events/1</loc></url>
  <url><loc>{{BASE}}/events/2</loc></url>
</urlset>`,
		})

		svc := agendexhttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{srv.URL + "/events/1", srv.URL + "/events/2"}, urls)
	})

	t.Run("falls back to /sitemap.xml without robots.txt", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/events/1</loc></url>
</urlset>`,
		})

		svc := agendexhttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/events/1"}, urls)
	})

	t.Run("resolves sitemap indexes recursively", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-events.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`,
			"/sitemap-events.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/events/1</loc></url>
</urlset>`,
			"/sitemap-pages.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/about</loc></url>
</urlset>`,
		})

		svc := agendexhttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{srv.URL + "/events/1", srv.URL + "/about"}, urls)
	})

	t.Run("applies the URL filter", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/events/1</loc></url>
  <url><loc>{{BASE}}/about</loc></url>
</urlset>`,
		})

		svc := agendexhttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, &agendex.URLFilter{
			Pattern: regexp.MustCompile(`/events/\d+`),
		})

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/events/1"}, urls)
	})

	t.Run("restricts to the base URL path prefix", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/events/1</loc></url>
  <url><loc>{{BASE}}/eventsfeed</loc></url>
  <url><loc>{{BASE}}/about</loc></url>
</urlset>`,
		})

		svc := agendexhttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL+"/events", nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/events/1"}, urls)
	})

	t.Run("returns empty when no sitemap exists", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{})

		svc := agendexhttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Empty(t, urls)
	})
}
