package mock

import (
	"context"

	"github.com/fwojciec/agendex"
)

var _ agendex.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of agendex.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *agendex.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *agendex.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
