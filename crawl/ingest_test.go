package crawl_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/crawl"
	"github.com/fwojciec/agendex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ingestHarness wires an Ingestor against in-memory mocks: one agenda
// config serving listingHTML, detail pages served per URL, and a request
// store backed by a map.
type ingestHarness struct {
	owner   agendex.OwnerRef
	configs []*agendex.AgendaConfig

	listing  []string          // URLs the listing page yields
	details  map[string]string // detail URL -> HTML
	existing map[string]*agendex.IngestRequest

	mu      sync.Mutex
	created []*agendex.IngestRequest
	updated map[string]map[string]any
	events  []crawl.ProgressEvent
}

func newIngestHarness() *ingestHarness {
	owner := agendex.OwnerRef{OrganizerID: "org-1"}
	return &ingestHarness{
		owner: owner,
		configs: []*agendex.AgendaConfig{{
			ID:                "cfg-1",
			Owner:             owner,
			Enabled:           true,
			AgendaURL:         "https://venue.example/agenda",
			EventLinkSelector: ".event a",
			MaxPages:          1,
		}},
		details:  make(map[string]string),
		existing: make(map[string]*agendex.IngestRequest),
		updated:  make(map[string]map[string]any),
	}
}

func (h *ingestHarness) requestService() *mock.RequestService {
	return &mock.RequestService{
		ListSourceURLsFn: func(context.Context) ([]string, error) {
			urls := make([]string, 0, len(h.existing))
			for u := range h.existing {
				urls = append(urls, u)
			}
			return urls, nil
		},
		FindRequestBySourceURLFn: func(_ context.Context, sourceURL string) (*agendex.IngestRequest, error) {
			if req, ok := h.existing[sourceURL]; ok {
				return req, nil
			}
			return nil, agendex.Errorf(agendex.ENOTFOUND, "request not found")
		},
		FindRequestByLegacyURLFn: func(_ context.Context, url string) (*agendex.IngestRequest, error) {
			return nil, agendex.Errorf(agendex.ENOTFOUND, "request not found")
		},
		CreateRequestFn: func(_ context.Context, req *agendex.IngestRequest) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			req.ID = fmt.Sprintf("req-%d", len(h.created)+1)
			h.created = append(h.created, req)
			return nil
		},
		FindRequestByIDFn: func(_ context.Context, id string) (*agendex.IngestRequest, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			for _, req := range h.created {
				if req.ID == id {
					return req, nil
				}
			}
			return nil, agendex.Errorf(agendex.ENOTFOUND, "request not found")
		},
		UpdateRequestDataFn: func(_ context.Context, id string, data map[string]any) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.updated[id] = data
			return nil
		},
	}
}

func (h *ingestHarness) configService() *mock.ConfigService {
	return &mock.ConfigService{
		FindAgendaConfigsFn: func(_ context.Context, filter agendex.ConfigFilter) ([]*agendex.AgendaConfig, error) {
			return h.configs, nil
		},
		FindSelectorRulesFn: func(context.Context, agendex.OwnerRef) ([]*agendex.SelectorRule, error) {
			return []*agendex.SelectorRule{
				{Field: agendex.FieldTitle, Selector: "h1", Attribute: agendex.AttrTextContent},
			}, nil
		},
		FindFieldTogglesFn: func(context.Context, agendex.OwnerRef) ([]*agendex.FieldToggle, error) {
			return nil, nil
		},
	}
}

func (h *ingestHarness) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			if url == "https://venue.example/agenda" {
				return "listing", nil
			}
			html, ok := h.details[url]
			if !ok {
				return "", agendex.Errorf(agendex.EUNAVAILABLE, "no such page")
			}
			return html, nil
		},
	}
}

func (h *ingestHarness) ingestor() *crawl.Ingestor {
	fetcher := h.fetcher()
	links := &mock.LinkExtractor{
		EventLinksFn: func(html, pageURL, selector, attribute string) ([]string, error) {
			return h.listing, nil
		},
	}
	pipeline := &crawl.Pipeline{
		Selector: &mock.SelectorExtractor{
			ExtractFn: func(html string, rules []*agendex.SelectorRule) (*agendex.EventFields, error) {
				return &agendex.EventFields{Title: "Extracted: " + html}, nil
			},
		},
		Analyzer: &mock.PageAnalyzer{
			MetaFn: func(html string) (*agendex.PageMeta, error) {
				return &agendex.PageMeta{}, nil
			},
			FragmentsFn: func(html string, max int) ([]string, error) {
				return nil, nil
			},
		},
	}
	return &crawl.Ingestor{
		Configs:  h.configService(),
		Requests: h.requestService(),
		Discoverer: &crawl.Discoverer{
			Fetcher:     fetcher,
			Links:       links,
			RetryDelays: noRetry(),
		},
		Pipeline:    pipeline,
		Fetcher:     fetcher,
		RetryDelays: noRetry(),
	}
}

func (h *ingestHarness) progress(event crawl.ProgressEvent) {
	h.events = append(h.events, event)
}

func (h *ingestHarness) eventTypes() []crawl.ProgressType {
	types := make([]crawl.ProgressType, 0, len(h.events))
	for _, e := range h.events {
		types = append(types, e.Type)
	}
	return types
}

func TestIngestor_Run(t *testing.T) {
	t.Parallel()

	t.Run("creates and enriches requests for new URLs", func(t *testing.T) {
		t.Parallel()

		h := newIngestHarness()
		h.listing = []string{"https://venue.example/events/1"}
		h.details["https://venue.example/events/1"] = "<h1>Concert</h1>"

		result, err := h.ingestor().Run(context.Background(), h.owner, h.progress)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Configs)
		assert.Equal(t, 1, result.Discovered)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, 1, result.Enriched)
		assert.Equal(t, 0, result.Errors)

		require.Len(t, h.created, 1)
		req := h.created[0]
		assert.Equal(t, agendex.RequestTypeEventFromURL, req.RequestType)
		assert.Equal(t, agendex.RequestStatusPending, req.Status)
		assert.Equal(t, "https://venue.example/events/1", req.SourceURL)
		assert.Equal(t, "https://venue.example/events/1", req.EventData[agendex.DataKeyScrapingURL])
		assert.Equal(t, "org-1", req.EventData[agendex.DataKeyOrganizerID])

		data := h.updated[req.ID]
		require.NotNil(t, data, "enrichment stores merged event data")
		assert.Equal(t, "Extracted: <h1>Concert</h1>", data[agendex.FieldTitle])
		assert.Equal(t, "https://venue.example/events/1", data[agendex.DataKeyScrapingURL])
		assert.Equal(t, "https://venue.example/events/1", data["external_url"])
		assert.NotEmpty(t, data[agendex.DataKeyContentHash])

		assert.Equal(t, []crawl.ProgressType{
			crawl.ProgressStart,
			crawl.ProgressConfigStart,
			crawl.ProgressURLsDiscovered,
			crawl.ProgressRequestCreated,
			crawl.ProgressRequestEnriched,
			crawl.ProgressComplete,
		}, h.eventTypes())
	})

	t.Run("skips URLs that already have requests", func(t *testing.T) {
		t.Parallel()

		h := newIngestHarness()
		h.listing = []string{
			"https://venue.example/events/1",
			"https://venue.example/events/2",
		}
		h.details["https://venue.example/events/2"] = "<h1>New</h1>"
		h.existing["https://venue.example/events/1"] = &agendex.IngestRequest{
			ID:        "req-existing",
			SourceURL: "https://venue.example/events/1",
		}

		result, err := h.ingestor().Run(context.Background(), h.owner, h.progress)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Discovered)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, 1, result.Enriched)

		require.Len(t, h.created, 1)
		assert.Equal(t, "https://venue.example/events/2", h.created[0].SourceURL)
		assert.Contains(t, h.eventTypes(), crawl.ProgressURLSkipped)
	})

	t.Run("skips URLs recorded under legacy event-data keys", func(t *testing.T) {
		t.Parallel()

		h := newIngestHarness()
		h.listing = []string{"https://venue.example/events/1"}
		requests := h.requestService()
		// Legacy rows have no source_url but do appear in the URL listing.
		requests.ListSourceURLsFn = func(context.Context) ([]string, error) {
			return []string{"https://venue.example/events/1"}, nil
		}
		requests.FindRequestByLegacyURLFn = func(_ context.Context, url string) (*agendex.IngestRequest, error) {
			return &agendex.IngestRequest{ID: "req-legacy"}, nil
		}

		ing := h.ingestor()
		ing.Requests = requests
		result, err := ing.Run(context.Background(), h.owner, h.progress)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Created)
		assert.Empty(t, h.created)
		assert.Contains(t, h.eventTypes(), crawl.ProgressURLSkipped)
	})

	t.Run("enrichment failure leaves the request created and pending", func(t *testing.T) {
		t.Parallel()

		h := newIngestHarness()
		h.listing = []string{"https://venue.example/events/1"}
		// No detail page registered: the enrichment fetch fails.

		result, err := h.ingestor().Run(context.Background(), h.owner, h.progress)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, 0, result.Enriched)
		assert.Equal(t, 1, result.Errors)
		require.Len(t, result.ErrorDetails, 1)

		require.Len(t, h.created, 1)
		assert.Equal(t, agendex.RequestStatusPending, h.created[0].Status)
		assert.Empty(t, h.updated)
		assert.Contains(t, h.eventTypes(), crawl.ProgressError)
	})

	t.Run("discovery failure is isolated per config", func(t *testing.T) {
		t.Parallel()

		h := newIngestHarness()
		h.configs = append(h.configs, &agendex.AgendaConfig{
			ID:                "cfg-2",
			Owner:             h.owner,
			Enabled:           true,
			AgendaURL:         "https://other.example/agenda",
			EventLinkSelector: ".event a",
			MaxPages:          1,
		})
		h.listing = []string{"https://venue.example/events/1"}
		h.details["https://venue.example/events/1"] = "<h1>Concert</h1>"

		ing := h.ingestor()
		result, err := ing.Run(context.Background(), h.owner, h.progress)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Configs)
		// cfg-2's agenda URL is not served by the fetcher, so its
		// discovery fails while cfg-1 still completes.
		assert.Equal(t, 1, result.Errors)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, 1, result.Enriched)
	})

	t.Run("caps processed URLs at MaxEvents", func(t *testing.T) {
		t.Parallel()

		h := newIngestHarness()
		for i := 1; i <= 5; i++ {
			u := fmt.Sprintf("https://venue.example/events/%d", i)
			h.listing = append(h.listing, u)
			h.details[u] = "<h1>Concert</h1>"
		}

		ing := h.ingestor()
		ing.MaxEvents = 2
		result, err := ing.Run(context.Background(), h.owner, h.progress)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Discovered)
		assert.Equal(t, 2, result.Created)
	})

	t.Run("concurrent workers keep counters and dedupe consistent", func(t *testing.T) {
		t.Parallel()

		h := newIngestHarness()
		for i := 1; i <= 64; i++ {
			u := fmt.Sprintf("https://venue.example/events/%d", i)
			h.listing = append(h.listing, u)
			h.details[u] = "<h1>Concert</h1>"
		}
		// Some URLs were already ingested, so workers test the seeded
		// prefilter while others are adding fresh URLs to it.
		for i := 1; i <= 8; i++ {
			u := fmt.Sprintf("https://venue.example/events/%d", i)
			h.existing[u] = &agendex.IngestRequest{ID: fmt.Sprintf("req-old-%d", i), SourceURL: u}
		}

		ing := h.ingestor()
		ing.Concurrency = 8
		result, err := ing.Run(context.Background(), h.owner, h.progress)

		require.NoError(t, err)
		assert.Equal(t, 64, result.Discovered)
		assert.Equal(t, 56, result.Created)
		assert.Equal(t, 56, result.Enriched)
		assert.Equal(t, 0, result.Errors)
		assert.Len(t, h.created, 56)
		assert.Len(t, h.updated, 56)
		assert.Contains(t, h.eventTypes(), crawl.ProgressURLSkipped)
	})

	t.Run("adds venue name for location owners", func(t *testing.T) {
		t.Parallel()

		owner := agendex.OwnerRef{LocationID: "loc-1"}
		h := newIngestHarness()
		h.owner = owner
		h.configs[0].Owner = owner
		h.listing = []string{"https://venue.example/events/1"}
		h.details["https://venue.example/events/1"] = "<h1>Concert</h1>"

		ing := h.ingestor()
		ing.Venues = &mock.VenueDirectory{
			VenueNameFn: func(_ context.Context, locationID string) (string, error) {
				assert.Equal(t, "loc-1", locationID)
				return "Le Trianon", nil
			},
		}
		_, err := ing.Run(context.Background(), owner, h.progress)

		require.NoError(t, err)
		require.Len(t, h.created, 1)
		assert.Equal(t, "loc-1", h.created[0].EventData[agendex.DataKeyLocationID])
		assert.Equal(t, "Le Trianon", h.created[0].EventData[agendex.DataKeyVenueName])
	})

	t.Run("returns ENOTFOUND when the owner has no enabled config", func(t *testing.T) {
		t.Parallel()

		h := newIngestHarness()
		h.configs = nil

		_, err := h.ingestor().Run(context.Background(), h.owner, h.progress)

		require.Error(t, err)
		assert.Equal(t, agendex.ENOTFOUND, agendex.ErrorCode(err))
		assert.Empty(t, h.events, "no progress is emitted before validation")
	})

	t.Run("rejects an invalid owner", func(t *testing.T) {
		t.Parallel()

		h := newIngestHarness()
		_, err := h.ingestor().Run(context.Background(), agendex.OwnerRef{}, h.progress)

		require.Error(t, err)
		assert.Equal(t, agendex.EINVALID, agendex.ErrorCode(err))
	})

	t.Run("complete event carries the run result", func(t *testing.T) {
		t.Parallel()

		h := newIngestHarness()
		h.listing = []string{"https://venue.example/events/1"}
		h.details["https://venue.example/events/1"] = "<h1>Concert</h1>"

		result, err := h.ingestor().Run(context.Background(), h.owner, h.progress)

		require.NoError(t, err)
		last := h.events[len(h.events)-1]
		assert.Equal(t, crawl.ProgressComplete, last.Type)
		assert.Equal(t, result, last.Result)
	})
}
