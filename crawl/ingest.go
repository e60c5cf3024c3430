package crawl

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/bloom"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxEvents caps how many discovered URLs are processed per config.
const DefaultMaxEvents = 50

// Bloom sizing for the dedupe prefilter. The filter only skips store
// lookups for definitely-new URLs; false positives just cost a query.
const (
	dedupeMinCapacity       = 4096
	dedupeFalsePositiveRate = 0.01
)

// Ingestor orchestrates one ingestion run: per enabled config it discovers
// event URLs, deduplicates them against existing requests, creates pending
// requests and enriches them through the extraction pipeline.
type Ingestor struct {
	Configs    agendex.ConfigService
	Requests   agendex.RequestService
	Discoverer *Discoverer
	Pipeline   *Pipeline
	Fetcher    agendex.Fetcher

	RateLimiter agendex.DomainLimiter
	RetryDelays []time.Duration

	// Venues resolves a venue name for location-owned configs. Optional.
	Venues agendex.VenueDirectory

	// MaxEvents caps processed URLs per config (default DefaultMaxEvents).
	MaxEvents int

	// Concurrency bounds the per-URL worker pool. The default of 1
	// processes URLs strictly sequentially, which keeps progress-event
	// ordering deterministic and serializes load on the target site.
	Concurrency int
}

// RunWithLimit runs one ingestion pass with a per-run cap on processed
// URLs per config. A cap of zero or less keeps the configured MaxEvents.
func (i *Ingestor) RunWithLimit(ctx context.Context, owner agendex.OwnerRef, maxEvents int, progress ProgressFunc) (*Result, error) {
	if maxEvents <= 0 {
		return i.Run(ctx, owner, progress)
	}
	capped := *i
	capped.MaxEvents = maxEvents
	return capped.Run(ctx, owner, progress)
}

// Run executes the pipeline for every enabled config of the owner.
// Returns ENOTFOUND before any work starts when the owner has no enabled
// agenda config. Per-config and per-URL failures are isolated: they are
// reported as error events and counted, and the run continues.
func (i *Ingestor) Run(ctx context.Context, owner agendex.OwnerRef, progress ProgressFunc) (*Result, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	configs, err := i.Configs.FindAgendaConfigs(ctx, agendex.ConfigFilter{Owner: &owner, EnabledOnly: true})
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, agendex.Errorf(agendex.ENOTFOUND, "no enabled agenda configuration for owner")
	}

	rules, err := i.Configs.FindSelectorRules(ctx, owner)
	if err != nil {
		return nil, err
	}
	toggles, err := i.Configs.FindFieldToggles(ctx, owner)
	if err != nil {
		return nil, err
	}
	enabled := make([]agendex.FieldToggle, 0, len(toggles))
	for _, t := range toggles {
		enabled = append(enabled, *t)
	}
	if len(enabled) == 0 {
		enabled = agendex.DefaultToggles()
	}

	venueName := i.resolveVenueName(ctx, owner)

	run := &ingestRun{
		ingestor:  i,
		owner:     owner,
		rules:     rules,
		toggles:   enabled,
		venueName: venueName,
		progress:  progress,
		result:    &Result{Configs: len(configs)},
		seen:      i.seedDedupeFilter(ctx),
	}

	run.emit(ProgressEvent{Type: ProgressStart, Configs: len(configs)})

	for _, config := range configs {
		if err := ctx.Err(); err != nil {
			break
		}
		run.processConfig(ctx, config)
	}

	run.emit(ProgressEvent{Type: ProgressComplete, Result: run.result})
	return run.result, nil
}

// seedDedupeFilter loads all known source URLs into a bloom filter. A
// negative test proves a URL was never ingested and skips the store
// lookups entirely. A load failure just disables the prefilter.
func (i *Ingestor) seedDedupeFilter(ctx context.Context) *bloom.Filter {
	urls, err := i.Requests.ListSourceURLs(ctx)
	if err != nil {
		return nil
	}
	return bloom.Seed(urls, dedupeMinCapacity, dedupeFalsePositiveRate)
}

func (i *Ingestor) resolveVenueName(ctx context.Context, owner agendex.OwnerRef) string {
	if i.Venues == nil || owner.LocationID == "" {
		return ""
	}
	name, err := i.Venues.VenueName(ctx, owner.LocationID)
	if err != nil {
		return ""
	}
	return name
}

func (i *Ingestor) maxEvents() int {
	if i.MaxEvents <= 0 {
		return DefaultMaxEvents
	}
	return i.MaxEvents
}

func (i *Ingestor) concurrency() int {
	if i.Concurrency <= 0 {
		return 1
	}
	return i.Concurrency
}

// ingestRun carries the per-run state shared across configs and workers.
type ingestRun struct {
	ingestor  *Ingestor
	owner     agendex.OwnerRef
	rules     []*agendex.SelectorRule
	toggles   []agendex.FieldToggle
	venueName string
	progress  ProgressFunc
	seen      *bloom.Filter

	mu     sync.Mutex
	result *Result
}

// emit publishes one progress event. Events and counter updates share the
// run mutex so the worker pool cannot interleave them.
func (r *ingestRun) emit(event ProgressEvent) {
	if r.progress != nil {
		r.progress(event)
	}
}

func (r *ingestRun) recordError(scope string, err error) {
	r.result.Errors++
	r.result.ErrorDetails = append(r.result.ErrorDetails, fmt.Sprintf("%s: %v", scope, err))
}

// processConfig runs discovery and per-URL ingestion for one config.
func (r *ingestRun) processConfig(ctx context.Context, config *agendex.AgendaConfig) {
	r.emit(ProgressEvent{Type: ProgressConfigStart, ConfigID: config.ID, AgendaURL: config.AgendaURL})

	urls, err := r.ingestor.Discoverer.Discover(ctx, config)
	if err != nil {
		r.recordError(config.AgendaURL, err)
		r.emit(ProgressEvent{Type: ProgressError, ConfigID: config.ID, Message: err.Error()})
		return
	}
	if max := r.ingestor.maxEvents(); len(urls) > max {
		urls = urls[:max]
	}
	r.result.Discovered += len(urls)
	r.emit(ProgressEvent{Type: ProgressURLsDiscovered, ConfigID: config.ID, Count: len(urls)})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.ingestor.concurrency())
	for _, u := range urls {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			r.processURL(gctx, config, u)
			return nil
		})
	}
	_ = g.Wait()
}

// processURL drives one discovered URL through the state machine:
// Discovered -> skipped duplicate, or Discovered -> Created -> Enriched,
// with enrichment failure leaving the request created but pending.
func (r *ingestRun) processURL(ctx context.Context, config *agendex.AgendaConfig, pageURL string) {
	duplicate, err := r.isDuplicate(ctx, pageURL)
	if err != nil {
		r.mu.Lock()
		r.recordError(pageURL, err)
		r.emit(ProgressEvent{Type: ProgressError, ConfigID: config.ID, URL: pageURL, Message: err.Error()})
		r.mu.Unlock()
		return
	}
	if duplicate {
		r.mu.Lock()
		r.emit(ProgressEvent{Type: ProgressURLSkipped, ConfigID: config.ID, URL: pageURL})
		r.mu.Unlock()
		return
	}

	req := &agendex.IngestRequest{
		RequestType: agendex.RequestTypeEventFromURL,
		SourceURL:   pageURL,
		Status:      agendex.RequestStatusPending,
		EventData:   r.ownerData(pageURL),
	}
	if err := r.ingestor.Requests.CreateRequest(ctx, req); err != nil {
		r.mu.Lock()
		r.recordError(pageURL, err)
		r.emit(ProgressEvent{Type: ProgressError, ConfigID: config.ID, URL: pageURL, Message: err.Error()})
		r.mu.Unlock()
		return
	}
	r.mu.Lock()
	r.result.Created++
	if r.seen != nil {
		r.seen.Add(pageURL)
	}
	r.emit(ProgressEvent{Type: ProgressRequestCreated, ConfigID: config.ID, URL: pageURL, RequestID: req.ID})
	r.mu.Unlock()

	if err := r.enrich(ctx, req, pageURL); err != nil {
		// The request stays created and pending; not retried this run.
		r.mu.Lock()
		r.recordError(pageURL, err)
		r.emit(ProgressEvent{Type: ProgressError, ConfigID: config.ID, URL: pageURL, RequestID: req.ID, Message: err.Error()})
		r.mu.Unlock()
		return
	}
	r.mu.Lock()
	r.result.Enriched++
	r.emit(ProgressEvent{Type: ProgressRequestEnriched, ConfigID: config.ID, URL: pageURL, RequestID: req.ID})
	r.mu.Unlock()
}

// isDuplicate checks the URL against existing requests: bloom prefilter,
// then exact source_url match, then the legacy event-data URL lookup.
func (r *ingestRun) isDuplicate(ctx context.Context, pageURL string) (bool, error) {
	if r.seen != nil && !r.seen.Test(pageURL) {
		return false, nil
	}

	if _, err := r.ingestor.Requests.FindRequestBySourceURL(ctx, pageURL); err == nil {
		return true, nil
	} else if agendex.ErrorCode(err) != agendex.ENOTFOUND {
		return false, err
	}

	if _, err := r.ingestor.Requests.FindRequestByLegacyURL(ctx, pageURL); err == nil {
		return true, nil
	} else if agendex.ErrorCode(err) != agendex.ENOTFOUND {
		return false, err
	}
	return false, nil
}

// ownerData builds the initial event data for a freshly created request.
func (r *ingestRun) ownerData(pageURL string) map[string]any {
	data := map[string]any{
		agendex.DataKeyScrapingURL: pageURL,
	}
	if r.owner.OrganizerID != "" {
		data[agendex.DataKeyOrganizerID] = r.owner.OrganizerID
	}
	if r.owner.LocationID != "" {
		data[agendex.DataKeyLocationID] = r.owner.LocationID
		if r.venueName != "" {
			data[agendex.DataKeyVenueName] = r.venueName
		}
	}
	return data
}

// enrich fetches the detail page, runs the extraction pipeline and merges
// the result into the stored request. The request's current event data is
// re-read first so concurrent edits are not clobbered.
func (r *ingestRun) enrich(ctx context.Context, req *agendex.IngestRequest, pageURL string) error {
	html, err := r.fetchDetail(ctx, pageURL)
	if err != nil {
		return err
	}

	fields, err := r.ingestor.Pipeline.Extract(ctx, pageURL, html, r.rules, r.toggles)
	if err != nil {
		return err
	}

	fresh, err := r.ingestor.Requests.FindRequestByID(ctx, req.ID)
	if err != nil {
		return err
	}
	data := fresh.EventData
	if data == nil {
		data = make(map[string]any)
	}
	for k, v := range fields.Map() {
		data[k] = v
	}
	// Re-assert orchestrator-owned keys over anything extraction produced.
	for k, v := range r.ownerData(pageURL) {
		data[k] = v
	}
	data[agendex.DataKeyContentHash] = fmt.Sprintf("%x", xxhash.Sum64String(html))

	return r.ingestor.Requests.UpdateRequestData(ctx, req.ID, data)
}

func (r *ingestRun) fetchDetail(ctx context.Context, pageURL string) (string, error) {
	if r.ingestor.RateLimiter != nil {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return "", agendex.Errorf(agendex.EINVALID, "invalid page URL %q: %v", pageURL, err)
		}
		if err := r.ingestor.RateLimiter.Wait(ctx, parsed.Host); err != nil {
			return "", err
		}
	}
	delays := r.ingestor.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	return fetchWithRetry(ctx, pageURL, r.ingestor.Fetcher.Fetch, delays)
}
