package crawl

// ProgressType names a lifecycle event emitted while an ingestion run
// proceeds. The values double as the wire names on the streaming endpoint.
type ProgressType string

// Lifecycle events, in the order a run emits them.
const (
	ProgressStart           ProgressType = "start"
	ProgressConfigStart     ProgressType = "config_start"
	ProgressURLsDiscovered  ProgressType = "urls_discovered"
	ProgressURLSkipped      ProgressType = "url_skipped"
	ProgressRequestCreated  ProgressType = "request_created"
	ProgressRequestEnriched ProgressType = "request_enriched"
	ProgressError           ProgressType = "error"
	ProgressComplete        ProgressType = "complete"
)

// ProgressEvent is one frame of ingestion progress. Fields are populated
// per type: Configs on start; ConfigID/AgendaURL on config-scoped events;
// URL/RequestID on per-URL events; Message on errors; Result on complete.
type ProgressEvent struct {
	Type      ProgressType `json:"type"`
	Configs   int          `json:"configs,omitempty"`
	ConfigID  string       `json:"config_id,omitempty"`
	AgendaURL string       `json:"agenda_url,omitempty"`
	Count     int          `json:"count,omitempty"`
	URL       string       `json:"url,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Message   string       `json:"message,omitempty"`
	Result    *Result      `json:"result,omitempty"`
}

// ProgressFunc receives progress events as a run proceeds. With the
// default sequential configuration events arrive in deterministic order.
type ProgressFunc func(ProgressEvent)

// Result aggregates the outcome of one ingestion run. Per-item failures
// are counted, never fatal: the result always reports partial success.
type Result struct {
	Configs      int      `json:"configs"`
	Discovered   int      `json:"discoveredUrls"`
	Created      int      `json:"createdRequests"`
	Enriched     int      `json:"enrichedRequests"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"errorDetails,omitempty"`
}
