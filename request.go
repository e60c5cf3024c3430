package agendex

import (
	"context"
	"time"
)

// RequestTypeEventFromURL is the request type created by the ingestion
// pipeline for every discovered event page.
const RequestTypeEventFromURL = "event_from_url"

// Ingestion request statuses. The pipeline only ever creates pending
// requests; later states belong to downstream moderation workflows.
const (
	RequestStatusPending = "pending"
)

// Event-data keys owned by the orchestrator rather than extraction.
const (
	DataKeyScrapingURL = "scraping_url"
	DataKeyExternalURL = "external_url"
	DataKeyOrganizerID = "organizer_id"
	DataKeyLocationID  = "location_id"
	DataKeyVenueName   = "venue_name"
	DataKeyContentHash = "content_hash"
)

// IngestRequest is one ingestion request row. SourceURL is the discovery
// idempotency key; EventData accumulates merged extraction output plus
// owner linkage.
type IngestRequest struct {
	ID          string         `json:"id"`
	RequestType string         `json:"requestType"`
	SourceURL   string         `json:"sourceUrl"`
	Status      string         `json:"status"`
	EventData   map[string]any `json:"eventData"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Validate returns an error if the request contains invalid fields.
func (r *IngestRequest) Validate() error {
	if r.RequestType == "" {
		return Errorf(EINVALID, "request type required")
	}
	if r.SourceURL == "" {
		return Errorf(EINVALID, "request source URL required")
	}
	return nil
}

// RequestFilter represents a filter for FindRequests.
type RequestFilter struct {
	ID          *string `json:"id"`
	RequestType *string `json:"requestType"`
	Status      *string `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RequestService manages ingestion request rows.
type RequestService interface {
	// CreateRequest creates a new ingestion request.
	CreateRequest(ctx context.Context, req *IngestRequest) error

	// FindRequestByID retrieves a request by ID.
	// Returns ENOTFOUND if the request does not exist.
	FindRequestByID(ctx context.Context, id string) (*IngestRequest, error)

	// FindRequestBySourceURL retrieves an event_from_url request by exact
	// source URL match. Returns ENOTFOUND if none exists.
	FindRequestBySourceURL(ctx context.Context, sourceURL string) (*IngestRequest, error)

	// FindRequestByLegacyURL retrieves an event_from_url request whose
	// event data records the URL under scraping_url or external_url.
	// This covers rows created before source_url was stored directly.
	// Returns ENOTFOUND if none exists.
	FindRequestByLegacyURL(ctx context.Context, url string) (*IngestRequest, error)

	// FindRequests retrieves requests matching the filter, ordered by
	// creation time.
	FindRequests(ctx context.Context, filter RequestFilter) ([]*IngestRequest, error)

	// ListSourceURLs returns the source URLs of all event_from_url
	// requests, including legacy scraping_url/external_url values. Used to
	// seed the dedupe prefilter.
	ListSourceURLs(ctx context.Context) ([]string, error)

	// UpdateRequestData replaces a request's event data.
	// Returns ENOTFOUND if the request does not exist.
	UpdateRequestData(ctx context.Context, id string, data map[string]any) error
}

// Authorizer answers whether a caller may trigger ingestion for an owner.
// Authentication mechanics live outside this module; implementations are
// expected to be opaque.
type Authorizer interface {
	// IsAdmin reports whether the token identifies a platform admin.
	IsAdmin(ctx context.Context, token string) (bool, error)

	// CanManage reports whether the token holds an owner or editor role
	// for the given owner.
	CanManage(ctx context.Context, token string, owner OwnerRef) (bool, error)
}
