package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/agendex"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ agendex.RequestService = (*RequestService)(nil)

// RequestService implements agendex.RequestService using SQLite.
type RequestService struct {
	db *DB
}

// NewRequestService creates a new RequestService.
func NewRequestService(db *DB) *RequestService {
	return &RequestService{db: db}
}

const requestColumns = "id, request_type, source_url, status, event_data, created_at, updated_at"

// CreateRequest creates a new ingestion request.
func (s *RequestService) CreateRequest(ctx context.Context, req *agendex.IngestRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	req.ID = uuid.New().String()
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	data, err := marshalEventData(req.EventData)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO requests (id, request_type, source_url, status, event_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.RequestType, req.SourceURL, req.Status, data,
		req.CreatedAt.Format(time.RFC3339), req.UpdatedAt.Format(time.RFC3339))

	return err
}

// FindRequestByID retrieves a request by ID.
func (s *RequestService) FindRequestByID(ctx context.Context, id string) (*agendex.IngestRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM requests WHERE id = ?
	`, id)
	return scanRequest(row)
}

// FindRequestBySourceURL retrieves an event_from_url request by exact
// source URL match.
func (s *RequestService) FindRequestBySourceURL(ctx context.Context, sourceURL string) (*agendex.IngestRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE request_type = ? AND source_url = ?
		LIMIT 1
	`, agendex.RequestTypeEventFromURL, sourceURL)
	return scanRequest(row)
}

// FindRequestByLegacyURL retrieves an event_from_url request whose event
// data records the URL under scraping_url or external_url. Both
// expressions are covered by indexes so the lookup stays cheap as the
// requests table grows.
func (s *RequestService) FindRequestByLegacyURL(ctx context.Context, url string) (*agendex.IngestRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE request_type = ?
		AND (json_extract(event_data, '$.scraping_url') = ?
			OR json_extract(event_data, '$.external_url') = ?)
		LIMIT 1
	`, agendex.RequestTypeEventFromURL, url, url)
	return scanRequest(row)
}

// FindRequests retrieves requests matching the filter, ordered by
// creation time.
func (s *RequestService) FindRequests(ctx context.Context, filter agendex.RequestFilter) ([]*agendex.IngestRequest, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + requestColumns + ` FROM requests WHERE 1=1`)
	var args []any

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.RequestType != nil {
		query.WriteString(" AND request_type = ?")
		args = append(args, *filter.RequestType)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, *filter.Status)
	}

	query.WriteString(" ORDER BY created_at ASC, id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*agendex.IngestRequest
	for rows.Next() {
		var req agendex.IngestRequest
		var data, createdAt, updatedAt string
		if err := rows.Scan(&req.ID, &req.RequestType, &req.SourceURL, &req.Status,
			&data, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := decodeRequest(&req, data, createdAt, updatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, &req)
	}

	return requests, rows.Err()
}

// ListSourceURLs returns the URLs of all event_from_url requests,
// including the legacy scraping_url/external_url values, deduplicated.
func (s *RequestService) ListSourceURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_url,
			json_extract(event_data, '$.scraping_url'),
			json_extract(event_data, '$.external_url')
		FROM requests WHERE request_type = ?
	`, agendex.RequestTypeEventFromURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var urls []string
	for rows.Next() {
		var sourceURL string
		var scrapingURL, externalURL sql.NullString
		if err := rows.Scan(&sourceURL, &scrapingURL, &externalURL); err != nil {
			return nil, err
		}
		for _, u := range []string{sourceURL, scrapingURL.String, externalURL.String} {
			if u != "" && !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}

	return urls, rows.Err()
}

// UpdateRequestData replaces a request's event data.
func (s *RequestService) UpdateRequestData(ctx context.Context, id string, data map[string]any) error {
	encoded, err := marshalEventData(data)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE requests SET event_data = ?, updated_at = ? WHERE id = ?
	`, encoded, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return agendex.Errorf(agendex.ENOTFOUND, "request not found")
	}
	return nil
}

func marshalEventData(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode event data: %w", err)
	}
	return string(encoded), nil
}

func scanRequest(row *sql.Row) (*agendex.IngestRequest, error) {
	var req agendex.IngestRequest
	var data, createdAt, updatedAt string

	err := row.Scan(&req.ID, &req.RequestType, &req.SourceURL, &req.Status,
		&data, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, agendex.Errorf(agendex.ENOTFOUND, "request not found")
	}
	if err != nil {
		return nil, err
	}

	if err := decodeRequest(&req, data, createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}

func decodeRequest(req *agendex.IngestRequest, data, createdAt, updatedAt string) error {
	var err error
	if err = json.Unmarshal([]byte(data), &req.EventData); err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}
	if req.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return err
	}
	if req.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return err
	}
	return nil
}
