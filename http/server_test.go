package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/crawl"
	agendexhttp "github.com/fwojciec/agendex/http"
	"github.com/fwojciec/agendex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runnerFunc adapts a function to agendexhttp.IngestRunner.
type runnerFunc func(ctx context.Context, owner agendex.OwnerRef, maxEvents int, progress crawl.ProgressFunc) (*crawl.Result, error)

func (f runnerFunc) RunWithLimit(ctx context.Context, owner agendex.OwnerRef, maxEvents int, progress crawl.ProgressFunc) (*crawl.Result, error) {
	return f(ctx, owner, maxEvents, progress)
}

func allowAll() *mock.Authorizer {
	return &mock.Authorizer{
		IsAdminFn: func(context.Context, string) (bool, error) { return true, nil },
	}
}

func newTestServer(t *testing.T, runner agendexhttp.IngestRunner, auth agendex.Authorizer) *httptest.Server {
	t.Helper()

	s := agendexhttp.NewServer()
	s.Ingestor = runner
	s.Auth = auth

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("runs ingestion and returns counters", func(t *testing.T) {
		t.Parallel()

		var gotOwner agendex.OwnerRef
		runner := runnerFunc(func(_ context.Context, owner agendex.OwnerRef, maxEvents int, _ crawl.ProgressFunc) (*crawl.Result, error) {
			gotOwner = owner
			return &crawl.Result{Configs: 1, Discovered: 3, Created: 2, Enriched: 2, Errors: 1}, nil
		})
		srv := newTestServer(t, runner, allowAll())

		resp := postJSON(t, srv.URL+"/api/agenda/scrape", "admin-token", `{"organizer_id":"org-1"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, agendex.OwnerRef{OrganizerID: "org-1"}, gotOwner)

		var body struct {
			Success    bool `json:"success"`
			Configs    int  `json:"configs"`
			Discovered int  `json:"discoveredUrls"`
			Created    int  `json:"createdRequests"`
			Enriched   int  `json:"enrichedRequests"`
			Errors     int  `json:"errors"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, 3, body.Discovered)
		assert.Equal(t, 2, body.Created)
		assert.Equal(t, 2, body.Enriched)
		assert.Equal(t, 1, body.Errors)
	})

	t.Run("passes max_events through", func(t *testing.T) {
		t.Parallel()

		var gotMax int
		runner := runnerFunc(func(_ context.Context, _ agendex.OwnerRef, maxEvents int, _ crawl.ProgressFunc) (*crawl.Result, error) {
			gotMax = maxEvents
			return &crawl.Result{}, nil
		})
		srv := newTestServer(t, runner, allowAll())

		resp := postJSON(t, srv.URL+"/api/agenda/scrape", "admin-token", `{"organizer_id":"org-1","max_events":7}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 7, gotMax)
	})

	t.Run("rejects a missing token with 401", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, nil, allowAll())

		resp := postJSON(t, srv.URL+"/api/agenda/scrape", "", `{"organizer_id":"org-1"}`)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects a non-managing token with 403", func(t *testing.T) {
		t.Parallel()

		auth := &mock.Authorizer{
			IsAdminFn: func(context.Context, string) (bool, error) { return false, nil },
			CanManageFn: func(_ context.Context, _ string, owner agendex.OwnerRef) (bool, error) {
				return false, nil
			},
		}
		called := false
		runner := runnerFunc(func(context.Context, agendex.OwnerRef, int, crawl.ProgressFunc) (*crawl.Result, error) {
			called = true
			return &crawl.Result{}, nil
		})
		srv := newTestServer(t, runner, auth)

		resp := postJSON(t, srv.URL+"/api/agenda/scrape", "user-token", `{"organizer_id":"org-1"}`)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.False(t, called, "no crawling happens for rejected callers")
	})

	t.Run("rejects a body with both owner IDs", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, nil, allowAll())

		resp := postJSON(t, srv.URL+"/api/agenda/scrape", "admin-token", `{"organizer_id":"org-1","location_id":"loc-1"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("maps a missing config to 404", func(t *testing.T) {
		t.Parallel()

		runner := runnerFunc(func(context.Context, agendex.OwnerRef, int, crawl.ProgressFunc) (*crawl.Result, error) {
			return nil, agendex.Errorf(agendex.ENOTFOUND, "no enabled agenda configuration for owner")
		})
		srv := newTestServer(t, runner, allowAll())

		resp := postJSON(t, srv.URL+"/api/agenda/scrape", "admin-token", `{"organizer_id":"org-1"}`)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, agendex.ENOTFOUND, body.Code)
	})
}

func TestServer_ScrapeStream(t *testing.T) {
	t.Parallel()

	t.Run("streams progress frames as server-sent events", func(t *testing.T) {
		t.Parallel()

		runner := runnerFunc(func(_ context.Context, _ agendex.OwnerRef, _ int, progress crawl.ProgressFunc) (*crawl.Result, error) {
			result := &crawl.Result{Configs: 1, Discovered: 1, Created: 1, Enriched: 1}
			progress(crawl.ProgressEvent{Type: crawl.ProgressStart, Configs: 1})
			progress(crawl.ProgressEvent{Type: crawl.ProgressRequestCreated, URL: "https://venue.example/events/1", RequestID: "req-1"})
			progress(crawl.ProgressEvent{Type: crawl.ProgressComplete, Result: result})
			return result, nil
		})
		srv := newTestServer(t, runner, allowAll())

		resp := postJSON(t, srv.URL+"/api/agenda/scrape/stream", "admin-token", `{"organizer_id":"org-1"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
		assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

		var frames []crawl.ProgressEvent
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var event crawl.ProgressEvent
				require.NoError(t, json.Unmarshal([]byte(data), &event))
				frames = append(frames, event)
			}
		}
		require.NoError(t, scanner.Err())

		require.Len(t, frames, 3)
		assert.Equal(t, crawl.ProgressStart, frames[0].Type)
		assert.Equal(t, crawl.ProgressRequestCreated, frames[1].Type)
		assert.Equal(t, "req-1", frames[1].RequestID)
		assert.Equal(t, crawl.ProgressComplete, frames[2].Type)
		require.NotNil(t, frames[2].Result)
		assert.Equal(t, 1, frames[2].Result.Created)
	})

	t.Run("failure before the first frame is a JSON error", func(t *testing.T) {
		t.Parallel()

		runner := runnerFunc(func(context.Context, agendex.OwnerRef, int, crawl.ProgressFunc) (*crawl.Result, error) {
			return nil, agendex.Errorf(agendex.ENOTFOUND, "no enabled agenda configuration for owner")
		})
		srv := newTestServer(t, runner, allowAll())

		resp := postJSON(t, srv.URL+"/api/agenda/scrape/stream", "admin-token", `{"organizer_id":"org-1"}`)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	})

	t.Run("requires authorization before streaming", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, nil, allowAll())

		resp := postJSON(t, srv.URL+"/api/agenda/scrape/stream", "", `{"location_id":"loc-1"}`)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
