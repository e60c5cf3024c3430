package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/crawl"
)

// scrapeResponse is the synchronous scrape result body.
type scrapeResponse struct {
	Success bool `json:"success"`
	*crawl.Result
}

// handleScrape runs a full ingestion pass and responds once it finishes.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	body, owner, ok := s.decodeScrapeRequest(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, owner) {
		return
	}

	result, err := s.Ingestor.RunWithLimit(r.Context(), owner, body.MaxEvents, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(scrapeResponse{Success: true, Result: result})
}

// handleScrapeStream runs an ingestion pass and streams progress frames as
// server-sent events. Each frame is one "data: {json}\n\n" block; the run's
// lifecycle events arrive in order and the final frame carries the result.
func (s *Server) handleScrapeStream(w http.ResponseWriter, r *http.Request) {
	body, owner, ok := s.decodeScrapeRequest(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, owner) {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		s.writeError(w, r, agendex.Errorf(agendex.EINTERNAL, "streaming unsupported"))
		return
	}

	streaming := false
	emit := func(event crawl.ProgressEvent) {
		if !streaming {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			streaming = true
		}
		frame, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", frame)
		flusher.Flush()
	}

	_, err := s.Ingestor.RunWithLimit(r.Context(), owner, body.MaxEvents, emit)
	if err != nil {
		// Failures before the first frame (no config, bad owner) still
		// get a plain JSON error response.
		if !streaming {
			s.writeError(w, r, err)
			return
		}
		emit(crawl.ProgressEvent{Type: crawl.ProgressError, Message: agendex.ErrorMessage(err)})
	}
}
