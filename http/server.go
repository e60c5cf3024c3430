package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/crawl"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ShutdownTimeout bounds graceful shutdown of in-flight requests.
const ShutdownTimeout = 5 * time.Second

// IngestRunner runs one ingestion pass for an owner. *crawl.Ingestor
// implements it.
type IngestRunner interface {
	RunWithLimit(ctx context.Context, owner agendex.OwnerRef, maxEvents int, progress crawl.ProgressFunc) (*crawl.Result, error)
}

// Server exposes the scrape API. Dependencies are assigned before Open.
type Server struct {
	ln     net.Listener
	server *http.Server
	router chi.Router

	// Addr is the bind address, e.g. ":8080".
	Addr string

	Auth     agendex.Authorizer
	Ingestor IngestRunner
	Logger   *slog.Logger
}

// NewServer creates a Server with its routes registered. The handler
// fields must be assigned before Open is called.
func NewServer() *Server {
	s := &Server{
		server: &http.Server{},
		router: chi.NewRouter(),
		Logger: slog.Default(),
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api/agenda", func(r chi.Router) {
		r.Post("/scrape", s.handleScrape)
		r.Post("/scrape/stream", s.handleScrapeStream)
	})

	s.server.Handler = s.router
	return s
}

// Open begins listening on Addr. It returns once the listener is bound;
// request serving continues on a background goroutine.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.Logger.Error("http server failed", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts the server down.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// URL returns the base URL the server is reachable at. Useful in tests
// where Addr was ":0".
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// ServeHTTP dispatches to the router, letting tests drive the server
// without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// scrapeRequest is the body of both scrape endpoints. Exactly one of the
// owner IDs must be set. MaxEvents only applies when positive.
type scrapeRequest struct {
	OrganizerID string `json:"organizer_id"`
	LocationID  string `json:"location_id"`
	MaxEvents   int    `json:"max_events"`
}

func (s *Server) decodeScrapeRequest(w http.ResponseWriter, r *http.Request) (*scrapeRequest, agendex.OwnerRef, bool) {
	var body scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, agendex.Errorf(agendex.EINVALID, "invalid request body"))
		return nil, agendex.OwnerRef{}, false
	}

	owner := agendex.OwnerRef{OrganizerID: body.OrganizerID, LocationID: body.LocationID}
	if err := owner.Validate(); err != nil {
		s.writeError(w, r, err)
		return nil, agendex.OwnerRef{}, false
	}
	return &body, owner, true
}

// authorize enforces the bearer token before any crawling starts: missing
// or unknown tokens get 401, tokens without admin or owner/editor rights
// for the requested owner get 403.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, owner agendex.OwnerRef) bool {
	token := bearerToken(r)
	if token == "" {
		s.writeError(w, r, agendex.Errorf(agendex.EUNAUTHORIZED, "Authentication required."))
		return false
	}

	admin, err := s.Auth.IsAdmin(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return false
	}
	if admin {
		return true
	}

	allowed, err := s.Auth.CanManage(r.Context(), token, owner)
	if err != nil {
		s.writeError(w, r, err)
		return false
	}
	if !allowed {
		s.writeErrorStatus(w, r, http.StatusForbidden, "You do not manage this organizer or location.")
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// errorResponse is the JSON error body shared by all endpoints.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := agendex.ErrorCode(err)
	if code == agendex.EINTERNAL {
		s.Logger.Error("http error", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errorStatus(code))
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: agendex.ErrorMessage(err),
		Code:  code,
	})
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// errorStatus maps application error codes to HTTP status codes.
func errorStatus(code string) int {
	switch code {
	case agendex.ECONFLICT:
		return http.StatusConflict
	case agendex.EINVALID:
		return http.StatusBadRequest
	case agendex.ENOTFOUND:
		return http.StatusNotFound
	case agendex.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case agendex.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
