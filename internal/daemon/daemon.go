// Package daemon runs the local HTTP service a browser extension posts page
// visits to and queries search results from. It binds to loopback by
// default; an optional bearer token guards all routes.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pagetrail/pagetrail/internal/search"
	"github.com/pagetrail/pagetrail/internal/store"
	"github.com/pagetrail/pagetrail/internal/visit"
)

// Server is the pagetrail ingest daemon.
type Server struct {
	store      *store.HistoryStore
	processor  *visit.Processor
	engine     *search.Engine
	authToken  string
	maxResults int
	log        *slog.Logger

	http *http.Server
}

// Config holds the daemon's listen and behavior settings.
type Config struct {
	Host       string
	Port       int
	AuthToken  string
	MaxResults int // display cap applied to search responses
}

// New creates a daemon server. If logger is nil, slog.Default() is used.
func New(cfg Config, s *store.HistoryStore, p *visit.Processor, e *search.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 100
	}

	srv := &Server{
		store:      s,
		processor:  p,
		engine:     e,
		authToken:  cfg.AuthToken,
		maxResults: cfg.MaxResults,
		log:        logger,
	}

	srv.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requireAuth)

	r.Post("/visit", s.handleVisit)
	r.Get("/search", s.handleSearch)
	r.Get("/status", s.handleStatus)
	r.Delete("/history", s.handleClear)

	return r
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info("daemon listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requireAuth enforces the bearer token when one is configured.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" && r.Header.Get("Authorization") != "Bearer "+s.authToken {
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleVisit(w http.ResponseWriter, r *http.Request) {
	var v visit.PageVisit
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// A filtered-out visit is not a client error; the extension fires for
	// every tab event and relies on the daemon to discard the noise.
	recorded := s.processor.Process(r.Context(), v)
	writeJSON(w, http.StatusOK, map[string]bool{"recorded": recorded})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := s.maxResults
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	snapshot := s.store.ReadAll(r.Context())
	results := s.engine.Search(query, snapshot)

	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"total":   total,
		"results": results,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot := s.store.ReadAll(r.Context())

	visits := 0
	for _, rec := range snapshot {
		visits += rec.VisitCount
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": len(snapshot),
		"visits":  visits,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if !s.store.Clear(r.Context()) {
		writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
