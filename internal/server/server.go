// internal/server/server.go

// Package server exposes the scrape pipeline over HTTP. Progress streams
// to the client as Server-Sent Events on the scrape endpoint; health and
// metrics ride alongside.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/grocerlens/reviewharvest/internal/monitoring"
	"github.com/grocerlens/reviewharvest/internal/pipeline"
	"github.com/grocerlens/reviewharvest/internal/review"
	"github.com/grocerlens/reviewharvest/pkg/api"
)

// ScrapeRunner executes one scrape run, reporting progress to the emitter
type ScrapeRunner interface {
	Run(ctx context.Context, req pipeline.Request, emit pipeline.Emitter) (*pipeline.Result, error)
}

// Server routes HTTP traffic to the pipeline
type Server struct {
	runner  ScrapeRunner
	metrics *monitoring.Metrics
	health  *monitoring.Health
	log     zerolog.Logger
}

// New creates the HTTP layer
func New(runner ScrapeRunner, metrics *monitoring.Metrics, health *monitoring.Health, log zerolog.Logger) *Server {
	return &Server{
		runner:  runner,
		metrics: metrics,
		health:  health,
		log:     log.With().Str("component", "server").Logger(),
	}
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.Handle("/healthz", s.health.Handler()).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/scrape", s.handleScrape).Methods(http.MethodPost)

	return r
}

// handleScrape validates the request and streams run progress as SSE. The
// client disconnecting cancels the run through the request context; the
// pipeline stops before the next product and still assembles what finished.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req api.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	urls := splitLines(req.URLs)
	if len(urls) == 0 {
		http.Error(w, "urls is required", http.StatusBadRequest)
		return
	}

	dateRange, err := parseRange(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	done := s.health.RunStarted()
	defer done()

	emit := func(event string, payload interface{}) {
		data, err := json.Marshal(payload)
		if err != nil {
			s.log.Error().Err(err).Str("event", event).Msg("failed to encode event")
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	_, err = s.runner.Run(r.Context(), pipeline.Request{
		URLs:   urls,
		Range:  dateRange,
		Format: req.Format,
	}, emit)
	if err != nil {
		// already surfaced to the client as an error event
		s.log.Error().Err(err).Msg("scrape run failed")
	}
}

func parseRange(req api.ScrapeRequest) (review.DateRange, error) {
	from, err := parseISODate(req.DateFrom)
	if err != nil {
		return review.DateRange{}, fmt.Errorf("dateFrom: %w", err)
	}
	to, err := parseISODate(req.DateTo)
	if err != nil {
		return review.DateRange{}, fmt.Errorf("dateTo: %w", err)
	}
	if from != nil && to != nil && to.Before(*from) {
		return review.DateRange{}, fmt.Errorf("dateTo precedes dateFrom")
	}
	return review.DateRange{From: from, To: to}, nil
}

// parseISODate parses an optional YYYY-MM-DD request bound; blank means
// unbounded.
func parseISODate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

func splitLines(s string) []string {
	var urls []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}
