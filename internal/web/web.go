// Package web is the HTTP shell of the calendar console: it serves the
// embedded UI, exposes the computed calendar layout as JSON and passes event
// mutations through to the console API. All calendar math lives in
// internal/calview; this package only fetches, caches and encodes.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"invcal/internal/config"
	"invcal/internal/events"
	"invcal/internal/holiday"
	"invcal/internal/ics"
	appLog "invcal/internal/log"
	"invcal/internal/model"
)

// eventsCacheTTL bounds how long a fetched event range is reused before the
// remote sources are asked again.
const eventsCacheTTL = 30 * time.Second

// embeddedStatic contains the exported console UI build. The directory under
// internal/web/static mirrors the bundler output (index.html, assets, ...).
//
//go:embed all:static
var embeddedStatic embed.FS

// Server wires the remote collaborators to the HTTP surface.
type Server struct {
	cfg    *config.Config
	loc    *time.Location
	api    *events.Client
	hols   *holiday.Store
	fetch  *ics.Fetcher
	router chi.Router

	// rangeCache memoizes merged event lists per period. Keyed by the range
	// string, so a response for a superseded range is simply never looked
	// up again rather than cancelled.
	rangeMu    sync.RWMutex
	rangeCache map[string]*cachedRange
}

type cachedRange struct {
	events    []model.Event
	updatedAt time.Time
}

// NewServer constructs the HTTP server around the given collaborators.
func NewServer(cfg *config.Config, loc *time.Location, api *events.Client, hols *holiday.Store, fetch *ics.Fetcher) *Server {
	s := &Server{
		cfg:        cfg,
		loc:        loc,
		api:        api,
		hols:       hols,
		fetch:      fetch,
		rangeCache: make(map[string]*cachedRange),
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		r.Use(s.basicAuth)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/calendar", s.handleCalendar)
		r.Get("/holidays", s.handleHolidays)
		r.Get("/events", s.handleListEvents)
		r.Post("/events", s.handleCreateEvent)
		r.Put("/events/{id}", s.handleUpdateEvent)
		r.Patch("/events/{id}", s.handlePatchEvent)
		r.Delete("/events/{id}", s.handleDeleteEvent)
	})

	r.Get("/snapshot.png", s.handleSnapshot)
	r.NotFound(s.staticFileServer())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleSnapshot serves the last captured calendar PNG from disk.
// http.ServeFile maps missing files and permission errors to sane statuses.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Snapshot.OutputPath)
}

// staticFileServer serves the embedded UI for everything that is not an API
// route. /api/* never falls through to HTML.
func (s *Server) staticFileServer() http.HandlerFunc {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("embedded static filesystem unavailable", err)
		return func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		}
	}
	fileServer := http.FileServer(http.FS(sub))

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	}
}

// mergedEvents fetches console API events and expanded ICS occurrences for
// [start, end], with a short per-range memo so grid redraws do not refetch.
func (s *Server) mergedEvents(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	key := start.Format(time.RFC3339Nano) + "/" + end.Format(time.RFC3339Nano)

	s.rangeMu.RLock()
	c := s.rangeCache[key]
	s.rangeMu.RUnlock()
	if c != nil && time.Since(c.updatedAt) < eventsCacheTTL {
		return c.events, nil
	}

	merged, err := s.api.FetchRange(ctx, start, end)
	if err != nil {
		// Degrade to an empty console list; ICS feeds may still render.
		appLog.Error("console API fetch failed; continuing with feeds only", err)
		merged = []model.Event{}
	}

	if feedEvents, ferr := s.feedEvents(ctx, start, end); ferr == nil {
		merged = append(merged, feedEvents...)
	}

	if err != nil && len(merged) == 0 {
		return nil, err
	}

	s.rangeMu.Lock()
	s.rangeCache[key] = &cachedRange{events: merged, updatedAt: time.Now()}
	s.rangeMu.Unlock()
	return merged, nil
}

// feedEvents expands all configured ICS feeds into the given window.
func (s *Server) feedEvents(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	if len(s.cfg.ICS) == 0 || s.fetch == nil {
		return nil, nil
	}

	sources := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, c := range s.cfg.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.Name
		}
		sources = append(sources, ics.Source{ID: id, Name: c.Name, URL: c.URL, Color: c.Color})
	}
	if len(sources) == 0 {
		return nil, nil
	}

	results, errs := s.fetch.FetchAll(ctx, sources)
	if len(errs) > 0 {
		appLog.Error("ics fetch errors", errorsAggregate(errs), "error_count", len(errs))
	}

	parsed := make([]ics.FeedEvent, 0)
	for _, res := range results {
		fes, err := ics.Parse(res.Source, res.Body)
		if err != nil {
			continue
		}
		parsed = append(parsed, fes...)
	}

	return ics.Expand(parsed, ics.ExpandConfig{
		DisplayLocation: s.loc,
		RangeStart:      start,
		RangeEnd:        end,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

func errorsAggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}
