// Package server is the REST gateway over a [domain.DB].
//
// The gateway exposes collection, document, query and index maintenance
// operations as JSON routes, streams query results as NDJSON and guards
// document writes with optional per-collection JSON Schemas. It owns no
// storage and no lifecycle: the database it serves is injected open and
// is closed by the caller.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gorilla/mux"

	"github.com/dossierdb/dossier/domain"
)

// Server serves a database over HTTP.
type Server struct {
	db      domain.DB
	logger  *slog.Logger
	router  *mux.Router
	schemas *schemaRegistry
}

// NewServer returns a gateway over an injected database. A database is
// required:
// - [WithDB]
// - [WithLogger]
func NewServer(options ...Option) (*Server, error) {
	s := &Server{
		logger:  slog.Default(),
		schemas: newSchemaRegistry(),
	}
	for _, option := range options {
		option(s)
	}
	if s.db == nil {
		return nil, domain.ErrInvalidArgument{Arg: "db", Reason: "must not be nil"}
	}

	s.router = mux.NewRouter()
	s.routes()
	s.router.Use(s.instrument)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
	})
	return s, nil
}

// Handler returns the routed gateway handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
	s.router.HandleFunc("/sync", s.handleSync).Methods("POST")

	s.router.HandleFunc("/collections/{coll}", s.handleEnsureCollection).Methods("PUT")
	s.router.HandleFunc("/collections/{coll}", s.handleRemoveCollection).Methods("DELETE")

	s.router.HandleFunc("/collections/{coll}/documents", s.handleSaveDocuments).Methods("POST")
	s.router.HandleFunc("/collections/{coll}/documents/{id}", s.handleLoadDocument).Methods("GET")
	s.router.HandleFunc("/collections/{coll}/documents/{id}", s.handleRemoveDocument).Methods("DELETE")

	s.router.HandleFunc("/collections/{coll}/query", s.handleQuery).Methods("POST")
	s.router.HandleFunc("/collections/{coll}/count", s.handleCount).Methods("POST")
	s.router.HandleFunc("/collections/{coll}/update", s.handleUpdate).Methods("POST")

	s.router.HandleFunc("/collections/{coll}/indexes", s.handleIndexes).Methods("POST")
	s.router.HandleFunc("/collections/{coll}/schema", s.handlePutSchema).Methods("PUT")
	s.router.HandleFunc("/collections/{coll}/schema", s.handleDropSchema).Methods("DELETE")
}

// instrument logs every request and feeds the per-route counters and
// latency summaries.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeTemplate(r)
		s.logger.Info("request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration", time.Since(start),
		)
		metrics.GetOrCreateCounter(fmt.Sprintf(`dossier_http_requests_total{route=%q,method=%q,status="%d"}`, route, r.Method, rec.status)).Inc()
		metrics.GetOrCreateSummary(fmt.Sprintf(`dossier_http_request_duration_seconds{route=%q,method=%q}`, route, r.Method)).UpdateDuration(start)
	})
}

// routeTemplate names the matched route; unmatched requests fall back to
// the raw path.
func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.URL.Path
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return r.URL.Path
	}
	return tmpl
}

// statusRecorder captures the response status for the request log. It
// forwards Flush so streamed responses keep flushing through the wrapper.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
