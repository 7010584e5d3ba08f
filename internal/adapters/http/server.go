// Package http exposes the engine as a JSON API over chi.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cicerone "github.com/cicerone-chat/cicerone"
	"github.com/cicerone-chat/cicerone/internal/logging"
	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// Server adapts the engine facade to HTTP handlers.
type Server struct {
	engine   *cicerone.Engine
	logger   *slog.Logger
	registry *prometheus.Registry
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRegistry mounts /metrics backed by the given Prometheus registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// NewHandler builds the chi router for the engine.
func NewHandler(engine *cicerone.Engine, opts ...Option) http.Handler {
	s := &Server{engine: engine, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/definitions", func(r chi.Router) {
		r.Get("/", s.listDefinitions)
		r.Post("/graph", s.importGraph)
		r.Post("/table", s.importTable)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.deleteDefinition)
			r.Get("/table", s.exportTable)
			r.Get("/editor", s.exportEditor)
			r.Post("/select", s.selectNode)
		})
	})
	return r
}

type importGraphRequest struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
}

type importTableRequest struct {
	Name string `json:"name"`
	Rows string `json:"rows"`
}

type selectRequest struct {
	Selection string `json:"selection"`
	SessionID string `json:"session_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDefinitions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Definitions(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string][]string{"definitions": ids})
}

func (s *Server) importGraph(w http.ResponseWriter, r *http.Request) {
	var req importGraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	res, err := s.engine.ImportGraph(r.Context(), req.Name, req.Document)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, res)
}

func (s *Server) importTable(w http.ResponseWriter, r *http.Request) {
	var req importTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	res, err := s.engine.ImportTable(r.Context(), req.Name, []byte(req.Rows))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, res)
}

func (s *Server) deleteDefinition(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportTable(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.ExportTable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	if _, err := w.Write(out); err != nil {
		s.logger.Error("write csv response", "err", err)
	}
}

func (s *Server) exportEditor(w http.ResponseWriter, r *http.Request) {
	doc, err := s.engine.ExportEditor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, doc)
}

func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	reply, err := s.engine.Select(r.Context(), chi.URLParam(r, "id"), req.Selection, req.SessionID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, reply)
}

// fail maps domain errors to status codes. Malformed or uncompilable payloads
// are the client's fault; unknown ids are 404; the rest is on us.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadFormat),
		errors.Is(err, domain.ErrNoStart),
		errors.Is(err, domain.ErrNoEntry),
		errors.Is(err, domain.ErrDepthExceeded):
		s.respond(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDefinitionNotFound),
		errors.Is(err, domain.ErrNodeNotFound):
		s.respond(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "err", err)
		s.respond(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}
