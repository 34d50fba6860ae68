// Package http exposes the card core over a JSON API routed with chi.
//
//	GET    /health
//	GET    /info
//	POST   /validate                  body: card document (JSON or YAML)
//	POST   /plan                      body: card document; validated, then planned
//	GET    /modules?q=term
//	GET    /cards
//	GET    /cards/{id}
//	PUT    /cards/{id}                body: card document
//	DELETE /cards/{id}
//	POST   /cards/{id}/operations     body: layout.Operation
//	GET    /cards/{id}/events         server-sent layout diffs
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/ultracard"
	"github.com/aretw0/ultracard/internal/logging"
	"github.com/aretw0/ultracard/pkg/document"
	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/layout"
	"github.com/aretw0/ultracard/pkg/session"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Server serves one card session and, optionally, a store of cards.
type Server struct {
	Session *ultracard.Session
	Cards   *session.Manager
	Streams *StreamManager
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithCards enables the /cards routes.
func WithCards(m *session.Manager) Option {
	return func(s *Server) {
		s.Cards = m
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts a metrics handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for sess.
func NewHandler(sess *ultracard.Session, opts ...Option) http.Handler {
	s := &Server{
		Session: sess,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return enableCORS(s.routes())
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/validate", s.Validate)
	r.Post("/plan", s.Plan)
	r.Get("/modules", s.ListModules)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	if s.Cards != nil {
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.ListCards)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetCard)
				r.Put("/", s.PutCard)
				r.Delete("/", s.DeleteCard)
				r.Post("/operations", s.ApplyOperation)
				r.Get("/events", s.SubscribeEvents)
			})
		})
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":        "ultracard-http",
		"version":    strings.TrimSpace(ultracard.Version),
		"operations": layout.Operations(),
	})
}

// Validate handles POST /validate.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.readCard(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.Session.Validate(r.Context(), cfg))
}

// Plan handles POST /plan.
func (s *Server) Plan(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.readCard(w, r)
	if !ok {
		return
	}
	res := s.Session.Validate(r.Context(), cfg)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"validation": res,
		"plan":       s.Session.Plan(r.Context(), res.Config, ultracard.Detached()),
	})
}

// ListModules handles GET /modules.
func (s *Server) ListModules(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Session.Registry().Search(r.URL.Query().Get("q")))
}

// ListCards handles GET /cards.
func (s *Server) ListCards(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Cards.List(r.Context())
	if err != nil {
		s.fail(w, "List cards", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetCard handles GET /cards/{id}.
func (s *Server) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.Cards.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "Load card", err)
		return
	}
	s.writeJSON(w, http.StatusOK, card)
}

// PutCard handles PUT /cards/{id}. The stored document is the repaired one.
func (s *Server) PutCard(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.readCard(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	before, _ := s.Cards.Store().Load(r.Context(), id)

	res, err := s.Cards.Save(r.Context(), id, cfg)
	if errors.Is(err, session.ErrInvalidCard) {
		s.writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	if err != nil {
		s.fail(w, "Save card", err)
		return
	}
	s.broadcast(id, domain.Diff(before.Layout, res.Config.Layout))
	s.writeJSON(w, http.StatusOK, res)
}

// DeleteCard handles DELETE /cards/{id}.
func (s *Server) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.Cards.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "Delete card", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyOperation handles POST /cards/{id}/operations.
func (s *Server) ApplyOperation(w http.ResponseWriter, r *http.Request) {
	var op layout.Operation
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(&op); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("ApplyOperation: Invalid request body", "err", err)
		return
	}
	id := chi.URLParam(r, "id")
	res, outcome, err := s.Cards.Apply(r.Context(), id, op)
	if errors.Is(err, session.ErrInvalidCard) {
		s.writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	if err != nil {
		s.fail(w, "Apply operation", err)
		return
	}

	s.broadcast(id, outcome.Diff)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"card":     res.Config,
		"warnings": res.Warnings,
		"outcome":  outcome,
	})
}

func (s *Server) broadcast(cardID string, diff *domain.LayoutDiff) {
	if diff == nil {
		s.logger.Debug("No diff calculated", "card_id", cardID)
		return
	}
	if data, err := json.Marshal(diff); err == nil {
		s.Streams.Broadcast(cardID, string(data))
	}
}

func (s *Server) readCard(w http.ResponseWriter, r *http.Request) (domain.CardConfig, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return domain.CardConfig{}, false
	}
	cfg, err := document.Decode(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid card document: %v", err), http.StatusBadRequest)
		s.logger.Warn("Invalid card document", "err", err)
		return domain.CardConfig{}, false
	}
	return cfg, true
}

func (s *Server) fail(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, domain.ErrCardNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, layout.ErrInvalidOperation):
		http.Error(w, fmt.Sprintf("%s: %v", what, err), http.StatusBadRequest)
	case errors.Is(err, layout.ErrUnknownOperation),
		errors.Is(err, domain.ErrOutOfRange),
		errors.Is(err, domain.ErrLastRow),
		errors.Is(err, domain.ErrColumnLimit),
		errors.Is(err, domain.ErrUnknownModuleType),
		errors.Is(err, domain.ErrNotLayoutModule),
		errors.Is(err, domain.ErrNestedLayout),
		errors.Is(err, domain.ErrModuleNotFound):
		http.Error(w, fmt.Sprintf("%s: %v", what, err), http.StatusConflict)
	default:
		http.Error(w, fmt.Sprintf("%s error: %v", what, err), http.StatusInternalServerError)
		s.logger.Error(what+" failed", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
