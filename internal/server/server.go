// Package server exposes the portfolio over HTTP: JSON state and series
// endpoints, mutation endpoints that feed the scheduler, and a PNG chart.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"PortfolioLens/internal/ledger"
	"PortfolioLens/internal/renderer"
	"PortfolioLens/internal/scheduler"
)

// Server represents the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	sched  *scheduler.Scheduler
	latest *renderer.Latest
	log    zerolog.Logger
}

// New creates a new HTTP server around a scheduler and its latest-result
// holder.
func New(addr string, sched *scheduler.Scheduler, latest *renderer.Latest, log zerolog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		sched:  sched,
		latest: latest,
		log:    log.With().Str("component", "server").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/chart.png", s.handleChart)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/portfolio", s.handleGetPortfolio)
		r.Get("/series", s.handleGetSeries)
		r.Post("/mode/toggle", s.handleToggleMode)

		r.Route("/stocks", func(r chi.Router) {
			r.Get("/", s.handleListStocks)
			r.Post("/", s.handleAddStock)
			r.Route("/{symbol}", func(r chi.Router) {
				r.Delete("/", s.handleRemoveStock)
				r.Post("/lots", s.handleAddLot)
				r.Put("/lots/{index}/{field}", s.handleEditLotField)
				r.Delete("/lots/{index}", s.handleRemoveLot)
			})
		})
	})
}

// Router returns the HTTP handler, used directly in tests.
func (s *Server) Router() http.Handler { return s.router }

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.sched.Manager.Snapshot())
}

func (s *Server) handleGetSeries(w http.ResponseWriter, _ *http.Request) {
	update, ok := s.latest.Current()
	if !ok {
		s.respondError(w, http.StatusNotFound, "no computed series yet")
		return
	}
	s.respondJSON(w, http.StatusOK, update.Result)
}

func (s *Server) handleChart(w http.ResponseWriter, _ *http.Request) {
	update, ok := s.latest.Current()
	if !ok {
		s.respondError(w, http.StatusNotFound, "no computed series yet")
		return
	}
	png, err := renderer.RenderChart(update)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		s.log.Warn().Err(err).Msg("write chart response")
	}
}

func (s *Server) handleListStocks(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string][]string{"symbols": s.sched.Manager.Symbols()})
}

func (s *Server) handleAddStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(body.Symbol))
	if symbol == "" {
		s.respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	s.sched.AddStock(symbol, body.Name)
	s.respondAccepted(w)
}

func (s *Server) handleRemoveStock(w http.ResponseWriter, r *http.Request) {
	s.sched.RemoveStock(symbolParam(r))
	s.respondAccepted(w)
}

func (s *Server) handleAddLot(w http.ResponseWriter, r *http.Request) {
	s.sched.AddLot(symbolParam(r))
	s.respondAccepted(w)
}

func (s *Server) handleEditLotField(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid lot index")
		return
	}
	field := ledger.Field(chi.URLParam(r, "field"))
	switch field {
	case ledger.FieldDate, ledger.FieldCount, ledger.FieldPrice:
	default:
		s.respondError(w, http.StatusBadRequest, "unknown lot field")
		return
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.sched.EditLotField(symbolParam(r), index, field, body.Value)
	s.respondAccepted(w)
}

func (s *Server) handleRemoveLot(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid lot index")
		return
	}
	s.sched.RemoveLot(symbolParam(r), index)
	s.respondAccepted(w)
}

func (s *Server) handleToggleMode(w http.ResponseWriter, _ *http.Request) {
	s.sched.ToggleMode()
	s.respondAccepted(w)
}

func symbolParam(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "symbol"))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("encode response")
	}
}

// Mutations are applied by the scheduler loop, so the handler acknowledges
// receipt rather than completion.
func (s *Server) respondAccepted(w http.ResponseWriter) {
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
