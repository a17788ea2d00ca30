// Package server exposes completed analysis runs and their figures
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicdata/policy-atlas/internal/model"
	"github.com/civicdata/policy-atlas/internal/store"
)

// Server serves run metadata, statistics, and rendered figures.
type Server struct {
	store      store.Store
	figuresDir string
	router     chi.Router
}

// New builds a Server over the given store. figuresDir is served
// read-only under /figures/.
func New(st store.Store, figuresDir string) *Server {
	s := &Server{store: st, figuresDir: figuresDir}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleLatestStats)
		r.Get("/runs", s.handleListRuns)
		r.Route("/runs/{runID}", func(r chi.Router) {
			r.Get("/", s.handleGetRun)
			r.Get("/stats", s.handleBenefitStats)
			r.Get("/trends", s.handleTrendTests)
			r.Get("/artifacts", s.handleArtifacts)
		})
	})
	if figuresDir != "" {
		r.Handle("/figures/*", http.StripPrefix("/figures/", http.FileServer(http.Dir(figuresDir))))
	}

	s.router = r
	return s
}

// Handler returns the HTTP handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
	}
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		filter.Year = year
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleLatestStats serves the statistics of the most recent complete
// run, so clients need not track run IDs.
func (s *Server) handleLatestStats(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), store.RunFilter{
		Status: model.RunStatusComplete,
		Limit:  1,
	})
	if err != nil {
		zap.L().Error("list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	if len(runs) == 0 {
		writeError(w, http.StatusNotFound, "no complete runs")
		return
	}
	run := runs[0]

	stats, err := s.store.ListBenefitStats(r.Context(), run.ID)
	if err != nil {
		zap.L().Error("list benefit stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list benefit stats failed")
		return
	}
	trends, err := s.store.ListTrendTests(r.Context(), run.ID)
	if err != nil {
		zap.L().Error("list trend tests", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list trend tests failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run":    run,
		"stats":  stats,
		"trends": trends,
	})
}

func (s *Server) handleBenefitStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.ListBenefitStats(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		zap.L().Error("list benefit stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list benefit stats failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (s *Server) handleTrendTests(w http.ResponseWriter, r *http.Request) {
	tests, err := s.store.ListTrendTests(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		zap.L().Error("list trend tests", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list trend tests failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trends": tests})
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.store.ListArtifacts(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		zap.L().Error("list artifacts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list artifacts failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"artifacts": artifacts})
}
