// Package api exposes the HTTP trigger used when the scheduler prefers an
// endpoint over a process invocation.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"licitahunter/internal/observability"
	"licitahunter/internal/pipeline"
)

type Server struct {
	router *chi.Mux
	runner func(ctx context.Context) pipeline.Result

	mu      sync.Mutex
	running bool
	last    *pipeline.Result
}

func NewServer(run func(ctx context.Context) pipeline.Result) *Server {
	s := &Server{
		router: chi.NewRouter(),
		runner: run,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/run", s.handleRun)
	s.router.Get("/stats", s.handleStats)
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleRun triggers one pipeline run. Runs are serialized; a trigger that
// arrives while one is in flight gets 409 rather than a duplicate email.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		respondError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	s.running = true
	s.mu.Unlock()

	result := s.runner(r.Context())

	s.mu.Lock()
	s.running = false
	s.last = &result
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"last_run": last,
		"counters": observability.Snapshot(),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
