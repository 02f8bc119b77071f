package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/datasetgen/internal/extract"
	"github.com/dgallion1/datasetgen/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes read-only status for a running pipeline.
type Server struct {
	router chi.Router
	state  *pipeline.RunState
	stats  *extract.LLMStats
	model  string
	apiKey string
	log    *slog.Logger
}

// NewServer creates and configures the HTTP server. An empty apiKey leaves
// the /api routes unauthenticated.
func NewServer(state *pipeline.RunState, stats *extract.LLMStats, model, apiKey string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		state:  state,
		stats:  stats,
		model:  model,
		apiKey: apiKey,
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(AuthMiddleware(s.apiKey))
		}
		r.Get("/api/run", s.handleRun)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
