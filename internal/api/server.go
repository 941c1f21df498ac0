package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/cvparse/internal/config"
	"github.com/dgallion1/cvparse/internal/followup"
	"github.com/dgallion1/cvparse/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Processor runs one résumé submission end to end.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (pipeline.Result, error)
	Stats() map[string]pipeline.StatsSnapshot
}

// FollowUps exposes scheduled follow-up tasks.
type FollowUps interface {
	Get(id string) (followup.TaskSnapshot, bool)
	List() []followup.TaskSnapshot
}

// Server is the HTTP API server for cvparse.
type Server struct {
	router    chi.Router
	processor Processor
	followUps FollowUps
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(proc Processor, followUps FollowUps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		processor: proc,
		followUps: followUps,
		log:       log,
		cfg:       cfg,
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
	if s.cfg.CORSAllowedOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{s.cfg.CORSAllowedOrigin},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)

	limiter := rate.NewLimiter(rate.Limit(s.cfg.ParseRatePerSec), s.cfg.ParseRateBurst)
	r.With(RateLimit(limiter)).Post("/parse-cv", s.handleParseCV)

	r.Get("/api/stats", s.handleStats)
	r.Get("/api/followups", s.handleListFollowUps)
	r.Get("/api/followups/{taskID}", s.handleGetFollowUp)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
