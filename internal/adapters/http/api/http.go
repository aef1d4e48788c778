// Package api exposes project scoring over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/kickscore/internal/adapters/http/swagger"
	service "github.com/okian/kickscore/internal/app"
	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/internal/domain/types"
	"github.com/okian/kickscore/pkg/logger"
	"github.com/okian/kickscore/pkg/metrics"
)

const (
	defaultMaxLimit       = 100
	defaultRequestTimeout = 30 * time.Second
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Project(ctx context.Context, projectID string) (model.Project, error)
	Performances(ctx context.Context, projectID string) (map[string]model.PerformanceEntry, error)
	PlayerPerformance(ctx context.Context, projectID, playerID string) (model.PerformanceEntry, error)
	Leaderboard(ctx context.Context, projectID string, view types.View, limit int) ([]types.Entry, error)
	RecordMeasurement(ctx context.Context, projectID string, m model.Measurement) (model.Measurement, bool, error)
	PreviewScore(ctx context.Context, projectID string, req service.PreviewRequest) (service.Preview, error)
	StatsProvider
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// LiveServer upgrades a request into a project subscription.
type LiveServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, projectID string)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps           Dependencies
	maxLimit       int
	corsOrigins    []string
	requestTimeout time.Duration
	live           LiveServer
	mcp            http.Handler
	logger         logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps the leaderboard limit parameter.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithRequestTimeout bounds every non-streaming request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithLive mounts the websocket endpoint.
func WithLive(l LiveServer) Option {
	return func(s *Server) {
		s.live = l
	}
}

// WithMCP mounts a tool endpoint at /mcp.
func WithMCP(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		maxLimit:       defaultMaxLimit,
		corsOrigins:    []string{"*"},
		requestTimeout: defaultRequestTimeout,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with every route attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         300,
	}))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	swagger.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.requestTimeout))

		r.Get("/stats", s.handleStats)
		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/", s.handleGetProject)
			r.Get("/performances", s.handleGetPerformances)
			r.Get("/players/{playerID}/performance", s.handleGetPlayerPerformance)
			r.Get("/leaderboard", s.handleGetLeaderboard)
			r.Post("/measurements", s.handlePostMeasurement)
			r.Post("/score-preview", s.handlePostScorePreview)
		})
	})

	if s.live != nil {
		r.Get("/projects/{projectID}/live", s.handleLive)
	}
	if s.mcp != nil {
		r.Handle("/mcp", s.mcp)
	}
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if status != http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
