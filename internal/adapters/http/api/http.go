// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/dltscope/internal/app"
	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/stats"
	"github.com/okian/dltscope/internal/domain/types"
	"github.com/okian/dltscope/pkg/logger"
)

// DefaultMaxLimit caps the limit parameter when no other cap is configured.
const DefaultMaxLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	DrawDependencies
	PredictionDependencies
	ExpertDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the analysis API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	drawsHandler      *DrawsHandler
	predictionHandler *PredictionHandler
	expertsHandler    *ExpertsHandler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxLimit int
	logger   logger.Logger
}

// WithMaxLimit caps the limit query parameter of list endpoints.
func WithMaxLimit(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := serverOptions{maxLimit: DefaultMaxLimit}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		drawsHandler:      NewDrawsHandler(deps, o.maxLimit, o.logger),
		predictionHandler: NewPredictionHandler(deps, o.logger),
		expertsHandler:    NewExpertsHandler(deps, o.maxLimit, o.logger),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/draws", MetricsMiddleware(s.drawsHandler.HandleGetDraws, "draws"))
	mux.HandleFunc("/prediction", MetricsMiddleware(s.predictionHandler.HandleGetPrediction, "prediction"))
	mux.HandleFunc("/experts/leaderboard", MetricsMiddleware(s.expertsHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/experts/", MetricsMiddleware(s.expertsHandler.HandleGetExpert, "expert"))
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

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNoData), errors.Is(err, stats.ErrNoDraws), errors.Is(err, stats.ErrNoExperts):
		writeError(w, http.StatusServiceUnavailable, "no_data", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err)
	default:
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// drawResponse is the JSON shape of one draw.
type drawResponse struct {
	Period int    `json:"period"`
	Date   string `json:"date"`
	Front  []int  `json:"front"`
	Back   []int  `json:"back"`
	Sales  string `json:"sales"`
	Pool   string `json:"pool"`
}

func newDrawResponse(d model.DrawRecord) drawResponse {
	return drawResponse{
		Period: d.Period,
		Date:   d.Date.Format(model.DateLayout),
		Front:  d.Front,
		Back:   d.Back,
		Sales:  d.Sales.String(),
		Pool:   d.Pool.String(),
	}
}
