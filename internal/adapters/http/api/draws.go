package api

import (
	"context"
	"net/http"

	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/stats"
	"github.com/okian/dltscope/pkg/logger"
)

const defaultDrawLimit = 20

// DrawDependencies defines the interface for draw reads.
type DrawDependencies interface {
	Draws(ctx context.Context) ([]model.DrawRecord, error)
}

// DrawsHandler handles draw listing requests.
type DrawsHandler struct {
	deps     DrawDependencies
	maxLimit int
	logger   logger.Logger
}

// NewDrawsHandler creates a new draws handler.
func NewDrawsHandler(deps DrawDependencies, maxLimit int, log logger.Logger) *DrawsHandler {
	return &DrawsHandler{deps: deps, maxLimit: maxLimit, logger: log}
}

// HandleGetDraws handles GET /draws?limit=N requests, newest first.
func (h *DrawsHandler) HandleGetDraws(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_draws"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := parseLimit(r, defaultDrawLimit, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	draws, err := h.deps.Draws(r.Context())
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	newest := stats.Newest(draws, n)
	out := make([]drawResponse, len(newest))
	for i, d := range newest {
		out[i] = newDrawResponse(d)
	}
	writeJSON(w, http.StatusOK, out)
}
