package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/dltscope/pkg/logger"
)

const defaultLeaderboardLimit = 10

// ExpertDependencies defines the interface for expert reads.
type ExpertDependencies interface {
	Leaderboard(ctx context.Context, n int) ([]Entry, error)
	Expert(ctx context.Context, key string) (Entry, error)
}

// ExpertsHandler handles leaderboard and single expert requests.
type ExpertsHandler struct {
	deps     ExpertDependencies
	maxLimit int
	logger   logger.Logger
}

// NewExpertsHandler creates a new experts handler.
func NewExpertsHandler(deps ExpertDependencies, maxLimit int, log logger.Logger) *ExpertsHandler {
	return &ExpertsHandler{deps: deps, maxLimit: maxLimit, logger: log}
}

// HandleGetLeaderboard handles GET /experts/leaderboard?limit=N requests.
func (h *ExpertsHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := parseLimit(r, defaultLeaderboardLimit, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), n)
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetExpert handles GET /experts/{name or id} requests.
func (h *ExpertsHandler) HandleGetExpert(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_expert"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/experts/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Expert(r.Context(), key)
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
