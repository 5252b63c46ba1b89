package api

import (
	"context"
	"net/http"

	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/pkg/logger"
)

// PredictionDependencies defines the interface for predictions.
type PredictionDependencies interface {
	Predict(ctx context.Context) (model.Prediction, error)
}

// PredictionHandler handles prediction requests.
type PredictionHandler struct {
	deps   PredictionDependencies
	logger logger.Logger
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(deps PredictionDependencies, log logger.Logger) *PredictionHandler {
	return &PredictionHandler{deps: deps, logger: log}
}

type combinationResponse struct {
	Front []int `json:"front"`
	Back  []int `json:"back"`
}

type predictionResponse struct {
	combinationResponse
	Alternates []combinationResponse `json:"alternates"`
}

// HandleGetPrediction handles GET /prediction requests.
func (h *PredictionHandler) HandleGetPrediction(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_prediction"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	p, err := h.deps.Predict(r.Context())
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	resp := predictionResponse{
		combinationResponse: combinationResponse{Front: p.Front, Back: p.Back},
		Alternates:          make([]combinationResponse, len(p.Alternates)),
	}
	for i, c := range p.Alternates {
		resp.Alternates[i] = combinationResponse{Front: c.Front, Back: c.Back}
	}
	writeJSON(w, http.StatusOK, resp)
}
