package boundary

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/sentinel/internal/domain"
)

// handleStrategyRegistry lists every loaded strategy definition, grounded
// on the teacher's config-listing handlers under
// internal/modules/planning/handlers.
func (s *Server) handleStrategyRegistry(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.container.Strategies.List())
}

// startExecutionRequest is the JSON body for POST /api/strategies/execute.
type startExecutionRequest struct {
	StrategyID  string                    `json:"strategy_id"`
	Parameters  domain.StrategyParameters `json:"parameters,omitempty"`
	Markets     []string                  `json:"markets,omitempty"`
	Industries  []string                  `json:"industries,omitempty"`
	MaxStocks   int                       `json:"max_stocks,omitempty"`
	MinScore    float64                   `json:"min_score,omitempty"`
	WorkerCount int                       `json:"worker_count,omitempty"`
}

type startExecutionResponse struct {
	ExecutionID string `json:"execution_id"`
}

// handleStartExecution implements JobEngine.Start over HTTP.
func (s *Server) handleStartExecution(w http.ResponseWriter, r *http.Request) {
	var req startExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidParameters)
		return
	}

	maxStocks := req.MaxStocks
	if maxStocks == 0 {
		maxStocks = 100
	}

	id, err := s.container.Engine.Start(domain.StartRequest{
		StrategyID: req.StrategyID,
		Parameters: req.Parameters,
		Filter: domain.UniverseFilter{
			Markets:    req.Markets,
			Industries: req.Industries,
		},
		MinScore:    req.MinScore,
		MaxStocks:   maxStocks,
		WorkerCount: req.WorkerCount,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, startExecutionResponse{ExecutionID: id})
}

// handleGetProgress implements JobEngine.Progress over HTTP.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	progress, err := s.container.Engine.Progress(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, progress)
}

// handleGetResult implements JobEngine.Result over HTTP.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := s.container.Engine.Result(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type cancelResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

// handleCancelExecution implements JobEngine.Cancel over HTTP.
func (s *Server) handleCancelExecution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.container.Engine.Cancel(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cancelResponse{Acknowledged: true})
}
