package boundary

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/sentinel/internal/domain"
)

// writeJSON writes data as a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps a domain sentinel error to its HTTP status and writes it.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownStrategy),
		errors.Is(err, domain.ErrInvalidParameters),
		errors.Is(err, domain.ErrBadFilter):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrCapacityExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrResultNotReady):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAlreadyTerminal):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
