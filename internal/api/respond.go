package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dnayak/lifelog/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondDomainError maps the error taxonomy onto status codes. Anything
// unrecognized is an infrastructure failure and stays a 500 with a generic
// message.
func respondDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case domain.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		respondError(w, http.StatusConflict, "name already in use")
	default:
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON decodes a request body with UseNumber so loosely typed values
// keep their textual number form instead of collapsing to float64.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}
