package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sosostris/german-english-bilingual-reader/internal/library"
	"github.com/sosostris/german-english-bilingual-reader/internal/playback"
	"github.com/sosostris/german-english-bilingual-reader/internal/provider"
)

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondForError maps application errors onto HTTP statuses: missing
// texts and pages are 404, malformed synthesis parameters 400,
// unreachable providers 503, provider failures 502, an utterance
// superseded by a newer one 409, anything else 500
func respondForError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, provider.ErrInvalidRequest):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, playback.ErrSuperseded):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, provider.ErrUnavailable):
		respondError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, provider.ErrProvider):
		respondError(w, err.Error(), http.StatusBadGateway)
	default:
		respondError(w, err.Error(), http.StatusInternalServerError)
	}
}

// decodeAndValidate parses a JSON body and runs struct validation
func (s *Server) decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return s.validate.Struct(dst)
}
