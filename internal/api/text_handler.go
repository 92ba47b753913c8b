package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// listTexts handles GET /api/v1/texts
func (s *Server) listTexts(w http.ResponseWriter, r *http.Request) {
	texts, err := s.library.List(r.Context())
	if err != nil {
		respondForError(w, err)
		return
	}

	respondJSON(w, map[string]interface{}{
		"texts": texts,
		"count": len(texts),
	}, http.StatusOK)
}

// getTextMetadata handles GET /api/v1/texts/{textID}
func (s *Server) getTextMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := s.library.GetMetadata(r.Context(), chi.URLParam(r, "textID"))
	if err != nil {
		respondForError(w, err)
		return
	}
	respondJSON(w, meta, http.StatusOK)
}

// getTextPage handles GET /api/v1/texts/{textID}/pages/{page}. Pages
// are addressed zero-based, matching the session's page numbering.
func (s *Server) getTextPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		respondError(w, "Invalid page number", http.StatusBadRequest)
		return
	}

	data, err := s.library.GetPage(r.Context(), chi.URLParam(r, "textID"), page)
	if err != nil {
		respondForError(w, err)
		return
	}
	respondJSON(w, data, http.StatusOK)
}
