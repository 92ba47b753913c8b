package api

import (
	"net/http"
)

type switchProviderRequest struct {
	Name string `json:"name" validate:"required"`
}

// listLLMProviders handles GET /api/v1/providers/llm
func (s *Server) listLLMProviders(w http.ResponseWriter, r *http.Request) {
	current := ""
	if llm, err := s.registry.CurrentLLM(); err == nil {
		current = llm.Name()
	}

	respondJSON(w, map[string]interface{}{
		"providers": s.registry.ListLLM(),
		"current":   current,
	}, http.StatusOK)
}

// switchLLMProvider handles POST /api/v1/providers/llm/switch. The
// switch applies to subsequent requests only; in-flight work keeps the
// provider it started with.
func (s *Server) switchLLMProvider(w http.ResponseWriter, r *http.Request) {
	var req switchProviderRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.registry.SwitchLLM(req.Name); err != nil {
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}

	s.log.Infof("Switched LLM provider to %s", req.Name)
	respondJSON(w, map[string]string{"current": req.Name}, http.StatusOK)
}
