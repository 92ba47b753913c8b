// Package health reports service readiness: whether the text library's
// storage is reachable and translation providers are registered.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sosostris/german-english-bilingual-reader/internal/storage"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) (Status, error)

// Response represents a health check response
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Handler manages health checks
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	version string
}

// NewHandler creates a new health check handler
func NewHandler(version string) *Handler {
	return &Handler{
		checks:  make(map[string]CheckFunc),
		version: version,
	}
}

// Register adds a health check
func (h *Handler) Register(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// StorageCheck probes the blob store backing the text library by
// listing the library prefix
func StorageCheck(adapter storage.Adapter, prefix string) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if _, err := adapter.List(ctx, prefix); err != nil {
			return StatusUnhealthy, err
		}
		return StatusHealthy, nil
	}
}

// providerLister is the view of the provider registry the check needs
type providerLister interface {
	ListLLM() []string
	ListSynthesizers() []string
}

// ProviderCheck reports degraded when no language-model provider is
// registered; the reading surface still works, but translation, chat
// and dictionary lookups do not
func ProviderCheck(registry providerLister) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if len(registry.ListLLM()) == 0 {
			return StatusDegraded, fmt.Errorf("no LLM providers registered")
		}
		return StatusHealthy, nil
	}
}

// RunChecks executes all registered health checks
func (h *Handler) RunChecks(ctx context.Context) Response {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	results := make(map[string]CheckResult)
	overall := StatusHealthy

	for name, check := range checks {
		status, err := check(ctx)
		result := CheckResult{Status: status}
		if err != nil {
			result.Error = err.Error()
		}
		results[name] = result

		if status == StatusUnhealthy {
			overall = StatusUnhealthy
		} else if status == StatusDegraded && overall == StatusHealthy {
			overall = StatusDegraded
		}
	}

	return Response{
		Status:    overall,
		Timestamp: time.Now(),
		Checks:    results,
		Version:   h.version,
	}
}

// LivenessHandler reports that the process is running
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(Response{
			Status:    StatusHealthy,
			Timestamp: time.Now(),
			Version:   h.version,
		})
	}
}

// ReadinessHandler runs all checks and returns 503 when any dependency
// is unhealthy
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		response := h.RunChecks(ctx)

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(response)
	}
}

// HealthHandler runs all checks and always returns 200 with the
// detailed results
func (h *Handler) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		response := h.RunChecks(ctx)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
