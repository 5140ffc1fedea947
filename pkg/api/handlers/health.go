// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/0xReLogic/Cognio/pkg/api/middleware"
	"github.com/0xReLogic/Cognio/pkg/api/response"
	"github.com/0xReLogic/Cognio/pkg/memory"
)

// HealthHandler handles the health and service-info endpoints.
type HealthHandler struct {
	svc     *memory.Service
	name    string
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(svc *memory.Service, name, version string) *HealthHandler {
	return &HealthHandler{
		svc:     svc,
		name:    name,
		version: version,
	}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness probe). The service is ready
// once the lexical index has been rebuilt from storage.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.svc.Index().Ready() {
		response.JSON(w, http.StatusOK, map[string]bool{"ready": true})
		return
	}
	response.JSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
}

// Info handles the / endpoint (service info).
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"name":    h.name,
		"version": h.version,
	}
	if stats, err := h.svc.Stats(r.Context()); err == nil {
		info["total_memories"] = stats.TotalMemories
	}
	response.JSON(w, http.StatusOK, info)
}

// getRequestID extracts the request ID set by the RequestID middleware.
func getRequestID(ctx context.Context) string {
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		return reqID
	}
	return "unknown"
}
