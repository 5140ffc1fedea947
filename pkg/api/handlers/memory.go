package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/0xReLogic/Cognio/pkg/api/response"
	"github.com/0xReLogic/Cognio/pkg/memory"
	"github.com/go-chi/chi/v5"
)

// MemoryHandler handles the memory API endpoints.
type MemoryHandler struct {
	svc    *memory.Service
	logger memoryLogger
}

type memoryLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(svc *memory.Service, log memoryLogger) *MemoryHandler {
	return &MemoryHandler{
		svc:    svc,
		logger: log,
	}
}

// --- Request/Response types ---

type saveRequest struct {
	Text    string   `json:"text"`
	Project string   `json:"project,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type bulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

type archiveResponse struct {
	ID       string `json:"id"`
	Archived bool   `json:"archived"`
}

// Save handles POST /memory/save
func (h *MemoryHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}

	result, err := h.svc.Save(ctx, req.Text, req.Project, req.Tags)
	if err != nil {
		h.handleError(w, r, "save memory", err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		// Dedup is a success outcome, not a conflict
		status = http.StatusOK
	}
	response.JSON(w, status, result)
}

// Search handles GET /memory/search
func (h *MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	query := q.Get("query")
	if query == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Query parameter is required", getRequestID(ctx))
		return
	}

	opts := memory.SearchOptions{
		Query:      query,
		Project:    q.Get("project"),
		Tags:       splitTags(q.Get("tags")),
		AfterDate:  q.Get("after_date"),
		BeforeDate: q.Get("before_date"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	if v := q.Get("threshold"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil && t >= 0 && t <= 1 {
			opts.Threshold = &t
		}
	}

	results, err := h.svc.Search(ctx, opts)
	if err != nil {
		h.handleError(w, r, "search memory", err)
		return
	}
	if results == nil {
		results = []memory.SearchResult{}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// List handles GET /memory/list
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	opts := memory.ListOptions{
		Project: q.Get("project"),
		Tags:    splitTags(q.Get("tags")),
		Sort:    q.Get("sort"),
		Query:   q.Get("q"),
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Page = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}

	result, err := h.svc.List(ctx, opts)
	if err != nil {
		h.handleError(w, r, "list memory", err)
		return
	}
	if result.Items == nil {
		result.Items = []memory.SearchResult{}
	}
	response.JSON(w, http.StatusOK, result)
}

// Get handles GET /memory/{id}
func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	m, err := h.svc.Get(ctx, id)
	if err != nil {
		h.handleError(w, r, "get memory", err)
		return
	}
	response.JSON(w, http.StatusOK, m)
}

// Delete handles DELETE /memory/{id}
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	found, err := h.svc.Delete(ctx, id)
	if err != nil {
		h.handleError(w, r, "delete memory", err)
		return
	}
	if !found {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Memory not found", getRequestID(ctx))
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// Archive handles POST /memory/{id}/archive
func (h *MemoryHandler) Archive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	found, err := h.svc.Archive(ctx, id)
	if err != nil {
		h.handleError(w, r, "archive memory", err)
		return
	}
	if !found {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Memory not found", getRequestID(ctx))
		return
	}
	response.JSON(w, http.StatusOK, archiveResponse{ID: id, Archived: true})
}

// BulkDelete handles DELETE /memory/bulk
func (h *MemoryHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	project := q.Get("project")
	beforeDate := q.Get("before_date")
	if project == "" && beforeDate == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed,
			"At least one of project or before_date is required", getRequestID(ctx))
		return
	}

	count, err := h.svc.BulkDelete(ctx, project, beforeDate)
	if err != nil {
		h.handleError(w, r, "bulk delete", err)
		return
	}
	response.JSON(w, http.StatusOK, bulkDeleteResponse{Deleted: count})
}

// Stats handles GET /memory/stats
func (h *MemoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.handleError(w, r, "memory stats", err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

// Export handles GET /memory/export
func (h *MemoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	format := q.Get("format")
	if format == "" {
		format = memory.FormatJSON
	}

	data, err := h.svc.Export(ctx, format, memory.Filters{Project: q.Get("project")})
	if err != nil {
		h.handleError(w, r, "export memory", err)
		return
	}

	switch format {
	case memory.FormatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// Reembed handles POST /memory/reembed
func (h *MemoryHandler) Reembed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pageSize := 0
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}

	result, err := h.svc.ReembedMismatched(ctx, pageSize)
	if err != nil {
		h.handleError(w, r, "reembed memory", err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// handleError maps domain errors to HTTP responses and logs server faults.
func (h *MemoryHandler) handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	status, code := response.DomainStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("memory request failed", "op", op, "error", err)
	}
	response.Error(w, status, code, err.Error(), getRequestID(ctx))
}

// splitTags parses a comma-separated tag list, dropping empty entries.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
