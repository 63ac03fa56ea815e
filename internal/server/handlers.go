package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/danve93/Amber-sub001/internal/events"
	"github.com/danve93/Amber-sub001/internal/maintenance"
	"github.com/danve93/Amber-sub001/internal/recovery"
	"github.com/danve93/Amber-sub001/internal/types"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    types.ErrorCode `json:"code"`
	Message string          `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code types.ErrorCode, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// statusForCode maps store error codes onto HTTP statuses. Unknown codes are
// internal errors.
func statusForCode(code types.ErrorCode) int {
	switch code {
	case types.DOCUMENT_NOT_FOUND:
		return http.StatusNotFound
	case types.DOCUMENT_INVALID, ErrCodeRequestInvalid:
		return http.StatusBadRequest
	case maintenance.ErrCodeStatsUnavailable, recovery.ErrCodeEnumerationFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func storeError(w http.ResponseWriter, err error, message string) {
	code, ok := types.CodeOf(err)
	if !ok {
		code = types.INTERNAL_ERROR
	}
	writeError(w, statusForCode(code), code, message)
}

type queryRequest struct {
	Query    string `json:"query"`
	TenantID string `json:"tenant_id"`
}

// unroutedResponse tells the caller the query was handed to the general
// pipeline, which lives outside this core.
type unroutedResponse struct {
	Type   string `json:"type"`
	Routed string `json:"routed"`
}

// handleQuery routes a natural-language query. Structured queries are
// answered directly from graph metadata; everything else either goes to the
// configured fallback or is reported as routed to the general pipeline.
// POST /api/v1/query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeRequestInvalid, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, ErrCodeRequestInvalid, "query is required")
		return
	}
	if strings.TrimSpace(req.TenantID) == "" {
		writeError(w, http.StatusBadRequest, ErrCodeRequestInvalid, "tenant_id is required")
		return
	}

	ctx := r.Context()
	if answer, ok := s.deps.Router.Route(ctx, req.Query, req.TenantID); ok {
		writeJSON(w, http.StatusOK, answer)
		return
	}

	if s.deps.Fallback == nil {
		writeJSON(w, http.StatusOK, unroutedResponse{Type: "unstructured", Routed: "general"})
		return
	}

	result, err := s.deps.Fallback.Answer(ctx, req.Query, req.TenantID)
	if err != nil {
		s.traced.WithTenant(req.TenantID).Warn(ctx, "general pipeline failed", "error", err)
		writeError(w, http.StatusBadGateway, types.INTERNAL_ERROR, "general pipeline unavailable")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type createDocumentRequest struct {
	TenantID string `json:"tenant_id"`
	Filename string `json:"filename"`
}

// handleCreateDocument registers a document at the entry of the ingestion
// pipeline. The record starts in extracting; the external pipeline picks it
// up from there.
// POST /api/v1/documents
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeRequestInvalid, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		writeError(w, http.StatusBadRequest, ErrCodeRequestInvalid, "filename is required")
		return
	}
	tenantID, err := types.ParseID(req.TenantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeRequestInvalid, "tenant_id must be a valid ID")
		return
	}

	ctx := r.Context()
	doc := types.NewDocumentRecord(tenantID, req.Filename)
	if err := s.deps.Documents.Create(ctx, doc); err != nil {
		storeError(w, err, "cannot create document")
		return
	}

	// Best-effort; the record is already committed.
	event := events.StatusChangeEvent{
		DocumentID: doc.ID,
		TenantID:   doc.TenantID.String(),
		NewStatus:  doc.Status,
		Source:     events.SourcePipeline,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.deps.Publisher.Publish(ctx, events.TopicDocumentStatusChanged, event); err != nil {
		s.logger.WarnContext(ctx, "status change event publish failed",
			"document_id", doc.ID,
			"error", err,
		)
	}

	s.traced.WithTenant(doc.TenantID.String()).WithDocument(doc.ID).
		Info(ctx, "document accepted for ingestion", "filename", doc.Filename)

	writeJSON(w, http.StatusCreated, doc)
}

// handleGetDocument returns one document record.
// GET /api/v1/documents/{id}
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeRequestInvalid, "id must be a valid ID")
		return
	}

	doc, err := s.deps.Documents.GetByID(r.Context(), id)
	if err != nil {
		storeError(w, err, "cannot fetch document")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleStats returns the operator stats snapshot.
// GET /api/v1/admin/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Stats.Collect(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "stats collection failed", "error", err)
		storeError(w, err, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleRecover runs one on-demand recovery pass and returns its report.
// POST /api/v1/admin/recover
func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Recovery.Run(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "recovery pass failed", "error", err)
		storeError(w, err, "recovery pass failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleHealthz reports component health. Unhealthy components make the
// endpoint return 503; degraded ones keep it at 200 so load balancers only
// evict instances that cannot serve.
// GET /healthz
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snapshot := s.healthSnapshot(r.Context())

	status := http.StatusOK
	if snapshot.State == types.HealthStateUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, snapshot)
}
