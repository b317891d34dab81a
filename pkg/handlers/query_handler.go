// Package handlers exposes the HTTP surface: the query endpoint and
// health. Authentication sits in front of this layer and is not handled
// here; the tenant identity arrives as a header.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
	"github.com/querygate-io/querygate-engine/pkg/services"
)

// QueryRunner answers questions. services.QueryService satisfies this.
type QueryRunner interface {
	Ask(ctx context.Context, req services.AskRequest) (*services.AskResponse, error)
}

// QueryHandler serves POST /v1/query.
type QueryHandler struct {
	runner QueryRunner
	logger *zap.Logger
}

// NewQueryHandler creates the handler. If logger is nil, a no-op logger is
// used.
func NewQueryHandler(runner QueryRunner, logger *zap.Logger) *QueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryHandler{runner: runner, logger: logger}
}

// RegisterRoutes attaches the handler to the mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/query", h.handleQuery)
}

type queryRequest struct {
	Question string `json:"question"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *QueryHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get("X-Tenant-ID")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, errorResponse{Code: string(apperrors.CodeTenantInvalid), Message: "missing X-Tenant-ID header"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Code: "BAD_REQUEST", Message: "invalid JSON body"})
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, errorResponse{Code: "BAD_REQUEST", Message: "question is required"})
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	resp, err := h.runner.Ask(r.Context(), services.AskRequest{
		TenantID: tenantID,
		Question: req.Question,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeQueryError maps pipeline codes onto HTTP statuses. The raw model
// candidate is never part of any response; validation messages describe
// the rejection, not the SQL.
func (h *QueryHandler) writeQueryError(w http.ResponseWriter, err error) {
	var qe *apperrors.QueryError
	if !errors.As(err, &qe) {
		h.logger.Error("query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: "query failed"})
		return
	}

	status := http.StatusUnprocessableEntity
	switch {
	case qe.Code == apperrors.CodeTenantInvalid:
		status = http.StatusBadRequest
	case qe.Code == apperrors.CodeInternalRewriteLeak:
		status = http.StatusInternalServerError
	case apperrors.IsExecution(qe.Code):
		status = http.StatusBadGateway
	}

	h.logger.Warn("query rejected", zap.String("code", string(qe.Code)))
	writeError(w, status, errorResponse{Code: string(qe.Code), Message: qe.Message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	writeJSON(w, status, body)
}
