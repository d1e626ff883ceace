// Package handlers provides HTTP handlers for the Query Engine API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
	"github.com/helixdata-ai/query-engine/internal/pipeline"
	"github.com/helixdata-ai/query-engine/internal/schema"
)

// QueryHandler handles natural-language query requests.
type QueryHandler struct {
	logger        *observability.Logger
	engine        *pipeline.Engine
	defaultSchema *schema.Context
}

// NewQueryHandler creates a new query handler. defaultSchema may be nil; it
// backs requests that omit their own schema text.
func NewQueryHandler(logger *observability.Logger, engine *pipeline.Engine, defaultSchema *schema.Context) *QueryHandler {
	return &QueryHandler{
		logger:        logger,
		engine:        engine,
		defaultSchema: defaultSchema,
	}
}

// QueryRequestDTO represents the API request for a query.
type QueryRequestDTO struct {
	UserRequest        string `json:"userRequest"`
	SchemaText         string `json:"schemaText,omitempty"`
	Limit              int64  `json:"limit,omitempty"`
	IncludeAggregation bool   `json:"includeAggregation,omitempty"`
	JoinStrategy       string `json:"joinStrategy,omitempty"`
}

// Query handles POST /api/v1/query.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse request body
	var reqDTO QueryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	// Validate required fields
	if reqDTO.UserRequest == "" {
		h.writeError(w, http.StatusBadRequest, "userRequest is required", "")
		return
	}

	schemaText := reqDTO.SchemaText
	if schemaText == "" && h.defaultSchema != nil {
		schemaText = h.defaultSchema.Text()
	}
	if schemaText == "" {
		h.writeError(w, http.StatusBadRequest, "schemaText is required and no default schema is configured", "")
		return
	}

	req := domain.Request{
		UserRequest:        reqDTO.UserRequest,
		SchemaText:         schemaText,
		Limit:              reqDTO.Limit,
		IncludeAggregation: reqDTO.IncludeAggregation,
		JoinStrategy:       reqDTO.JoinStrategy,
	}

	// Run returns a JSON document in both the success and failure cases, so
	// the HTTP status reflects the outcome but the body is always usable.
	resp, err := h.engine.Execute(ctx, req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Query failed")
		h.writeError(w, statusFor(err), "query failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// statusFor maps pipeline error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrorKindInputValidation:
		return http.StatusBadRequest
	case domain.ErrorKindModelInvocation:
		return http.StatusBadGateway
	case domain.ErrorKindNoQuerySpec, domain.ErrorKindMalformedQuerySpec, domain.ErrorKindMissingCollection:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *QueryHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]string{
		"error": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode error response")
	}
}
