package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/helixdata-ai/query-engine/internal/audit"
	"github.com/helixdata-ai/query-engine/internal/observability"
)

// AuditHandler exposes the query audit trail.
type AuditHandler struct {
	logger *observability.Logger
	store  *audit.Store
}

// NewAuditHandler creates a new audit handler. store may be nil when auditing
// is disabled; requests then return 404.
func NewAuditHandler(logger *observability.Logger, store *audit.Store) *AuditHandler {
	return &AuditHandler{logger: logger, store: store}
}

// Recent handles GET /api/v1/audit/recent.
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusNotFound, "auditing is not enabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list audit entries")
		h.writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"entries": entries}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// GetByID handles GET /api/v1/audit/{id}.
func (h *AuditHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusNotFound, "auditing is not enabled")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid audit id")
		return
	}

	entry, err := h.store.GetByID(r.Context(), id)
	if errors.Is(err, audit.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "audit entry not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load audit entry")
		h.writeError(w, http.StatusInternalServerError, "failed to load audit entry")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entry); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *AuditHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
