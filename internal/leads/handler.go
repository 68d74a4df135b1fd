package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// Handler serves the read-only admin view of stored leads.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Submission `json:"leads"`
	Count  int           `json:"count"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// ListLeads handles GET /admin/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  50,
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	if raw := r.URL.Query().Get("variant"); raw != "" {
		variant, err := ParseVariant(raw)
		if err != nil {
			writeJSONError(w, "unknown variant", http.StatusBadRequest)
			return
		}
		filter.Variant = variant
	}

	leads, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err, "variant", filter.Variant)
		writeJSONError(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{
		Leads:  leads,
		Count:  len(leads),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

// GetLead handles GET /admin/leads/{leadID}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "leadID")
	if id == "" {
		writeJSONError(w, "missing lead id", http.StatusBadRequest)
		return
	}
	lead, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			writeJSONError(w, "lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch lead", "error", err, "lead_id", id)
		writeJSONError(w, "failed to fetch lead", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
