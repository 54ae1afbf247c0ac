package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handler holds the HTTP handlers for the status API.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler backed by svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListRuns handles GET /runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := h.svc.ListRuns(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// LatestRun handles GET /runs/latest.
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.LatestRun(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no runs recorded"))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// TriggerRun handles POST /runs.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.TriggerRun(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListTopics handles GET /topics.
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	labels, err := h.svc.ListTopics(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	if labels == nil {
		labels = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": labels})
}

// GetTopic handles GET /topics/{name}.
func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := h.svc.ReadTopic(r.Context(), name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("topic not found"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
