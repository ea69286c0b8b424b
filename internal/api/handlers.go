package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/starford/raido/internal/history"
	"github.com/starford/raido/internal/hooks"
	"github.com/starford/raido/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	runner  *hooks.Runner
	hist    history.Store
	command string
	timeout time.Duration
}

// NewHandler creates a new Handler. hist may be nil when history is disabled.
func NewHandler(runner *hooks.Runner, hist history.Store, command string, timeout time.Duration) *Handler {
	return &Handler{runner: runner, hist: hist, command: command, timeout: timeout}
}

// StatusResponse is the GET /api/status payload.
type StatusResponse struct {
	PendingEdits bool             `json:"pending_edits"`
	Rules        int              `json:"rules"`
	LastCheck    *models.CheckRow `json:"last_check,omitempty"`
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		PendingEdits: h.runner.HasPending(),
		Rules:        h.runner.RuleCount(),
	}
	if h.hist != nil {
		last, err := h.hist.LastCheck()
		if err != nil {
			slog.Warn("status: last check lookup failed", slog.String("error", err.Error()))
		} else {
			resp.LastCheck = last
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /api/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.hist == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	checks, err := h.hist.RecentChecks(limit)
	if err != nil {
		slog.Error("history list failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if checks == nil {
		checks = []models.CheckRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"checks": checks})
}

// Activations handles GET /api/activations.
func (h *Handler) Activations(w http.ResponseWriter, r *http.Request) {
	if h.hist == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	acts, err := h.hist.RecentActivations(limit)
	if err != nil {
		slog.Error("activation list failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if acts == nil {
		acts = []models.ActivationRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activations": acts})
}

// Rules handles GET /api/rules.
func (h *Handler) Rules(w http.ResponseWriter, _ *http.Request) {
	names := h.runner.RuleNames()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": names})
}

// Check handles POST /api/check: a manual session-end check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	rendered := h.runner.SessionEnd(r.Context(), h.command, h.timeout)
	if rendered == "" {
		writeJSON(w, http.StatusOK, map[string]any{"skipped": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skipped": false, "report": rendered})
}
