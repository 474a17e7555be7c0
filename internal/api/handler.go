// Package api is the control surface the GUI layer (or curl) drives the
// runner through. It only reads engine state and forwards control
// requests; all sequencing decisions stay in the runner.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ebeam-labs/epirun/internal/action"
	"github.com/ebeam-labs/epirun/internal/recipe"
	"github.com/ebeam-labs/epirun/internal/runner"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	run *runner.Runner
	reg *action.Registry
	lib *recipe.Library
	mux *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(run *runner.Runner, reg *action.Registry, lib *recipe.Library) http.Handler {
	h := &Handler{run: run, reg: reg, lib: lib, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/runs", h.startRun)
	h.mux.HandleFunc("GET /v1/runs/current", h.currentRun)
	h.mux.HandleFunc("POST /v1/runs/current/pause", h.control(run.Pause))
	h.mux.HandleFunc("POST /v1/runs/current/resume", h.control(run.Resume))
	h.mux.HandleFunc("POST /v1/runs/current/abort", h.control(run.Abort))
	h.mux.HandleFunc("GET /v1/recipes", h.listRecipes)
	h.mux.HandleFunc("POST /v1/recipes/reload", h.reloadRecipes)
	h.mux.HandleFunc("GET /v1/actions", h.listActions)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

type startRunRequest struct {
	Recipe string `json:"recipe"`
}

// POST /v1/runs — load a recipe from the library and start it.
func (h *Handler) startRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Recipe == "" {
		writeError(w, http.StatusBadRequest, "recipe name is required")
		return
	}
	rec, ok := h.lib.Get(req.Recipe)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("recipe %q not found", req.Recipe))
		return
	}
	if err := h.run.Load(rec.Name, rec.Steps); err != nil {
		status := http.StatusUnprocessableEntity
		if h.run.Progress().State.Active() {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	if err := h.run.Start(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id": h.run.Progress().RunID,
		"recipe": rec.Name,
		"steps":  len(rec.Steps),
	})
}

// GET /v1/runs/current — progress snapshot.
func (h *Handler) currentRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.run.Progress())
}

// control adapts a runner control method into a handler.
func (h *Handler) control(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, h.run.Progress())
	}
}

// GET /v1/recipes — list loaded recipes.
func (h *Handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"recipes": h.lib.Names(),
	})
}

// POST /v1/recipes/reload — re-read the recipe directory.
func (h *Handler) reloadRecipes(w http.ResponseWriter, r *http.Request) {
	if err := h.lib.Reload(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded": true,
		"recipes":  h.lib.Names(),
	})
}

// GET /v1/actions — registered action types.
func (h *Handler) listActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"actions": h.reg.Types(),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — ready once the recipe library is loaded.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"recipes": len(h.lib.Names()),
		"runner":  h.run.Progress().State,
	})
}
