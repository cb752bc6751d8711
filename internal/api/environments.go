package api

import (
	"net/http"
	"strconv"

	"github.com/RedouaeElalami/chutney/internal/environment"
)

// Environment responses never carry target passwords.
func (h *Handler) listEnvironments(w http.ResponseWriter, r *http.Request) {
	envs, err := h.Environments.ListEnvironments(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	out := make([]environment.Environment, len(envs))
	for i, env := range envs {
		out[i] = env.WithoutSecrets()
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /v1/environments?force=true: force replaces an existing environment.
func (h *Handler) createEnvironment(w http.ResponseWriter, r *http.Request) {
	var env environment.Environment
	if err := decodeJSON(w, r, &env); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	created, err := h.Environments.CreateEnvironment(r.Context(), env, force)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created.WithoutSecrets())
}

func (h *Handler) getEnvironment(w http.ResponseWriter, r *http.Request) {
	env, err := h.Environments.GetEnvironment(r.Context(), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, env.WithoutSecrets())
}

func (h *Handler) updateEnvironment(w http.ResponseWriter, r *http.Request) {
	var env environment.Environment
	if err := decodeJSON(w, r, &env); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.Environments.UpdateEnvironment(r.Context(), r.PathValue("name"), env)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated.WithoutSecrets())
}

func (h *Handler) deleteEnvironment(w http.ResponseWriter, r *http.Request) {
	if err := h.Environments.DeleteEnvironment(r.Context(), r.PathValue("name")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
