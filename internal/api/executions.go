package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// GET /v1/scenarios/{scenarioId}/executions: summaries, newest first.
func (h *Handler) listExecutions(w http.ResponseWriter, r *http.Request) {
	list, err := h.History.GetExecutions(r.Context(), r.PathValue("scenarioId"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /v1/executions/{executionId}/summary
func (h *Handler) getExecutionSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := executionID(w, r)
	if !ok {
		return
	}
	sum, err := h.History.GetExecutionSummary(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /v1/scenarios/{scenarioId}/executions/{executionId}: full record, empty dataset removed.
func (h *Handler) getExecution(w http.ResponseWriter, r *http.Request) {
	id, ok := executionID(w, r)
	if !ok {
		return
	}
	e, err := h.History.GetExecution(r.Context(), r.PathValue("scenarioId"), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DELETE /v1/executions/{executionId}
func (h *Handler) deleteExecution(w http.ResponseWriter, r *http.Request) {
	id, ok := executionID(w, r)
	if !ok {
		return
	}
	if err := h.History.DeleteExecutions(r.Context(), []int64{id}); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteExecutionsRequest struct {
	IDs []int64 `json:"ids"`
}

// POST /v1/executions/delete: bulk delete by id set.
func (h *Handler) deleteExecutions(w http.ResponseWriter, r *http.Request) {
	var req deleteExecutionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.History.DeleteExecutions(r.Context(), req.IDs); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func executionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("executionId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid execution id %q", raw))
		return 0, false
	}
	return id, true
}
