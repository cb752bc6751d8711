package api

import (
	"net/http"

	"github.com/RedouaeElalami/chutney/internal/dataset"
)

func (h *Handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	all, err := h.Datasets.FindAll(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *Handler) saveDataset(w http.ResponseWriter, r *http.Request) {
	var ds dataset.DataSet
	if err := decodeJSON(w, r, &ds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.Datasets.Save(r.Context(), ds)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) getDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Datasets.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (h *Handler) deleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.Datasets.RemoveByID(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
