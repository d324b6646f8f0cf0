package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

func (h *Handler) GetAllExperiments(w http.ResponseWriter, r *http.Request) {
	experiments, err := h.repository.GetAllExperiments(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Experimentos obtenidos", experiments)
}

func (h *Handler) GetExperiment(w http.ResponseWriter, r *http.Request) {
	exp := r.Context().Value(ExperimentCtx).(*domain.Experiment)

	h.successResponse(w, r, "Experimento obtenido", exp)
}

func (h *Handler) DeleteExperiment(w http.ResponseWriter, r *http.Request) {
	exp := r.Context().Value(ExperimentCtx).(*domain.Experiment)

	if err := h.repository.DeleteExperiment(r.Context(), exp.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "El experimento no existe")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Experimento eliminado", nil)
}
