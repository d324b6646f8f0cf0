package handler

import (
	"net/http"

	"github.com/isc-horarios/timetable/backend/internal/utils"
)

func (h *Handler) ValidateReferenceData(w http.ResponseWriter, r *http.Request) {
	ref, err := h.repository.LoadReferenceData(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	report := utils.ValidateReferenceData(ref)
	if !report.Valid {
		h.successResponse(w, r, "Se encontraron problemas en los datos", report)
		return
	}

	h.successResponse(w, r, "Datos listos para generar horarios", report)
}
