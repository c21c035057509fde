package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/okian/heatguard/pkg/logger"
)

// PatientsHandler manages patient profiles.
type PatientsHandler struct {
	deps     Dependencies
	log      logger.Logger
	validate *validator.Validate
}

// NewPatientsHandler creates a new patients handler.
func NewPatientsHandler(deps Dependencies, cfg serverConfig) *PatientsHandler {
	return &PatientsHandler{deps: deps, log: cfg.logger, validate: cfg.validate}
}

// HandlePut handles PUT /api/patients/{patientId}.
func (h *PatientsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.patients.put"

	id := strings.TrimSpace(chi.URLParam(r, "patientId"))
	var req patientRequest
	if err := decodeJSON(w, r, h.validate, op, &req); err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}

	p, err := h.deps.UpsertPatient(r.Context(), req.toModel(id))
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newPatientResponse(p))
}

// HandleGet handles GET /api/patients/{patientId}.
func (h *PatientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.patients.get"

	p, err := h.deps.GetPatient(r.Context(), chi.URLParam(r, "patientId"))
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newPatientResponse(p))
}
