package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/heatguard/pkg/logger"
)

// AssessHandler runs stateless assessments.
type AssessHandler struct {
	deps     Dependencies
	log      logger.Logger
	validate *validator.Validate
}

// NewAssessHandler creates a new assess handler.
func NewAssessHandler(deps Dependencies, cfg serverConfig) *AssessHandler {
	return &AssessHandler{deps: deps, log: cfg.logger, validate: cfg.validate}
}

// HandleAssess handles POST /api/assess. Nothing is persisted.
func (h *AssessHandler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	const op = "api.assess"

	var req assessRequest
	if err := decodeJSON(w, r, h.validate, op, &req); err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}

	res, err := h.deps.Assess(r.Context(), req.toModel(), req.profile())
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
