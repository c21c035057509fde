package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	service "github.com/okian/heatguard/internal/app"
	"github.com/okian/heatguard/pkg/logger"
)

// Idempotency headers.
const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

// PredictionsHandler serves stored assessments.
type PredictionsHandler struct {
	deps     Dependencies
	log      logger.Logger
	validate *validator.Validate
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps Dependencies, cfg serverConfig) *PredictionsHandler {
	return &PredictionsHandler{deps: deps, log: cfg.logger, validate: cfg.validate}
}

// HandleCreate handles POST /api/predictions. New assessments answer 201;
// a replayed idempotency key answers 200 with the original assessment.
func (h *PredictionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.predictions.create"

	var req createPredictionRequest
	if err := decodeJSON(w, r, h.validate, op, &req); err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	if key == "" {
		key = strings.TrimSpace(req.IdempotencyKey)
	}
	if len(key) > 128 {
		writeError(w, http.StatusBadRequest, codeBadRequest, nil)
		return
	}

	a, replayed, err := h.deps.CreateAssessment(r.Context(), service.CreateRequest{
		PatientID:      strings.TrimSpace(req.PatientID),
		Observation:    req.toModel(),
		Notes:          req.Notes,
		IdempotencyKey: key,
	})
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}

	if replayed {
		w.Header().Set(headerReplayed, "true")
		writeJSON(w, http.StatusOK, newAssessmentResponse(a))
		return
	}
	w.Header().Set("Location", "/api/predictions/"+a.ID+"/user/"+a.PatientID)
	writeJSON(w, http.StatusCreated, newAssessmentResponse(a))
}

// HandleListByUser handles GET /api/predictions/user/{userId}.
func (h *PredictionsHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.predictions.list_user"

	page, size, err := pageParams(r)
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	p, err := h.deps.ListPatientAssessments(r.Context(), chi.URLParam(r, "userId"), page, size)
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageResponse(p))
}

// HandleGetForUser handles GET /api/predictions/{predictionId}/user/{userId}.
func (h *PredictionsHandler) HandleGetForUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.predictions.get"

	a, err := h.deps.GetPatientAssessment(r.Context(), chi.URLParam(r, "predictionId"), chi.URLParam(r, "userId"))
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssessmentResponse(a))
}

// HandleListAll handles GET /api/predictions/all.
func (h *PredictionsHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	const op = "api.predictions.list_all"

	page, size, err := pageParams(r)
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	p, err := h.deps.ListAssessments(r.Context(), page, size)
	if err != nil {
		writeServiceError(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageResponse(p))
}

func pageParams(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	page, err := queryInt(q.Get("page"), "page")
	if err != nil {
		return 0, 0, err
	}
	size, err := queryInt(q.Get("size"), "size")
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}
