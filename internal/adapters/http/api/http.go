// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	service "github.com/okian/heatguard/internal/app"
	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/types"
	"github.com/okian/heatguard/pkg/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	Assess(ctx context.Context, obs model.Observation, profile *model.PatientProfile) (model.AssessmentResult, error)
	CreateAssessment(ctx context.Context, req service.CreateRequest) (model.Assessment, bool, error)
	ListPatientAssessments(ctx context.Context, patientID string, page, size int) (types.Page[model.Assessment], error)
	GetPatientAssessment(ctx context.Context, id, patientID string) (model.Assessment, error)
	ListAssessments(ctx context.Context, page, size int) (types.Page[model.Assessment], error)
	UpsertPatient(ctx context.Context, p model.Patient) (model.Patient, error)
	GetPatient(ctx context.Context, id string) (model.Patient, error)

	HealthProvider
	StatsProvider
}

// Server wires HTTP routes for the risk API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	assessHandler      *AssessHandler
	predictionsHandler *PredictionsHandler
	patientsHandler    *PatientsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{
		logger:   logger.Nop(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(deps),
		assessHandler:      NewAssessHandler(deps, cfg),
		predictionsHandler: NewPredictionsHandler(deps, cfg),
		patientsHandler:    NewPatientsHandler(deps, cfg),
	}
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/assess", MetricsMiddleware(s.assessHandler.HandleAssess, "assess"))

		r.Route("/predictions", func(r chi.Router) {
			r.Post("/", MetricsMiddleware(s.predictionsHandler.HandleCreate, "predictions_create"))
			r.Get("/all", MetricsMiddleware(s.predictionsHandler.HandleListAll, "predictions_all"))
			r.Get("/user/{userId}", MetricsMiddleware(s.predictionsHandler.HandleListByUser, "predictions_user"))
			r.Get("/{predictionId}/user/{userId}", MetricsMiddleware(s.predictionsHandler.HandleGetForUser, "predictions_get"))
		})

		r.Route("/patients/{patientId}", func(r chi.Router) {
			r.Put("/", MetricsMiddleware(s.patientsHandler.HandlePut, "patients_put"))
			r.Get("/", MetricsMiddleware(s.patientsHandler.HandleGet, "patients_get"))
		})
	})
}

// Router builds a chi router with every API route registered.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type serverConfig struct {
	logger   logger.Logger
	validate *validator.Validate
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps err and writes it. Server-side failures are logged.
func writeServiceError(ctx context.Context, l logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a bounded JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, validate *validator.Validate, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		return WrapKind(op, ErrBadRequest, validationMessage(err))
	}
	return nil
}
