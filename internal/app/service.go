// Package service orchestrates risk assessments: it resolves patient
// profiles, runs the assessment engine, persists results and keeps
// idempotency state for the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/heatguard/internal/adapters/repository"
	"github.com/okian/heatguard/internal/domain/assess"
	"github.com/okian/heatguard/internal/domain/dedupe"
	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/normalize"
	"github.com/okian/heatguard/internal/domain/oracle"
	"github.com/okian/heatguard/internal/domain/types"
	"github.com/okian/heatguard/pkg/logger"
	"github.com/okian/heatguard/pkg/metrics"
)

// Assessor runs the assessment pipeline. *assess.Engine satisfies it.
type Assessor interface {
	AssessRiskTrace(obs model.Observation, profile *model.PatientProfile) (model.AssessmentResult, assess.Trace, error)
}

// CreateRequest is a persisted assessment request.
type CreateRequest struct {
	PatientID   string
	Observation model.Observation
	Notes       string
	// IdempotencyKey, when set, makes retries return the first result.
	IdempotencyKey string
}

// Service implements the API dependencies for the risk system.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine   Assessor
	store    repository.Store
	index    dedupe.Index
	profiles *lru.Cache[string, model.Patient]

	// Configuration
	modelVersion     string
	storeDriver      string
	idempotencySize  int
	profileCacheSize int
	defaultPageSize  int
	maxPageSize      int
	now              func() time.Time
	newID            func() string

	// State
	started   bool
	startedAt time.Time
	created   atomic.Int64
	replayed  atomic.Int64

	logger logger.Logger
}

// New constructs a Service around an engine and a store. Call Start before
// use.
func New(engine Assessor, store repository.Store, opts ...Option) *Service {
	s := &Service{
		engine:           engine,
		store:            store,
		storeDriver:      repository.DriverMemory,
		idempotencySize:  50000,
		profileCacheSize: 1024,
		defaultPageSize:  20,
		maxPageSize:      100,
		now:              time.Now,
		newID:            uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the idempotency index and profile cache.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.engine == nil || s.store == nil {
		return fmt.Errorf("%w: engine and store are required", ErrInvalidRequest)
	}

	cache, err := lru.New[string, model.Patient](s.profileCacheSize)
	if err != nil {
		return fmt.Errorf("create profile cache: %w", err)
	}
	s.profiles = cache
	s.index = dedupe.NewInMemoryIndex(dedupe.WithMaxSize(s.idempotencySize))

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "risk service started",
		logger.String("model", s.modelVersion),
		logger.String("store", s.storeDriver),
		logger.Int("idempotencySize", s.idempotencySize),
		logger.Int("profileCacheSize", s.profileCacheSize),
	)
	return nil
}

// Stop closes the store. The service cannot be restarted.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "risk service stopped")
}

// Ready reports whether the service accepts requests.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// ModelVersion returns the identifier of the loaded model.
func (s *Service) ModelVersion() string { return s.modelVersion }

func (s *Service) ensureStarted() error {
	if !s.Ready() {
		return ErrNotStarted
	}
	return nil
}

// Assess evaluates an observation without persisting anything.
func (s *Service) Assess(ctx context.Context, obs model.Observation, profile *model.PatientProfile) (model.AssessmentResult, error) {
	if err := s.ensureStarted(); err != nil {
		return model.AssessmentResult{}, err
	}
	s.logger.Debug(ctx, "stateless assessment requested", logger.Bool("profile", profile != nil))
	return s.run(ctx, obs, profile)
}

// run executes the engine and records outcome metrics.
func (s *Service) run(ctx context.Context, obs model.Observation, profile *model.PatientProfile) (model.AssessmentResult, error) {
	start := time.Now()
	res, trace, err := s.engine.AssessRiskTrace(obs, profile)
	elapsed := time.Since(start)

	var (
		missing *normalize.MissingRequiredFieldError
		invoke  *oracle.ModelInvocationError
	)
	switch {
	case errors.As(err, &missing):
		metrics.RecordInputError(missing.Field)
		return model.AssessmentResult{}, err
	case errors.As(err, &invoke):
		metrics.RecordOracleError()
		s.logger.Error(ctx, "model invocation failed", logger.Error(err))
		return model.AssessmentResult{}, err
	case err != nil:
		return model.AssessmentResult{}, err
	}

	if trace.OracleLatency > 0 {
		metrics.RecordOracleLatency(float64(trace.OracleLatency) / float64(time.Millisecond))
	}
	metrics.RecordAssessment(string(res.Level))
	metrics.RecordImputed(trace.Imputed)
	s.logger.Debug(ctx, "assessment computed",
		logger.String("level", string(res.Level)),
		logger.Float64("confidence", res.Confidence),
		logger.Strings("imputed", trace.Imputed),
		logger.Duration("elapsed", elapsed),
	)
	return res, nil
}

// CreateAssessment assesses an observation for a stored patient and
// persists the result. The returned flag is true when the result was
// replayed for a repeated idempotency key.
func (s *Service) CreateAssessment(ctx context.Context, req CreateRequest) (model.Assessment, bool, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Assessment{}, false, err
	}
	if strings.TrimSpace(req.PatientID) == "" {
		return model.Assessment{}, false, fmt.Errorf("%w: patient id is required", ErrInvalidRequest)
	}

	id := s.newID()
	if req.IdempotencyKey != "" {
		bound, seen := s.index.Claim(ctx, req.IdempotencyKey, id)
		if seen {
			return s.replay(ctx, req, bound)
		}
	}

	a, err := s.create(ctx, id, req)
	if err != nil {
		if req.IdempotencyKey != "" {
			s.index.Release(ctx, req.IdempotencyKey)
		}
		return model.Assessment{}, false, err
	}
	return a, false, nil
}

func (s *Service) replay(ctx context.Context, req CreateRequest, id string) (model.Assessment, bool, error) {
	a, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Assessment{}, false, ErrIdempotencyInFlight
	}
	if err != nil {
		return model.Assessment{}, false, err
	}
	if a.PatientID != req.PatientID {
		return model.Assessment{}, false, fmt.Errorf("%w: idempotency key reused for another patient", ErrInvalidRequest)
	}

	s.replayed.Add(1)
	metrics.RecordIdempotentReplay()
	s.logger.Debug(ctx, "idempotent replay",
		logger.String("assessmentId", a.ID),
		logger.String("patientId", a.PatientID),
	)
	return a, true, nil
}

func (s *Service) create(ctx context.Context, id string, req CreateRequest) (model.Assessment, error) {
	patient, err := s.patient(ctx, req.PatientID)
	if err != nil {
		return model.Assessment{}, err
	}
	profile := patient.Profile()

	res, err := s.run(ctx, req.Observation, &profile)
	if err != nil {
		return model.Assessment{}, err
	}

	a := model.Assessment{
		ID:               id,
		PatientID:        req.PatientID,
		DehydrationLevel: req.Observation.DehydrationLevel,
		HeatIndex:        req.Observation.HeatIndex,
		Result:           res,
		ModelVersion:     s.modelVersion,
		AssessedAt:       s.now().UTC(),
		Notes:            req.Notes,
	}
	// Required readings are present once the engine succeeded.
	a.Temperature = *req.Observation.Temperature
	a.Humidity = *req.Observation.Humidity
	a.Pulse = *req.Observation.Pulse

	if err := s.store.Save(ctx, a); err != nil {
		return model.Assessment{}, fmt.Errorf("save assessment: %w", err)
	}
	s.created.Add(1)

	// Reload so callers see the persisted (rounded) values.
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Assessment{}, fmt.Errorf("reload assessment: %w", err)
	}
	s.logger.Info(ctx, "assessment stored",
		logger.String("assessmentId", stored.ID),
		logger.String("patientId", stored.PatientID),
		logger.String("level", string(stored.Result.Level)),
		logger.Float64("confidence", stored.Result.Confidence),
	)
	return stored, nil
}

// patient resolves a patient through the profile cache.
func (s *Service) patient(ctx context.Context, id string) (model.Patient, error) {
	if p, ok := s.profiles.Get(id); ok {
		metrics.RecordProfileCacheLookup(true)
		return p, nil
	}
	metrics.RecordProfileCacheLookup(false)

	p, err := s.store.GetPatient(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Patient{}, fmt.Errorf("%w: %s", ErrPatientNotFound, id)
	}
	if err != nil {
		return model.Patient{}, fmt.Errorf("load patient: %w", err)
	}
	s.profiles.Add(id, p)
	return p, nil
}

// PageRequest resolves raw page parameters. A zero size selects the
// default and sizes above the maximum are capped.
func (s *Service) PageRequest(page, size int) (types.PageRequest, error) {
	if page < 0 || size < 0 {
		return types.PageRequest{}, fmt.Errorf("%w: page=%d size=%d", ErrInvalidPage, page, size)
	}
	if size == 0 {
		size = s.defaultPageSize
	}
	return types.PageRequest{Page: page, Size: min(size, s.maxPageSize)}, nil
}

// ListPatientAssessments returns a patient's assessments, newest first.
func (s *Service) ListPatientAssessments(ctx context.Context, patientID string, page, size int) (types.Page[model.Assessment], error) {
	if err := s.ensureStarted(); err != nil {
		return types.Page[model.Assessment]{}, err
	}
	req, err := s.PageRequest(page, size)
	if err != nil {
		return types.Page[model.Assessment]{}, err
	}
	s.logger.Debug(ctx, "listing patient assessments",
		logger.String("patientId", patientID),
		logger.Int("page", req.Page),
		logger.Int("size", req.Size),
	)
	return s.store.ListByPatient(ctx, patientID, req)
}

// GetPatientAssessment returns one assessment if it belongs to patientID.
func (s *Service) GetPatientAssessment(ctx context.Context, id, patientID string) (model.Assessment, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Assessment{}, err
	}
	a, err := s.store.GetForPatient(ctx, id, patientID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Assessment{}, fmt.Errorf("%w: %s", ErrAssessmentNotFound, id)
	}
	return a, err
}

// ListAssessments returns all assessments, newest first.
func (s *Service) ListAssessments(ctx context.Context, page, size int) (types.Page[model.Assessment], error) {
	if err := s.ensureStarted(); err != nil {
		return types.Page[model.Assessment]{}, err
	}
	req, err := s.PageRequest(page, size)
	if err != nil {
		return types.Page[model.Assessment]{}, err
	}
	return s.store.ListAll(ctx, req)
}

// UpsertPatient stores a patient profile and drops its cached copy.
func (s *Service) UpsertPatient(ctx context.Context, p model.Patient) (model.Patient, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Patient{}, err
	}
	if strings.TrimSpace(p.ID) == "" {
		return model.Patient{}, fmt.Errorf("%w: patient id is required", ErrInvalidRequest)
	}

	stored, err := s.store.UpsertPatient(ctx, p)
	if err != nil {
		return model.Patient{}, fmt.Errorf("upsert patient: %w", err)
	}
	s.profiles.Remove(p.ID)
	s.logger.Info(ctx, "patient upserted", logger.String("patientId", p.ID))
	return stored, nil
}

// GetPatient returns a stored patient profile.
func (s *Service) GetPatient(ctx context.Context, id string) (model.Patient, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Patient{}, err
	}
	return s.patient(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":          s.started,
		"model":            s.modelVersion,
		"store":            s.storeDriver,
		"idempotencySize":  s.idempotencySize,
		"profileCacheSize": s.profileCacheSize,
	}
	if !s.started {
		return stats
	}

	stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())
	stats["createdSinceStart"] = s.created.Load()
	stats["idempotentReplays"] = s.replayed.Load()
	stats["idempotencyKeys"] = s.index.Size()
	stats["cachedProfiles"] = s.profiles.Len()
	if n, err := s.store.Count(context.Background()); err == nil {
		stats["assessmentsStored"] = n
	}
	return stats
}
