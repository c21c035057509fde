package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/types"
)

// MemoryStore keeps everything in process memory. Contents are lost on
// restart.
type MemoryStore struct {
	cfg storeConfig

	mu          sync.RWMutex
	assessments map[string]model.Assessment
	byPatient   map[string][]string // patient id -> assessment ids
	patients    map[string]model.Patient
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{
		cfg:         cfg,
		assessments: make(map[string]model.Assessment),
		byPatient:   make(map[string][]string),
		patients:    make(map[string]model.Patient),
	}
}

func (s *MemoryStore) Save(_ context.Context, a model.Assessment) (err error) {
	start := time.Now()
	defer func() { observe("save", start, err) }()
	if err := validateAssessment(a); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assessments[a.ID]; exists {
		return fmt.Errorf("%w: assessment %s", ErrConflict, a.ID)
	}
	s.assessments[a.ID] = persisted(a)
	s.byPatient[a.PatientID] = append(s.byPatient[a.PatientID], a.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Assessment, error) {
	defer observe("get", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assessments[id]
	if !ok {
		return model.Assessment{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) GetForPatient(ctx context.Context, id, patientID string) (model.Assessment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return model.Assessment{}, err
	}
	if a.PatientID != patientID {
		return model.Assessment{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) ListByPatient(_ context.Context, patientID string, req types.PageRequest) (types.Page[model.Assessment], error) {
	defer observe("list_patient", time.Now(), nil)
	s.mu.RLock()
	ids := s.byPatient[patientID]
	items := make([]model.Assessment, 0, len(ids))
	for _, id := range ids {
		items = append(items, s.assessments[id])
	}
	s.mu.RUnlock()

	sortNewestFirst(items)
	return types.Slice(items, req), nil
}

func (s *MemoryStore) ListAll(_ context.Context, req types.PageRequest) (types.Page[model.Assessment], error) {
	defer observe("list_all", time.Now(), nil)
	s.mu.RLock()
	items := make([]model.Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		items = append(items, a)
	}
	s.mu.RUnlock()

	sortNewestFirst(items)
	return types.Slice(items, req), nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assessments), nil
}

func (s *MemoryStore) UpsertPatient(_ context.Context, p model.Patient) (model.Patient, error) {
	defer observe("upsert_patient", time.Now(), nil)
	if err := validatePatient(p); err != nil {
		return model.Patient{}, err
	}
	p.UpdatedAt = s.cfg.now().UTC()

	s.mu.Lock()
	s.patients[p.ID] = p
	s.mu.Unlock()
	return p, nil
}

func (s *MemoryStore) GetPatient(_ context.Context, id string) (model.Patient, error) {
	defer observe("get_patient", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	if !ok {
		return model.Patient{}, ErrNotFound
	}
	return p, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
