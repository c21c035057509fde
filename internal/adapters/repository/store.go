// Package repository persists risk assessments and patient profiles.
package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/types"
	"github.com/okian/heatguard/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Driver names accepted by configuration.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// probabilityPlaces is the precision probabilities are persisted with.
const probabilityPlaces = 4

// AssessmentStore persists assessment records. Listings are ordered by
// assessment time, newest first.
type AssessmentStore interface {
	// Save inserts a new assessment. Returns ErrConflict on a reused id.
	Save(ctx context.Context, a model.Assessment) error
	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id string) (model.Assessment, error)
	// GetForPatient returns ErrNotFound unless id belongs to patientID.
	GetForPatient(ctx context.Context, id, patientID string) (model.Assessment, error)
	ListByPatient(ctx context.Context, patientID string, req types.PageRequest) (types.Page[model.Assessment], error)
	ListAll(ctx context.Context, req types.PageRequest) (types.Page[model.Assessment], error)
	Count(ctx context.Context) (int, error)
}

// PatientStore persists patient profiles.
type PatientStore interface {
	// UpsertPatient creates or replaces the patient and returns the stored row.
	UpsertPatient(ctx context.Context, p model.Patient) (model.Patient, error)
	// GetPatient returns ErrNotFound for an unknown id.
	GetPatient(ctx context.Context, id string) (model.Patient, error)
}

// Store is the full persistence port.
type Store interface {
	AssessmentStore
	PatientStore
	Close() error
}

// round4 rounds a probability to the persisted precision.
func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(probabilityPlaces).InexactFloat64()
}

// persisted returns a with its probabilities and confidence rounded the way
// every store keeps them.
func persisted(a model.Assessment) model.Assessment {
	a.Result.Confidence = round4(a.Result.Confidence)
	a.Result.Probabilities = model.Probabilities{
		High:   round4(a.Result.Probabilities.High),
		Medium: round4(a.Result.Probabilities.Medium),
		Low:    round4(a.Result.Probabilities.Low),
	}
	return a
}

func validateAssessment(a model.Assessment) error {
	switch {
	case strings.TrimSpace(a.ID) == "":
		return fmt.Errorf("%w: assessment id is empty", ErrInvalid)
	case strings.TrimSpace(a.PatientID) == "":
		return fmt.Errorf("%w: patient id is empty", ErrInvalid)
	case a.AssessedAt.IsZero():
		return fmt.Errorf("%w: assessment time is zero", ErrInvalid)
	}
	return nil
}

func validatePatient(p model.Patient) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: patient id is empty", ErrInvalid)
	}
	return nil
}

// sortNewestFirst orders by assessment time descending, then id descending.
func sortNewestFirst(items []model.Assessment) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].AssessedAt.Equal(items[j].AssessedAt) {
			return items[i].AssessedAt.After(items[j].AssessedAt)
		}
		return items[i].ID > items[j].ID
	})
}

// observe records latency and outcome of a store operation.
func observe(op string, start time.Time, err error) {
	metrics.RecordStoreOperation(op, float64(time.Since(start).Microseconds())/1000, err)
}
