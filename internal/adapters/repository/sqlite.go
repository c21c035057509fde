package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/types"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS patients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	gender TEXT NOT NULL DEFAULT '',
	height_cm REAL,
	weight_kg REAL,
	bmi REAL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	temperature REAL NOT NULL,
	humidity REAL NOT NULL,
	pulse REAL NOT NULL,
	dehydration_level REAL,
	heat_index REAL,
	features TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	confidence REAL NOT NULL,
	prob_high REAL NOT NULL,
	prob_medium REAL NOT NULL,
	prob_low REAL NOT NULL,
	model_version TEXT NOT NULL DEFAULT '',
	assessed_at INTEGER NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_assessments_patient ON assessments(patient_id, assessed_at DESC);
CREATE INDEX IF NOT EXISTS idx_assessments_assessed_at ON assessments(assessed_at DESC);
`

const assessmentColumns = `id, patient_id, temperature, humidity, pulse, dehydration_level, heat_index,
	features, risk_level, confidence, prob_high, prob_medium, prob_low, model_version, assessed_at, notes`

// SQLiteStore implements Store on an embedded SQLite database file.
type SQLiteStore struct {
	cfg    storeConfig
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// ensures the schema exists.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLiteStore{cfg: cfg, db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.dbPath }

func (s *SQLiteStore) Save(ctx context.Context, a model.Assessment) (err error) {
	start := time.Now()
	defer func() { observe("save", start, err) }()

	if err := validateAssessment(a); err != nil {
		return err
	}
	a = persisted(a)
	features, err := json.Marshal(a.Result.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (`+assessmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PatientID, a.Temperature, a.Humidity, a.Pulse, nullable(a.DehydrationLevel), nullable(a.HeatIndex),
		string(features), string(a.Result.Level), a.Result.Confidence,
		a.Result.Probabilities.High, a.Result.Probabilities.Medium, a.Result.Probabilities.Low,
		a.ModelVersion, a.AssessedAt.UTC().UnixNano(), a.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: assessment %s", ErrConflict, a.ID)
		}
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (a model.Assessment, err error) {
	start := time.Now()
	defer func() { observe("get", start, ignoreNotFound(err)) }()

	row := s.db.QueryRowContext(ctx, `SELECT `+assessmentColumns+` FROM assessments WHERE id = ?`, id)
	return scanSQLiteAssessment(row)
}

func (s *SQLiteStore) GetForPatient(ctx context.Context, id, patientID string) (a model.Assessment, err error) {
	start := time.Now()
	defer func() { observe("get", start, ignoreNotFound(err)) }()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = ? AND patient_id = ?`, id, patientID)
	return scanSQLiteAssessment(row)
}

func (s *SQLiteStore) ListByPatient(ctx context.Context, patientID string, req types.PageRequest) (page types.Page[model.Assessment], err error) {
	start := time.Now()
	defer func() { observe("list_patient", start, err) }()

	return s.list(ctx, req, "WHERE patient_id = ?", patientID)
}

func (s *SQLiteStore) ListAll(ctx context.Context, req types.PageRequest) (page types.Page[model.Assessment], err error) {
	start := time.Now()
	defer func() { observe("list_all", start, err) }()

	return s.list(ctx, req, "")
}

func (s *SQLiteStore) list(ctx context.Context, req types.PageRequest, where string, args ...any) (types.Page[model.Assessment], error) {
	page := types.Page[model.Assessment]{Items: []model.Assessment{}, Page: req.Page, Size: req.Size}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments `+where, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count assessments: %w", err)
	}
	if page.Total == 0 || req.Size <= 0 {
		return page, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assessmentColumns+` FROM assessments `+where+`
		ORDER BY assessed_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, req.Size, req.Offset())...)
	if err != nil {
		return page, fmt.Errorf("list assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		a, err := scanSQLiteAssessment(rows)
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, a)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("iterate assessments: %w", err)
	}
	return page, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) UpsertPatient(ctx context.Context, p model.Patient) (_ model.Patient, err error) {
	start := time.Now()
	defer func() { observe("upsert_patient", start, err) }()

	if err := validatePatient(p); err != nil {
		return model.Patient{}, err
	}
	p.UpdatedAt = s.cfg.now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patients (id, name, gender, height_cm, weight_kg, bmi, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			gender = excluded.gender,
			height_cm = excluded.height_cm,
			weight_kg = excluded.weight_kg,
			bmi = excluded.bmi,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, string(p.Gender), nullable(p.HeightCM), nullable(p.WeightKG), nullable(p.BMIValue), p.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return model.Patient{}, fmt.Errorf("upsert patient: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetPatient(ctx context.Context, id string) (p model.Patient, err error) {
	start := time.Now()
	defer func() { observe("get_patient", start, ignoreNotFound(err)) }()

	var (
		gender  string
		updated int64
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, gender, height_cm, weight_kg, bmi, updated_at FROM patients WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &gender, &p.HeightCM, &p.WeightKG, &p.BMIValue, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Patient{}, ErrNotFound
	}
	if err != nil {
		return model.Patient{}, fmt.Errorf("get patient: %w", err)
	}
	p.Gender = model.Gender(gender)
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return p, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAssessment(s scanner) (model.Assessment, error) {
	var (
		a        model.Assessment
		features string
		level    string
		assessed int64
	)
	err := s.Scan(
		&a.ID, &a.PatientID, &a.Temperature, &a.Humidity, &a.Pulse, &a.DehydrationLevel, &a.HeatIndex,
		&features, &level, &a.Result.Confidence,
		&a.Result.Probabilities.High, &a.Result.Probabilities.Medium, &a.Result.Probabilities.Low,
		&a.ModelVersion, &assessed, &a.Notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Assessment{}, ErrNotFound
	}
	if err != nil {
		return model.Assessment{}, fmt.Errorf("scan assessment: %w", err)
	}
	if err := json.Unmarshal([]byte(features), &a.Result.Features); err != nil {
		return model.Assessment{}, fmt.Errorf("decode features of %s: %w", a.ID, err)
	}
	a.Result.Level = model.RiskLevel(level)
	a.AssessedAt = time.Unix(0, assessed).UTC()
	return a, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullable maps an absent reading to SQL NULL.
func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
