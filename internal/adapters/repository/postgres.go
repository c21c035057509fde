package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/heatguard/internal/domain/model"
	"github.com/okian/heatguard/internal/domain/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const pgUniqueViolation = "23505"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS patients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	gender TEXT NOT NULL DEFAULT '',
	height_cm DOUBLE PRECISION,
	weight_kg DOUBLE PRECISION,
	bmi DOUBLE PRECISION,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	humidity DOUBLE PRECISION NOT NULL,
	pulse DOUBLE PRECISION NOT NULL,
	dehydration_level DOUBLE PRECISION,
	heat_index DOUBLE PRECISION,
	features JSONB NOT NULL,
	risk_level TEXT NOT NULL,
	confidence NUMERIC(6,4) NOT NULL,
	prob_high NUMERIC(6,4) NOT NULL,
	prob_medium NUMERIC(6,4) NOT NULL,
	prob_low NUMERIC(6,4) NOT NULL,
	model_version TEXT NOT NULL DEFAULT '',
	assessed_at TIMESTAMPTZ NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_assessments_patient ON assessments (patient_id, assessed_at DESC);
CREATE INDEX IF NOT EXISTS idx_assessments_assessed_at ON assessments (assessed_at DESC);
`

// PostgresStore implements Store on PostgreSQL. Queries go through DBTX so
// the same code runs on a pool or inside a transaction.
type PostgresStore struct {
	cfg  storeConfig
	db   DBTX
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool to dsn, verifies connectivity and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}

	s := NewPostgresStoreWithDB(pool, opts...)
	s.pool = pool
	return s, nil
}

// NewPostgresStoreWithDB wraps an existing connection. The schema is
// assumed to exist.
func NewPostgresStoreWithDB(db DBTX, opts ...Option) *PostgresStore {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &PostgresStore{cfg: cfg, db: db}
}

func (s *PostgresStore) Save(ctx context.Context, a model.Assessment) (err error) {
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

	_, err = s.db.Exec(ctx,
		`INSERT INTO assessments (`+assessmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		a.ID, a.PatientID, a.Temperature, a.Humidity, a.Pulse, a.DehydrationLevel, a.HeatIndex,
		string(features), string(a.Result.Level), a.Result.Confidence,
		a.Result.Probabilities.High, a.Result.Probabilities.Medium, a.Result.Probabilities.Low,
		a.ModelVersion, a.AssessedAt.UTC(), a.Notes,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: assessment %s", ErrConflict, a.ID)
		}
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (a model.Assessment, err error) {
	start := time.Now()
	defer func() { observe("get", start, ignoreNotFound(err)) }()

	row := s.db.QueryRow(ctx, `SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`, id)
	return scanPostgresAssessment(row)
}

func (s *PostgresStore) GetForPatient(ctx context.Context, id, patientID string) (a model.Assessment, err error) {
	start := time.Now()
	defer func() { observe("get", start, ignoreNotFound(err)) }()

	row := s.db.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1 AND patient_id = $2`, id, patientID)
	return scanPostgresAssessment(row)
}

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID string, req types.PageRequest) (page types.Page[model.Assessment], err error) {
	start := time.Now()
	defer func() { observe("list_patient", start, err) }()

	page = types.Page[model.Assessment]{Items: []model.Assessment{}, Page: req.Page, Size: req.Size}
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessments WHERE patient_id = $1`, patientID,
	).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count assessments: %w", err)
	}
	if page.Total == 0 || req.Size <= 0 {
		return page, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE patient_id = $1
		ORDER BY assessed_at DESC, id DESC LIMIT $2 OFFSET $3`,
		patientID, req.Size, req.Offset())
	if err != nil {
		return page, fmt.Errorf("list assessments: %w", err)
	}
	page.Items, err = collectPostgresAssessments(rows)
	return page, err
}

func (s *PostgresStore) ListAll(ctx context.Context, req types.PageRequest) (page types.Page[model.Assessment], err error) {
	start := time.Now()
	defer func() { observe("list_all", start, err) }()

	page = types.Page[model.Assessment]{Items: []model.Assessment{}, Page: req.Page, Size: req.Size}
	if page.Total, err = s.Count(ctx); err != nil {
		return page, err
	}
	if page.Total == 0 || req.Size <= 0 {
		return page, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+assessmentColumns+` FROM assessments
		ORDER BY assessed_at DESC, id DESC LIMIT $1 OFFSET $2`,
		req.Size, req.Offset())
	if err != nil {
		return page, fmt.Errorf("list assessments: %w", err)
	}
	page.Items, err = collectPostgresAssessments(rows)
	return page, err
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) UpsertPatient(ctx context.Context, p model.Patient) (_ model.Patient, err error) {
	start := time.Now()
	defer func() { observe("upsert_patient", start, err) }()

	if err := validatePatient(p); err != nil {
		return model.Patient{}, err
	}
	p.UpdatedAt = s.cfg.now().UTC()

	_, err = s.db.Exec(ctx, `
		INSERT INTO patients (id, name, gender, height_cm, weight_kg, bmi, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			gender = EXCLUDED.gender,
			height_cm = EXCLUDED.height_cm,
			weight_kg = EXCLUDED.weight_kg,
			bmi = EXCLUDED.bmi,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, string(p.Gender), p.HeightCM, p.WeightKG, p.BMIValue, p.UpdatedAt,
	)
	if err != nil {
		return model.Patient{}, fmt.Errorf("upsert patient: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetPatient(ctx context.Context, id string) (p model.Patient, err error) {
	start := time.Now()
	defer func() { observe("get_patient", start, ignoreNotFound(err)) }()

	var gender string
	err = s.db.QueryRow(ctx,
		`SELECT id, name, gender, height_cm, weight_kg, bmi, updated_at FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &gender, &p.HeightCM, &p.WeightKG, &p.BMIValue, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Patient{}, ErrNotFound
	}
	if err != nil {
		return model.Patient{}, fmt.Errorf("get patient: %w", err)
	}
	p.Gender = model.Gender(gender)
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// Close releases the pool when the store owns one.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func collectPostgresAssessments(rows pgx.Rows) ([]model.Assessment, error) {
	defer rows.Close()

	items := []model.Assessment{}
	for rows.Next() {
		a, err := scanPostgresAssessment(rows)
		if err != nil {
			return items, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return items, fmt.Errorf("iterate assessments: %w", err)
	}
	return items, nil
}

func scanPostgresAssessment(row pgx.Row) (model.Assessment, error) {
	var (
		a        model.Assessment
		features []byte
		level    string
	)
	err := row.Scan(
		&a.ID, &a.PatientID, &a.Temperature, &a.Humidity, &a.Pulse, &a.DehydrationLevel, &a.HeatIndex,
		&features, &level, &a.Result.Confidence,
		&a.Result.Probabilities.High, &a.Result.Probabilities.Medium, &a.Result.Probabilities.Low,
		&a.ModelVersion, &a.AssessedAt, &a.Notes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Assessment{}, ErrNotFound
	}
	if err != nil {
		return model.Assessment{}, fmt.Errorf("scan assessment: %w", err)
	}
	if err := json.Unmarshal(features, &a.Result.Features); err != nil {
		return model.Assessment{}, fmt.Errorf("decode features of %s: %w", a.ID, err)
	}
	a.Result.Level = model.RiskLevel(level)
	a.AssessedAt = a.AssessedAt.UTC()
	return a, nil
}
