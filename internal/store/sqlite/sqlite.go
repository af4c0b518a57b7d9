package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"energypulse/internal/model"
	"energypulse/internal/store"
)

// Store is the SQLite-backed implementation of store.Store. Timestamps are
// persisted as RFC3339 UTC strings, so lexicographic order matches
// chronological order.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and migrates the schema.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	statements := []string{
		// Deliberately no primary key on (timestamp, location): the store
		// is append-tolerant and duplicates stay visible to the
		// uniqueness quality check.
		`CREATE TABLE IF NOT EXISTS observations (
			timestamp TEXT NOT NULL,
			location TEXT NOT NULL,
			temperature_c REAL NOT NULL,
			energy_demand_mwh REAL NOT NULL,
			loaded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_observations_location_timestamp
			ON observations (location, timestamp);`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			run_type TEXT NOT NULL,
			location TEXT NOT NULL,
			evaluated_at TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_scope
			ON results (run_type, location, evaluated_at);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}

// WriteObservations appends observations and returns the count written.
// No deduplication happens here.
func (s *Store) WriteObservations(ctx context.Context, observations []model.Observation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (timestamp, location, temperature_c, energy_demand_mwh, loaded_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer stmt.Close()

	loadedAt := time.Now().UTC().Format(time.RFC3339)
	for _, obs := range observations {
		_, err = stmt.ExecContext(
			ctx,
			obs.Timestamp.UTC().Format(time.RFC3339),
			obs.Location,
			obs.TemperatureC,
			obs.DemandMWh,
			loadedAt,
		)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return len(observations), nil
}

// QueryObservations returns the window selected by q, ordered by timestamp
// ascending. Omitted bounds are unbounded; filters compose with AND.
func (s *Store) QueryObservations(ctx context.Context, q store.Query) ([]model.Observation, error) {
	query := `SELECT timestamp, location, temperature_c, energy_demand_mwh FROM observations WHERE 1=1`
	var args []any

	if q.Location != "" {
		query += ` AND location = ?`
		args = append(args, q.Location)
	}
	if !q.From.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		query += ` AND timestamp <= ?`
		args = append(args, q.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer rows.Close()

	var observations []model.Observation
	for rows.Next() {
		var obs model.Observation
		var ts string
		if err := rows.Scan(&ts, &obs.Location, &obs.TemperatureC, &obs.DemandMWh); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp %q: %v", store.ErrUnavailable, ts, err)
		}
		obs.Timestamp = parsed.UTC()
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return observations, nil
}

// SaveQualityReport appends one immutable report row. Re-running the same
// stage produces a new row, never an overwrite.
func (s *Store) SaveQualityReport(ctx context.Context, report model.QualityReport) error {
	payload, err := json.Marshal(report.Results)
	if err != nil {
		return err
	}
	return s.insertResult(ctx, model.RunQuality, report.Location, report.EvaluatedAt, payload)
}

// SaveMetricsSnapshot appends one immutable snapshot row.
func (s *Store) SaveMetricsSnapshot(ctx context.Context, snapshot model.MetricsSnapshot) error {
	payload, err := json.Marshal(snapshot.Values)
	if err != nil {
		return err
	}
	return s.insertResult(ctx, model.RunMetrics, snapshot.Location, snapshot.ComputedAt, payload)
}

func (s *Store) insertResult(ctx context.Context, runType model.RunType, location string, evaluatedAt time.Time, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (run_id, run_type, location, evaluated_at, payload)
		VALUES (?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		string(runType),
		location,
		evaluatedAt.UTC().Format(time.RFC3339),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// LatestQualityReport returns the newest report for the location, by
// evaluated_at (insertion order breaks ties).
func (s *Store) LatestQualityReport(ctx context.Context, location string) (model.QualityReport, error) {
	evaluatedAt, payload, err := s.latestResult(ctx, model.RunQuality, location)
	if err != nil {
		return model.QualityReport{}, err
	}

	var results []model.QualityCheckResult
	if err := json.Unmarshal(payload, &results); err != nil {
		return model.QualityReport{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return model.QualityReport{Location: location, EvaluatedAt: evaluatedAt, Results: results}, nil
}

// LatestMetricsSnapshot returns the newest snapshot for the location.
func (s *Store) LatestMetricsSnapshot(ctx context.Context, location string) (model.MetricsSnapshot, error) {
	computedAt, payload, err := s.latestResult(ctx, model.RunMetrics, location)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}

	var values []model.MetricValue
	if err := json.Unmarshal(payload, &values); err != nil {
		return model.MetricsSnapshot{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return model.MetricsSnapshot{Location: location, ComputedAt: computedAt, Values: values}, nil
}

func (s *Store) latestResult(ctx context.Context, runType model.RunType, location string) (time.Time, []byte, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT evaluated_at, payload FROM results
		WHERE run_type = ? AND location = ?
		ORDER BY evaluated_at DESC, id DESC
		LIMIT 1
	`, string(runType), location)

	var ts, payload string
	if err := row.Scan(&ts, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil, store.ErrNotFound
		}
		return time.Time{}, nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: bad timestamp %q: %v", store.ErrUnavailable, ts, err)
	}
	return parsed.UTC(), []byte(payload), nil
}
