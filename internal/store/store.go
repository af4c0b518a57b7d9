package store

import (
	"context"
	"errors"
	"time"

	"energypulse/internal/model"
)

var (
	// ErrUnavailable wraps infrastructure failures of the underlying
	// storage transport. Fatal to the calling stage; never swallowed
	// into an empty result.
	ErrUnavailable = errors.New("store unavailable")

	// ErrNotFound is returned when no data exists for the requested scope.
	ErrNotFound = errors.New("not found")
)

// Query selects an observation window. Zero-value fields are unbounded;
// filters compose with AND semantics.
type Query struct {
	Location string
	From     time.Time
	To       time.Time
}

// ObservationStore is the durable table of weather+energy observations.
// Writes do not deduplicate: duplicate (timestamp, location) pairs stay
// visible so the uniqueness quality check has something to catch.
type ObservationStore interface {
	WriteObservations(ctx context.Context, observations []model.Observation) (int, error)
	QueryObservations(ctx context.Context, q Query) ([]model.Observation, error)
}

// ResultRecorder persists quality reports and metrics snapshots as
// immutable, timestamped rows. History is append-only; "latest" means
// newest evaluated_at for the scope at read time.
type ResultRecorder interface {
	SaveQualityReport(ctx context.Context, report model.QualityReport) error
	SaveMetricsSnapshot(ctx context.Context, snapshot model.MetricsSnapshot) error
	LatestQualityReport(ctx context.Context, location string) (model.QualityReport, error)
	LatestMetricsSnapshot(ctx context.Context, location string) (model.MetricsSnapshot, error)
}

// Store is the full persistence contract consumed by the pipeline.
type Store interface {
	ObservationStore
	ResultRecorder
	Close() error
}
