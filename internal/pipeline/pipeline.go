// Package pipeline orchestrates one batch run over a location:
// ingest (fetch weather, simulate demand, append to the store), then
// quality, then metrics. Runs are sequential and synchronous; the store
// handle is injected at construction.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"energypulse/internal/ingest"
	"energypulse/internal/metrics"
	"energypulse/internal/model"
	"energypulse/internal/quality"
	"energypulse/internal/store"
)

// WeatherFetcher is the narrow contract of the weather feed.
type WeatherFetcher interface {
	FetchHourly(ctx context.Context, loc model.Location, start, end time.Time) ([]ingest.WeatherSample, error)
}

// Pipeline wires the ingestion collaborators to the quality and metrics
// engines over one shared store.
type Pipeline struct {
	store     store.Store
	fetcher   WeatherFetcher
	simulator *ingest.Simulator
	quality   *quality.Engine
	metrics   *metrics.Engine

	span time.Duration // how far back ingest and evaluation windows reach
	now  func() time.Time
}

// New creates a Pipeline. span bounds both the ingest range and the
// evaluation window read back for quality/metrics runs.
func New(st store.Store, fetcher WeatherFetcher, simulator *ingest.Simulator, qualityEngine *quality.Engine, metricsEngine *metrics.Engine, span time.Duration) *Pipeline {
	return &Pipeline{
		store:     st,
		fetcher:   fetcher,
		simulator: simulator,
		quality:   qualityEngine,
		metrics:   metricsEngine,
		span:      span,
		now:       time.Now,
	}
}

// Ingest fetches weather for the location, simulates demand, and appends
// the combined observations to the store. Returns the count written.
func (p *Pipeline) Ingest(ctx context.Context, locationName string) (int, error) {
	loc, err := model.LocationByName(locationName)
	if err != nil {
		return 0, err
	}

	end := p.now().UTC()
	start := end.Add(-p.span)

	samples, err := p.fetcher.FetchHourly(ctx, loc, start, end)
	if err != nil {
		return 0, fmt.Errorf("fetch weather for %s: %w", locationName, err)
	}

	observations := p.simulator.Simulate(loc, samples)

	written, err := p.store.WriteObservations(ctx, observations)
	if err != nil {
		return 0, err
	}

	log.Printf("pipeline: ingested %d observations for %s", written, locationName)
	return written, nil
}

// RunQuality evaluates the check battery over the location's current
// window and records the report. Storage failures abort the stage.
func (p *Pipeline) RunQuality(ctx context.Context, locationName string) (model.QualityReport, error) {
	window, err := p.window(ctx, locationName)
	if err != nil {
		return model.QualityReport{}, err
	}

	report := p.quality.Evaluate(locationName, window)
	if err := p.store.SaveQualityReport(ctx, report); err != nil {
		return model.QualityReport{}, err
	}
	return report, nil
}

// RunMetrics computes the metric set over the location's current window
// and records the snapshot. Recomputing over an unchanged window yields
// identical values; each run appends a new snapshot row.
func (p *Pipeline) RunMetrics(ctx context.Context, locationName string) (model.MetricsSnapshot, error) {
	window, err := p.window(ctx, locationName)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}

	snapshot := p.metrics.Compute(locationName, window)
	if err := p.store.SaveMetricsSnapshot(ctx, snapshot); err != nil {
		return model.MetricsSnapshot{}, err
	}
	return snapshot, nil
}

// Run executes the full ingest → quality → metrics sequence for one
// location.
func (p *Pipeline) Run(ctx context.Context, locationName string) error {
	if _, err := p.Ingest(ctx, locationName); err != nil {
		return err
	}
	if _, err := p.RunQuality(ctx, locationName); err != nil {
		return err
	}
	if _, err := p.RunMetrics(ctx, locationName); err != nil {
		return err
	}
	log.Printf("pipeline: run complete for %s", locationName)
	return nil
}

// window reads the evaluation window: all observations for the location
// within the configured span, ordered by timestamp ascending.
func (p *Pipeline) window(ctx context.Context, locationName string) ([]model.Observation, error) {
	if _, err := model.LocationByName(locationName); err != nil {
		return nil, err
	}
	return p.store.QueryObservations(ctx, store.Query{
		Location: locationName,
		From:     p.now().UTC().Add(-p.span),
	})
}
