package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"energypulse/internal/ingest"
	"energypulse/internal/metrics"
	"energypulse/internal/model"
	"energypulse/internal/pipeline"
	"energypulse/internal/quality"
	"energypulse/internal/store"
)

func newTestApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()

	app := fiber.New()
	memStore := store.NewMemoryStore()
	pipe := pipeline.New(
		memStore,
		stubFetcher{},
		ingest.NewSimulator(42),
		quality.NewEngine(quality.DefaultThresholds()),
		metrics.NewEngine(),
		7*24*time.Hour,
	)
	RegisterRoutes(app, memStore, pipe)
	return app, memStore
}

type stubFetcher struct{}

func (stubFetcher) FetchHourly(ctx context.Context, loc model.Location, start, end time.Time) ([]ingest.WeatherSample, error) {
	_ = ctx
	_ = loc
	_ = start
	_ = end
	return nil, nil
}

// TestLocationValidation verifies that result endpoints reject missing or
// unsupported locations.
func TestLocationValidation(t *testing.T) {
	app, _ := newTestApp(t)

	// Missing location parameter should return 400.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// Unsupported location should also return 400.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/metrics/latest?location=atlantis", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestLatestEndpointsReturn404WithoutData(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{
		"/api/v1/quality/latest?location=new_york",
		"/api/v1/metrics/latest?location=new_york",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusNotFound, resp.StatusCode)
		}
	}
}

func TestLatestMetricsReturnsRecordedSnapshot(t *testing.T) {
	app, memStore := newTestApp(t)

	snapshot := model.MetricsSnapshot{
		Location:   "new_york",
		ComputedAt: time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC),
		Values: []model.MetricValue{
			model.DefinedMetric(model.MetricTotalDemand, 2400, "MWh"),
		},
	}
	if err := memStore.SaveMetricsSnapshot(context.Background(), snapshot); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/latest?location=new_york", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestObservationsRejectsInvertedRange(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/observations?location=new_york&from=2026-08-18T00:00:00Z&to=2026-08-17T00:00:00Z", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}
