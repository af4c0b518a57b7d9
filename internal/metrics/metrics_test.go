package metrics

import (
	"math"
	"reflect"
	"testing"
	"time"

	"energypulse/internal/model"
)

// Monday 2026-08-17 00:00 UTC.
var monday = time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)

// Saturday 2026-08-22 00:00 UTC.
var saturday = time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)

func hourlyWindow(start time.Time, n int, temp, demand float64) []model.Observation {
	window := make([]model.Observation, 0, n)
	for i := 0; i < n; i++ {
		window = append(window, model.Observation{
			Timestamp:    start.Add(time.Duration(i) * time.Hour),
			Location:     "new_york",
			TemperatureC: temp,
			DemandMWh:    demand,
		})
	}
	return window
}

func valueFor(t *testing.T, snapshot model.MetricsSnapshot, name model.MetricName) model.MetricValue {
	t.Helper()
	for _, v := range snapshot.Values {
		if v.MetricName == name {
			return v
		}
	}
	t.Fatalf("snapshot has no value for metric %s", name)
	return model.MetricValue{}
}

func TestSnapshotCoversAllMetricsInOrder(t *testing.T) {
	snapshot := NewEngine().Compute("new_york", hourlyWindow(monday, 24, 15, 100))

	if len(snapshot.Values) != len(model.MetricOrder) {
		t.Fatalf("expected %d values, got %d", len(model.MetricOrder), len(snapshot.Values))
	}
	for i, name := range model.MetricOrder {
		if snapshot.Values[i].MetricName != name {
			t.Fatalf("value %d: expected metric %s, got %s", i, name, snapshot.Values[i].MetricName)
		}
	}
}

func TestConstantDemandDay(t *testing.T) {
	// 24 consecutive hours at a flat 100 MWh.
	snapshot := NewEngine().Compute("new_york", hourlyWindow(monday, 24, 15, 100))

	total := valueFor(t, snapshot, model.MetricTotalDemand)
	if !total.Defined || total.Value != 2400 {
		t.Fatalf("total_demand: expected 2400, got %+v", total)
	}

	avg := valueFor(t, snapshot, model.MetricAverageDemand)
	if !avg.Defined || avg.Value != 100 {
		t.Fatalf("average_demand: expected 100, got %+v", avg)
	}

	ratio := valueFor(t, snapshot, model.MetricPeakHourRatio)
	if !ratio.Defined || ratio.Value != 1.0 {
		t.Fatalf("peak_hour_ratio: expected 1.0, got %+v", ratio)
	}

	peakHours := valueFor(t, snapshot, model.MetricPeakHourDemand)
	if !peakHours.Defined || peakHours.Value != 100 {
		t.Fatalf("peak_hour_demand: expected 100, got %+v", peakHours)
	}

	overnight := valueFor(t, snapshot, model.MetricOvernightMinimum)
	if !overnight.Defined || overnight.Value != 100 {
		t.Fatalf("overnight_minimum: expected 100, got %+v", overnight)
	}

	// Flat demand has zero variance, so the correlation is explicitly
	// undefined rather than zero.
	corr := valueFor(t, snapshot, model.MetricTemperatureSensitivity)
	if corr.Defined {
		t.Fatalf("temperature_sensitivity: expected undefined for zero-variance demand, got %+v", corr)
	}
	if corr.Reason == "" {
		t.Fatal("undefined metric must carry a reason")
	}
}

func TestEmptyWindow(t *testing.T) {
	snapshot := NewEngine().Compute("new_york", nil)

	total := valueFor(t, snapshot, model.MetricTotalDemand)
	if !total.Defined || total.Value != 0 {
		t.Fatalf("total_demand on empty window: expected defined 0, got %+v", total)
	}

	for _, name := range []model.MetricName{
		model.MetricPeakDemand,
		model.MetricAverageDemand,
		model.MetricPeakHourRatio,
		model.MetricWeekendWeekdayRatio,
		model.MetricPeakHourDemand,
		model.MetricOvernightMinimum,
		model.MetricTemperatureSensitivity,
	} {
		v := valueFor(t, snapshot, name)
		if v.Defined {
			t.Fatalf("%s on empty window: expected undefined, got %+v", name, v)
		}
		if v.Reason == "" {
			t.Fatalf("%s: undefined metric must carry a reason", name)
		}
	}
}

func TestPeakHourRatioUndefinedWhenAverageZero(t *testing.T) {
	snapshot := NewEngine().Compute("new_york", hourlyWindow(monday, 24, 15, 0))

	ratio := valueFor(t, snapshot, model.MetricPeakHourRatio)
	if ratio.Defined {
		t.Fatalf("expected undefined ratio for zero average, got %+v", ratio)
	}
	if ratio.Reason != "average demand is zero" {
		t.Fatalf("unexpected reason %q", ratio.Reason)
	}
}

func TestWeekendWeekdayRatio(t *testing.T) {
	// A weekday day at 100 MWh and a weekend day at 50 MWh.
	window := append(hourlyWindow(monday, 24, 15, 100), hourlyWindow(saturday, 24, 15, 50)...)

	snapshot := NewEngine().Compute("new_york", window)
	ratio := valueFor(t, snapshot, model.MetricWeekendWeekdayRatio)
	if !ratio.Defined || math.Abs(ratio.Value-0.5) > 1e-12 {
		t.Fatalf("expected ratio 0.5, got %+v", ratio)
	}

	// Only weekend samples: the ratio has no denominator.
	snapshot = NewEngine().Compute("new_york", hourlyWindow(saturday, 24, 15, 50))
	ratio = valueFor(t, snapshot, model.MetricWeekendWeekdayRatio)
	if ratio.Defined {
		t.Fatalf("expected undefined ratio without weekday samples, got %+v", ratio)
	}
}

func TestTemperatureSensitivity(t *testing.T) {
	// Demand perfectly linear in temperature: correlation must be 1.
	window := make([]model.Observation, 0, 24)
	for i := 0; i < 24; i++ {
		temp := 10 + float64(i)
		window = append(window, model.Observation{
			Timestamp:    monday.Add(time.Duration(i) * time.Hour),
			Location:     "new_york",
			TemperatureC: temp,
			DemandMWh:    2*temp + 1,
		})
	}

	corr := valueFor(t, NewEngine().Compute("new_york", window), model.MetricTemperatureSensitivity)
	if !corr.Defined || math.Abs(corr.Value-1.0) > 1e-9 {
		t.Fatalf("expected correlation 1.0, got %+v", corr)
	}

	// Fewer than 2 points cannot correlate.
	corr = valueFor(t, NewEngine().Compute("new_york", window[:1]), model.MetricTemperatureSensitivity)
	if corr.Defined {
		t.Fatalf("expected undefined for a single point, got %+v", corr)
	}
	if math.IsNaN(corr.Value) {
		t.Fatal("undefined metric must not carry NaN")
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	window := hourlyWindow(monday, 48, 12, 137.5)
	window[7].DemandMWh = 412
	window[19].TemperatureC = 31

	first := NewEngine().Compute("new_york", window)
	second := NewEngine().Compute("new_york", window)

	if !reflect.DeepEqual(first.Values, second.Values) {
		t.Fatalf("recomputing over an unchanged window must yield identical values:\n%+v\n%+v", first.Values, second.Values)
	}
}
