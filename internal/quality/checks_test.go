package quality

import (
	"strings"
	"testing"
	"time"

	"energypulse/internal/model"
)

var windowStart = time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)

// hourlyWindow builds n clean, consecutive hourly observations.
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

// newTestEngine pins the clock just after the window so freshness passes
// unless a test moves it.
func newTestEngine(now time.Time) *Engine {
	e := NewEngine(DefaultThresholds())
	e.now = func() time.Time { return now }
	return e
}

func resultFor(t *testing.T, report model.QualityReport, name model.CheckName) model.QualityCheckResult {
	t.Helper()
	for _, r := range report.Results {
		if r.CheckName == name {
			return r
		}
	}
	t.Fatalf("report has no result for check %s", name)
	return model.QualityCheckResult{}
}

func TestReportCoversAllChecksInOrder(t *testing.T) {
	engine := newTestEngine(windowStart.Add(24 * time.Hour))
	report := engine.Evaluate("new_york", hourlyWindow(windowStart, 24, 15, 100))

	if len(report.Results) != len(model.CheckOrder) {
		t.Fatalf("expected %d results, got %d", len(model.CheckOrder), len(report.Results))
	}
	for i, name := range model.CheckOrder {
		if report.Results[i].CheckName != name {
			t.Fatalf("result %d: expected check %s, got %s", i, name, report.Results[i].CheckName)
		}
	}
}

func TestCleanDayPassesAllChecks(t *testing.T) {
	// 24 consecutive hourly records, temperatures in range, constant demand.
	engine := newTestEngine(windowStart.Add(24 * time.Hour))
	report := engine.Evaluate("new_york", hourlyWindow(windowStart, 24, 15, 100))

	for _, r := range report.Results {
		if r.Status != model.StatusPass {
			t.Fatalf("check %s: expected pass, got %s (%s)", r.CheckName, r.Status, r.Message)
		}
	}
}

func TestCompletenessFailsBelowThreshold(t *testing.T) {
	engine := newTestEngine(windowStart.Add(24 * time.Hour))
	report := engine.Evaluate("new_york", hourlyWindow(windowStart, 12, 15, 100))

	r := resultFor(t, report, model.CheckCompleteness)
	if r.Status != model.StatusFail {
		t.Fatalf("expected fail, got %s", r.Status)
	}
	if !strings.Contains(r.Message, "12") || !strings.Contains(r.Message, "24") {
		t.Fatalf("message should carry count and threshold, got %q", r.Message)
	}
}

func TestFreshnessFailsWhenStale(t *testing.T) {
	window := hourlyWindow(windowStart, 24, 15, 100)
	lastTS := window[len(window)-1].Timestamp

	engine := newTestEngine(lastTS.Add(49 * time.Hour))
	r := resultFor(t, engine.Evaluate("new_york", window), model.CheckFreshness)
	if r.Status != model.StatusFail {
		t.Fatalf("expected fail for 49h-old data, got %s (%s)", r.Status, r.Message)
	}
	if !strings.Contains(r.Message, "49.0 hours") {
		t.Fatalf("message should report elapsed hours, got %q", r.Message)
	}

	engine = newTestEngine(lastTS.Add(47 * time.Hour))
	r = resultFor(t, engine.Evaluate("new_york", window), model.CheckFreshness)
	if r.Status != model.StatusPass {
		t.Fatalf("expected pass for 47h-old data, got %s", r.Status)
	}
}

func TestTemperatureBoundaryValuesPass(t *testing.T) {
	window := hourlyWindow(windowStart, 24, 15, 100)
	window[0].TemperatureC = -40
	window[1].TemperatureC = 50

	engine := newTestEngine(windowStart.Add(24 * time.Hour))
	r := resultFor(t, engine.Evaluate("new_york", window), model.CheckTemperatureRange)
	if r.Status != model.StatusPass {
		t.Fatalf("boundary values must pass, got %s (%s)", r.Status, r.Message)
	}

	window[2].TemperatureC = 50.1
	r = resultFor(t, engine.Evaluate("new_york", window), model.CheckTemperatureRange)
	if r.Status != model.StatusFail {
		t.Fatalf("expected fail for out-of-range value, got %s", r.Status)
	}
	if !strings.Contains(r.Message, "1 of 24") {
		t.Fatalf("message should report offending count, got %q", r.Message)
	}
}

func TestDuplicateFlipsOnlyUniqueness(t *testing.T) {
	window := hourlyWindow(windowStart, 48, 15, 100)
	window = append(window, window[10]) // duplicate one (timestamp, location) pair

	engine := newTestEngine(windowStart.Add(48 * time.Hour))
	report := engine.Evaluate("new_york", window)

	for _, r := range report.Results {
		switch r.CheckName {
		case model.CheckUniqueness:
			if r.Status != model.StatusFail {
				t.Fatalf("uniqueness: expected fail, got %s", r.Status)
			}
			if !strings.Contains(r.Message, "1 duplicate (timestamp, location) pair") {
				t.Fatalf("uniqueness message should report 1 duplicate pair, got %q", r.Message)
			}
		default:
			if r.Status != model.StatusPass {
				t.Fatalf("check %s must be unaffected by the duplicate, got %s (%s)", r.CheckName, r.Status, r.Message)
			}
		}
	}
}

func TestMissingHourFlipsNoGaps(t *testing.T) {
	window := hourlyWindow(windowStart, 48, 15, 100)
	window = append(window[:20], window[21:]...) // drop one hour

	engine := newTestEngine(windowStart.Add(48 * time.Hour))
	r := resultFor(t, engine.Evaluate("new_york", window), model.CheckNoGaps)
	if r.Status != model.StatusFail {
		t.Fatalf("expected fail with a missing hour, got %s", r.Status)
	}
	if !strings.Contains(r.Message, "1 gap") {
		t.Fatalf("message should report gap count 1, got %q", r.Message)
	}
}

func TestDemandRangeFlagsNegativeAndExcessive(t *testing.T) {
	window := hourlyWindow(windowStart, 24, 15, 100)
	window[3].DemandMWh = -5
	window[4].DemandMWh = 25000

	engine := newTestEngine(windowStart.Add(24 * time.Hour))
	r := resultFor(t, engine.Evaluate("new_york", window), model.CheckDemandRange)
	if r.Status != model.StatusFail {
		t.Fatalf("expected fail, got %s", r.Status)
	}
	if !strings.Contains(r.Message, "2 of 24") {
		t.Fatalf("message should report offending count, got %q", r.Message)
	}
}

func TestDemandConsistencyCountsSpikes(t *testing.T) {
	window := hourlyWindow(windowStart, 24, 15, 100)
	window[12].DemandMWh = 200 // +100% then -50%... only the jump up exceeds 50%

	engine := newTestEngine(windowStart.Add(24 * time.Hour))
	r := resultFor(t, engine.Evaluate("new_york", window), model.CheckDemandConsistency)
	if r.Status != model.StatusFail {
		t.Fatalf("expected fail, got %s (%s)", r.Status, r.Message)
	}
	if !strings.Contains(r.Message, "1 demand swing") {
		t.Fatalf("message should report spike count, got %q", r.Message)
	}
}

func TestEmptyWindowReportsErrorNotFail(t *testing.T) {
	engine := newTestEngine(windowStart)
	report := engine.Evaluate("new_york", nil)

	if len(report.Results) != len(model.CheckOrder) {
		t.Fatalf("empty window must still produce a full report, got %d results", len(report.Results))
	}
	for _, r := range report.Results {
		if r.Status != model.StatusError {
			t.Fatalf("check %s: expected error on empty window, got %s", r.CheckName, r.Status)
		}
	}
}

func TestSingleRecordWindow(t *testing.T) {
	engine := newTestEngine(windowStart.Add(time.Hour))
	report := engine.Evaluate("new_york", hourlyWindow(windowStart, 1, 15, 100))

	// Pairwise checks cannot evaluate on one record.
	for _, name := range []model.CheckName{model.CheckNoGaps, model.CheckDemandConsistency} {
		if r := resultFor(t, report, name); r.Status != model.StatusError {
			t.Fatalf("check %s: expected error on single record, got %s", name, r.Status)
		}
	}
	if r := resultFor(t, report, model.CheckFreshness); r.Status != model.StatusPass {
		t.Fatalf("freshness should evaluate on a single record, got %s", r.Status)
	}
}

func TestThresholdsValidate(t *testing.T) {
	valid := DefaultThresholds()
	if err := valid.Validate(); err != nil {
		t.Fatalf("default thresholds must validate: %v", err)
	}

	bad := DefaultThresholds()
	bad.MinRecords = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for zero min records")
	}

	bad = DefaultThresholds()
	bad.TempMinC, bad.TempMaxC = 50, -40
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for inverted temperature bounds")
	}
}
