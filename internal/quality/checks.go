// Package quality evaluates a fixed battery of data quality checks over an
// observation window. Each check is a pure function of the window plus its
// thresholds; checks never mutate data or call each other, and the battery
// runs in full regardless of earlier failures.
package quality

import (
	"fmt"
	"log"
	"sort"
	"time"

	"energypulse/internal/model"
)

// Thresholds holds the tunable bounds for the check battery.
type Thresholds struct {
	MinRecords       int           // completeness: minimum records in the window
	MaxAge           time.Duration // freshness: max age of the newest record
	TempMinC         float64       // temperature_range lower bound, inclusive
	TempMaxC         float64       // temperature_range upper bound, inclusive
	DemandMaxMWh     float64       // demand_range upper sanity bound
	MaxStepChangePct float64       // demand_consistency: max hour-to-hour change
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRecords:       24,
		MaxAge:           48 * time.Hour,
		TempMinC:         -40,
		TempMaxC:         50,
		DemandMaxMWh:     20000,
		MaxStepChangePct: 50,
	}
}

// Validate rejects thresholds that would make the battery meaningless.
func (t Thresholds) Validate() error {
	if t.MinRecords <= 0 {
		return fmt.Errorf("min records must be positive, got %d", t.MinRecords)
	}
	if t.MaxAge <= 0 {
		return fmt.Errorf("max age must be positive, got %s", t.MaxAge)
	}
	if t.TempMinC >= t.TempMaxC {
		return fmt.Errorf("temperature bounds inverted: [%.1f, %.1f]", t.TempMinC, t.TempMaxC)
	}
	if t.DemandMaxMWh <= 0 {
		return fmt.Errorf("demand upper bound must be positive, got %.1f", t.DemandMaxMWh)
	}
	if t.MaxStepChangePct <= 0 {
		return fmt.Errorf("max step change must be positive, got %.1f", t.MaxStepChangePct)
	}
	return nil
}

// Engine runs the check battery. The clock is injectable so freshness is
// testable.
type Engine struct {
	thresholds Thresholds
	now        func() time.Time
}

// NewEngine creates an Engine with the given thresholds.
func NewEngine(thresholds Thresholds) *Engine {
	return &Engine{thresholds: thresholds, now: time.Now}
}

// Evaluate runs every registered check against the window, in the fixed
// order of model.CheckOrder, and returns a report with exactly one result
// per check.
func (e *Engine) Evaluate(location string, window []model.Observation) model.QualityReport {
	evaluatedAt := e.now().UTC()

	results := make([]model.QualityCheckResult, 0, len(model.CheckOrder))
	for _, name := range model.CheckOrder {
		var status model.QualityStatus
		var message string

		switch name {
		case model.CheckCompleteness:
			status, message = e.checkCompleteness(window)
		case model.CheckFreshness:
			status, message = e.checkFreshness(window)
		case model.CheckTemperatureRange:
			status, message = e.checkTemperatureRange(window)
		case model.CheckUniqueness:
			status, message = e.checkUniqueness(window)
		case model.CheckNoGaps:
			status, message = e.checkNoGaps(window)
		case model.CheckDemandRange:
			status, message = e.checkDemandRange(window)
		case model.CheckDemandConsistency:
			status, message = e.checkDemandConsistency(window)
		}

		results = append(results, model.QualityCheckResult{
			CheckName:   name,
			Status:      status,
			Message:     message,
			EvaluatedAt: evaluatedAt,
		})
	}

	passed := 0
	for _, r := range results {
		if r.Status == model.StatusPass {
			passed++
		}
	}
	log.Printf("quality: evaluated %s: %d/%d checks passed over %d records", location, passed, len(results), len(window))

	return model.QualityReport{
		Location:    location,
		EvaluatedAt: evaluatedAt,
		Results:     results,
	}
}

func (e *Engine) checkCompleteness(window []model.Observation) (model.QualityStatus, string) {
	if len(window) == 0 {
		return model.StatusError, "no records in window"
	}
	if len(window) < e.thresholds.MinRecords {
		return model.StatusFail, fmt.Sprintf("found %d records, need at least %d", len(window), e.thresholds.MinRecords)
	}
	return model.StatusPass, fmt.Sprintf("found %d records (minimum %d)", len(window), e.thresholds.MinRecords)
}

func (e *Engine) checkFreshness(window []model.Observation) (model.QualityStatus, string) {
	if len(window) == 0 {
		return model.StatusError, "no records in window"
	}

	latest := window[0].Timestamp
	for _, obs := range window[1:] {
		if obs.Timestamp.After(latest) {
			latest = obs.Timestamp
		}
	}

	age := e.now().Sub(latest)
	ageHours := age.Hours()
	limitHours := e.thresholds.MaxAge.Hours()
	if age > e.thresholds.MaxAge {
		return model.StatusFail, fmt.Sprintf("latest record is %.1f hours old (limit %.0fh)", ageHours, limitHours)
	}
	return model.StatusPass, fmt.Sprintf("latest record is %.1f hours old (limit %.0fh)", ageHours, limitHours)
}

func (e *Engine) checkTemperatureRange(window []model.Observation) (model.QualityStatus, string) {
	if len(window) == 0 {
		return model.StatusError, "no records in window"
	}

	outOfRange := 0
	for _, obs := range window {
		if obs.TemperatureC < e.thresholds.TempMinC || obs.TemperatureC > e.thresholds.TempMaxC {
			outOfRange++
		}
	}

	if outOfRange > 0 {
		return model.StatusFail, fmt.Sprintf("%d of %d temperatures outside [%.0f, %.0f]°C",
			outOfRange, len(window), e.thresholds.TempMinC, e.thresholds.TempMaxC)
	}
	return model.StatusPass, fmt.Sprintf("all %d temperatures within [%.0f, %.0f]°C",
		len(window), e.thresholds.TempMinC, e.thresholds.TempMaxC)
}

func (e *Engine) checkUniqueness(window []model.Observation) (model.QualityStatus, string) {
	if len(window) == 0 {
		return model.StatusError, "no records in window"
	}

	type key struct {
		ts       time.Time
		location string
	}
	seen := make(map[key]bool, len(window))
	duplicates := 0
	for _, obs := range window {
		k := key{ts: obs.Timestamp, location: obs.Location}
		if seen[k] {
			duplicates++
		}
		seen[k] = true
	}

	if duplicates > 0 {
		noun := "pairs"
		if duplicates == 1 {
			noun = "pair"
		}
		return model.StatusFail, fmt.Sprintf("%d duplicate (timestamp, location) %s among %d records", duplicates, noun, len(window))
	}
	return model.StatusPass, fmt.Sprintf("all %d records unique by (timestamp, location)", len(window))
}

func (e *Engine) checkNoGaps(window []model.Observation) (model.QualityStatus, string) {
	if len(window) < 2 {
		return model.StatusError, fmt.Sprintf("need at least 2 records to check spacing, have %d", len(window))
	}

	// Spacing is checked over distinct timestamps: a duplicated record is
	// the uniqueness check's finding, not a gap.
	timestamps := make([]time.Time, len(window))
	for i, obs := range window {
		timestamps[i] = obs.Timestamp
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	distinct := timestamps[:1]
	for _, ts := range timestamps[1:] {
		if !ts.Equal(distinct[len(distinct)-1]) {
			distinct = append(distinct, ts)
		}
	}

	gaps := 0
	var firstGap time.Time
	for i := 1; i < len(distinct); i++ {
		if distinct[i].Sub(distinct[i-1]) != time.Hour {
			if gaps == 0 {
				firstGap = distinct[i-1]
			}
			gaps++
		}
	}

	if gaps > 0 {
		noun := "gaps"
		if gaps == 1 {
			noun = "gap"
		}
		return model.StatusFail, fmt.Sprintf("%d %s in hourly sequence, first after %s", gaps, noun, firstGap.Format(time.RFC3339))
	}
	return model.StatusPass, fmt.Sprintf("constant 1h spacing across %d records", len(timestamps))
}

func (e *Engine) checkDemandRange(window []model.Observation) (model.QualityStatus, string) {
	if len(window) == 0 {
		return model.StatusError, "no records in window"
	}

	outOfRange := 0
	for _, obs := range window {
		if obs.DemandMWh < 0 || obs.DemandMWh > e.thresholds.DemandMaxMWh {
			outOfRange++
		}
	}

	if outOfRange > 0 {
		return model.StatusFail, fmt.Sprintf("%d of %d demand values outside [0, %.0f] MWh",
			outOfRange, len(window), e.thresholds.DemandMaxMWh)
	}
	return model.StatusPass, fmt.Sprintf("all %d demand values within [0, %.0f] MWh",
		len(window), e.thresholds.DemandMaxMWh)
}

func (e *Engine) checkDemandConsistency(window []model.Observation) (model.QualityStatus, string) {
	if len(window) < 2 {
		return model.StatusError, fmt.Sprintf("need at least 2 records to check consistency, have %d", len(window))
	}

	ordered := make([]model.Observation, len(window))
	copy(ordered, window)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Timestamp.Before(ordered[j].Timestamp) })

	spikes := 0
	for i := 1; i < len(ordered); i++ {
		prev, curr := ordered[i-1].DemandMWh, ordered[i].DemandMWh
		if prev <= 0 {
			continue
		}
		change := (curr - prev) / prev * 100
		if change < 0 {
			change = -change
		}
		if change > e.thresholds.MaxStepChangePct {
			spikes++
		}
	}

	if spikes > 0 {
		noun := "swings"
		if spikes == 1 {
			noun = "swing"
		}
		return model.StatusFail, fmt.Sprintf("%d demand %s exceeding %.0f%% hour over hour", spikes, noun, e.thresholds.MaxStepChangePct)
	}
	return model.StatusPass, fmt.Sprintf("no hour-to-hour demand change above %.0f%%", e.thresholds.MaxStepChangePct)
}
