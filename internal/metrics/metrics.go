// Package metrics computes a fixed set of scalar statistics over an
// observation window. Metrics are pure functions of the window; a metric
// that cannot be computed reports an explicit undefined state with a
// reason, never NaN and never a silent zero.
//
// Hour-of-day and weekend bucketing use the UTC civil hour and weekday.
// Ingestion normalizes all timestamps to UTC, so this is the single
// convention across the dataset.
package metrics

import (
	"log"
	"math"
	"time"

	"energypulse/internal/model"
)

const (
	unitMWh         = "MWh"
	unitRatio       = "ratio"
	unitCorrelation = "correlation"
)

// Engine computes the registered metric set. The clock is injectable so
// snapshots are reproducible in tests.
type Engine struct {
	now func() time.Time
}

// NewEngine creates a metrics Engine.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Compute derives every registered metric from the window, in the fixed
// order of model.MetricOrder.
func (e *Engine) Compute(location string, window []model.Observation) model.MetricsSnapshot {
	values := make([]model.MetricValue, 0, len(model.MetricOrder))
	for _, name := range model.MetricOrder {
		var v model.MetricValue

		switch name {
		case model.MetricTotalDemand:
			v = totalDemand(window)
		case model.MetricPeakDemand:
			v = peakDemand(window)
		case model.MetricAverageDemand:
			v = averageDemand(window)
		case model.MetricPeakHourRatio:
			v = peakHourRatio(window)
		case model.MetricWeekendWeekdayRatio:
			v = weekendWeekdayRatio(window)
		case model.MetricPeakHourDemand:
			v = peakHourDemand(window)
		case model.MetricOvernightMinimum:
			v = overnightMinimum(window)
		case model.MetricTemperatureSensitivity:
			v = temperatureSensitivity(window)
		}

		values = append(values, v)
	}

	log.Printf("metrics: computed %d metrics for %s over %d records", len(values), location, len(window))

	return model.MetricsSnapshot{
		Location:   location,
		ComputedAt: e.now().UTC(),
		Values:     values,
	}
}

func totalDemand(window []model.Observation) model.MetricValue {
	var total float64
	for _, obs := range window {
		total += obs.DemandMWh
	}
	return model.DefinedMetric(model.MetricTotalDemand, total, unitMWh)
}

func peakDemand(window []model.Observation) model.MetricValue {
	if len(window) == 0 {
		return model.UndefinedMetric(model.MetricPeakDemand, unitMWh, "empty window")
	}
	peak := window[0].DemandMWh
	for _, obs := range window[1:] {
		if obs.DemandMWh > peak {
			peak = obs.DemandMWh
		}
	}
	return model.DefinedMetric(model.MetricPeakDemand, peak, unitMWh)
}

func averageDemand(window []model.Observation) model.MetricValue {
	if len(window) == 0 {
		return model.UndefinedMetric(model.MetricAverageDemand, unitMWh, "empty window")
	}
	var total float64
	for _, obs := range window {
		total += obs.DemandMWh
	}
	return model.DefinedMetric(model.MetricAverageDemand, total/float64(len(window)), unitMWh)
}

func peakHourRatio(window []model.Observation) model.MetricValue {
	peak := peakDemand(window)
	avg := averageDemand(window)
	if !peak.Defined || !avg.Defined {
		return model.UndefinedMetric(model.MetricPeakHourRatio, unitRatio, "empty window")
	}
	if avg.Value == 0 {
		return model.UndefinedMetric(model.MetricPeakHourRatio, unitRatio, "average demand is zero")
	}
	return model.DefinedMetric(model.MetricPeakHourRatio, peak.Value/avg.Value, unitRatio)
}

func weekendWeekdayRatio(window []model.Observation) model.MetricValue {
	var weekendSum, weekdaySum float64
	var weekendN, weekdayN int
	for _, obs := range window {
		switch obs.Timestamp.UTC().Weekday() {
		case time.Saturday, time.Sunday:
			weekendSum += obs.DemandMWh
			weekendN++
		default:
			weekdaySum += obs.DemandMWh
			weekdayN++
		}
	}

	if weekendN == 0 {
		return model.UndefinedMetric(model.MetricWeekendWeekdayRatio, unitRatio, "no weekend samples in window")
	}
	if weekdayN == 0 {
		return model.UndefinedMetric(model.MetricWeekendWeekdayRatio, unitRatio, "no weekday samples in window")
	}
	weekdayAvg := weekdaySum / float64(weekdayN)
	if weekdayAvg == 0 {
		return model.UndefinedMetric(model.MetricWeekendWeekdayRatio, unitRatio, "weekday average demand is zero")
	}
	return model.DefinedMetric(model.MetricWeekendWeekdayRatio, weekendSum/float64(weekendN)/weekdayAvg, unitRatio)
}

// peakHourDemand averages demand over the evening peak, hours [17, 20).
func peakHourDemand(window []model.Observation) model.MetricValue {
	var sum float64
	var n int
	for _, obs := range window {
		h := obs.Timestamp.UTC().Hour()
		if h >= 17 && h < 20 {
			sum += obs.DemandMWh
			n++
		}
	}
	if n == 0 {
		return model.UndefinedMetric(model.MetricPeakHourDemand, unitMWh, "no samples in peak hours [17, 20)")
	}
	return model.DefinedMetric(model.MetricPeakHourDemand, sum/float64(n), unitMWh)
}

// overnightMinimum averages demand over the night valley, hours [0, 5).
// This approximates the base load that is always required.
func overnightMinimum(window []model.Observation) model.MetricValue {
	var sum float64
	var n int
	for _, obs := range window {
		h := obs.Timestamp.UTC().Hour()
		if h >= 0 && h < 5 {
			sum += obs.DemandMWh
			n++
		}
	}
	if n == 0 {
		return model.UndefinedMetric(model.MetricOvernightMinimum, unitMWh, "no samples in overnight hours [0, 5)")
	}
	return model.DefinedMetric(model.MetricOvernightMinimum, sum/float64(n), unitMWh)
}

// temperatureSensitivity is the Pearson correlation of temperature against
// demand. Positive means cooling-dominant load, negative heating-dominant.
func temperatureSensitivity(window []model.Observation) model.MetricValue {
	if len(window) < 2 {
		return model.UndefinedMetric(model.MetricTemperatureSensitivity, unitCorrelation, "fewer than 2 samples")
	}

	n := float64(len(window))
	var sumT, sumD, sumTT, sumDD, sumTD float64
	for _, obs := range window {
		t, d := obs.TemperatureC, obs.DemandMWh
		sumT += t
		sumD += d
		sumTT += t * t
		sumDD += d * d
		sumTD += t * d
	}

	varT := n*sumTT - sumT*sumT
	varD := n*sumDD - sumD*sumD
	if varT <= 0 {
		return model.UndefinedMetric(model.MetricTemperatureSensitivity, unitCorrelation, "zero variance in temperature")
	}
	if varD <= 0 {
		return model.UndefinedMetric(model.MetricTemperatureSensitivity, unitCorrelation, "zero variance in demand")
	}

	corr := (n*sumTD - sumT*sumD) / math.Sqrt(varT*varD)
	return model.DefinedMetric(model.MetricTemperatureSensitivity, corr, unitCorrelation)
}
