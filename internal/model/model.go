package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownLocation is returned when a location name is not in the
// supported set. This is a configuration error, caught at the entry
// boundary before any store access.
var ErrUnknownLocation = errors.New("unknown location")

// Location is a logical place for which weather and demand are tracked.
// The set of supported locations is closed; see Locations.
type Location struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	BaseLoadMWh float64 `json:"-"`
}

// Locations is the closed set of supported locations with their
// coordinates and typical base load (MWh per hour).
var Locations = map[string]Location{
	"new_york":    {Name: "new_york", Lat: 40.7128, Lon: -74.0060, BaseLoadMWh: 5000},
	"los_angeles": {Name: "los_angeles", Lat: 34.0522, Lon: -118.2437, BaseLoadMWh: 4500},
	"chicago":     {Name: "chicago", Lat: 41.8781, Lon: -87.6298, BaseLoadMWh: 3500},
	"houston":     {Name: "houston", Lat: 29.7604, Lon: -95.3698, BaseLoadMWh: 4000},
	"phoenix":     {Name: "phoenix", Lat: 33.4484, Lon: -112.0740, BaseLoadMWh: 3000},
}

// LocationByName resolves a location name against the closed set.
func LocationByName(name string) (Location, error) {
	loc, ok := Locations[name]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, name)
	}
	return loc, nil
}

// Observation is one hourly weather+energy sample. Observations are
// immutable after ingestion; corrections are new pipeline runs, not
// mutations. Timestamps are always UTC and hour-aligned.
type Observation struct {
	Timestamp    time.Time `json:"timestamp"`
	Location     string    `json:"location"`
	TemperatureC float64   `json:"temperature_c"`
	DemandMWh    float64   `json:"energy_demand_mwh"`
}

// QualityStatus is the outcome of one quality check. Error strictly means
// the check could not be evaluated (empty or too-small window), as opposed
// to Fail, which means the check ran and found a defect.
type QualityStatus string

const (
	StatusPass  QualityStatus = "pass"
	StatusFail  QualityStatus = "fail"
	StatusError QualityStatus = "error"
)

// CheckName identifies one registered quality check.
type CheckName string

const (
	CheckCompleteness      CheckName = "completeness"
	CheckFreshness         CheckName = "freshness"
	CheckTemperatureRange  CheckName = "temperature_range"
	CheckUniqueness        CheckName = "uniqueness"
	CheckNoGaps            CheckName = "no_gaps"
	CheckDemandRange       CheckName = "demand_range"
	CheckDemandConsistency CheckName = "demand_consistency"
)

// CheckOrder defines the fixed evaluation and report order. A report
// always contains exactly one result per entry, in this order.
var CheckOrder = []CheckName{
	CheckCompleteness,
	CheckFreshness,
	CheckTemperatureRange,
	CheckUniqueness,
	CheckNoGaps,
	CheckDemandRange,
	CheckDemandConsistency,
}

// QualityCheckResult is the immutable outcome of one check over one window.
type QualityCheckResult struct {
	CheckName   CheckName     `json:"check_name"`
	Status      QualityStatus `json:"status"`
	Message     string        `json:"message"`
	EvaluatedAt time.Time     `json:"evaluated_at"`
}

// QualityReport is the ordered result set of one quality run.
type QualityReport struct {
	Location    string               `json:"location"`
	EvaluatedAt time.Time            `json:"evaluated_at"`
	Results     []QualityCheckResult `json:"results"`
}

// MetricName identifies one registered metric.
type MetricName string

const (
	MetricTotalDemand            MetricName = "total_demand"
	MetricPeakDemand             MetricName = "peak_demand"
	MetricAverageDemand          MetricName = "average_demand"
	MetricPeakHourRatio          MetricName = "peak_hour_ratio"
	MetricWeekendWeekdayRatio    MetricName = "weekend_weekday_ratio"
	MetricPeakHourDemand         MetricName = "peak_hour_demand"
	MetricOvernightMinimum       MetricName = "overnight_minimum"
	MetricTemperatureSensitivity MetricName = "temperature_sensitivity"
)

// MetricOrder defines the fixed computation and report order.
var MetricOrder = []MetricName{
	MetricTotalDemand,
	MetricPeakDemand,
	MetricAverageDemand,
	MetricPeakHourRatio,
	MetricWeekendWeekdayRatio,
	MetricPeakHourDemand,
	MetricOvernightMinimum,
	MetricTemperatureSensitivity,
}

// MetricValue is one named statistic. A metric that cannot be computed
// carries Defined=false and a Reason instead of a misleading numeric
// default; Value is meaningful only when Defined is true.
type MetricValue struct {
	MetricName MetricName `json:"metric_name"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	Defined    bool       `json:"defined"`
	Reason     string     `json:"reason,omitempty"`
}

// DefinedMetric builds a computed metric value.
func DefinedMetric(name MetricName, value float64, unit string) MetricValue {
	return MetricValue{MetricName: name, Value: value, Unit: unit, Defined: true}
}

// UndefinedMetric builds an explicit not-computable metric value.
func UndefinedMetric(name MetricName, unit, reason string) MetricValue {
	return MetricValue{MetricName: name, Unit: unit, Defined: false, Reason: reason}
}

// MetricsSnapshot is the ordered result set of one metrics run.
type MetricsSnapshot struct {
	Location   string        `json:"location"`
	ComputedAt time.Time     `json:"computed_at"`
	Values     []MetricValue `json:"values"`
}

// RunType tags a persisted result row.
type RunType string

const (
	RunQuality RunType = "quality"
	RunMetrics RunType = "metrics"
)
