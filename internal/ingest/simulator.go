package ingest

import (
	"log"
	"math"
	"math/rand"
	"time"

	"energypulse/internal/model"
)

// Comfort band in °C. Outside it, HVAC load kicks in.
const (
	comfortMinC = 18.0
	comfortMaxC = 24.0
)

// Simulator derives one synthetic demand value per weather sample. The
// model is deliberately simple: base load, HVAC load growing with distance
// from the comfort band, time-of-day multipliers, a weekend discount, and
// seeded Gaussian noise. No claim of statistical realism.
type Simulator struct {
	rng *rand.Rand
}

// NewSimulator creates a Simulator. The same seed reproduces the same
// demand series for the same input.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Simulate produces one Observation per weather sample for the location.
func (s *Simulator) Simulate(loc model.Location, samples []WeatherSample) []model.Observation {
	observations := make([]model.Observation, 0, len(samples))
	for _, sample := range samples {
		observations = append(observations, model.Observation{
			Timestamp:    sample.Timestamp.UTC(),
			Location:     loc.Name,
			TemperatureC: sample.TemperatureC,
			DemandMWh:    s.demand(loc, sample),
		})
	}

	log.Printf("ingest: simulated %d demand records for %s", len(observations), loc.Name)
	return observations
}

func (s *Simulator) demand(loc model.Location, sample WeatherSample) float64 {
	base := loc.BaseLoadMWh
	temp := sample.TemperatureC
	ts := sample.Timestamp.UTC()
	hour := ts.Hour()
	weekend := ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday

	// HVAC load grows superlinearly with distance from the comfort band.
	// Cooling carries a higher multiplier than heating.
	var tempLoad float64
	switch {
	case temp < comfortMinC:
		tempLoad = base * 0.3 * math.Pow((comfortMinC-temp)/20, 1.5)
	case temp > comfortMaxC:
		tempLoad = base * 0.4 * math.Pow((temp-comfortMaxC)/20, 1.5)
	}

	// Morning ramp, evening peak, night valley.
	timeMult := 1.0
	switch {
	case hour >= 7 && hour <= 9:
		timeMult = 1.2
	case hour >= 17 && hour <= 20:
		timeMult = 1.35
	case hour <= 5:
		timeMult = 0.7
	}

	weekendMult := 1.0
	if weekend {
		weekendMult = 0.75
	}

	demand := (base + tempLoad) * timeMult * weekendMult

	// ±5% Gaussian noise.
	demand *= 1.0 + s.rng.NormFloat64()*0.05

	return math.Max(0, demand)
}
