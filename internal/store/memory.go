package store

import (
	"context"
	"sort"
	"sync"

	"energypulse/internal/model"
)

// MemoryStore is a concurrency-safe in-memory implementation of Store,
// used by handler and pipeline tests. Like the durable store it is
// append-tolerant: duplicate observations stay visible.
type MemoryStore struct {
	mu sync.RWMutex

	observations []model.Observation
	reports      map[string][]model.QualityReport
	snapshots    map[string][]model.MetricsSnapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports:   make(map[string][]model.QualityReport),
		snapshots: make(map[string][]model.MetricsSnapshot),
	}
}

func (s *MemoryStore) WriteObservations(ctx context.Context, observations []model.Observation) (int, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.observations = append(s.observations, observations...)
	return len(observations), nil
}

func (s *MemoryStore) QueryObservations(ctx context.Context, q Query) ([]model.Observation, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Observation
	for _, obs := range s.observations {
		if q.Location != "" && obs.Location != q.Location {
			continue
		}
		if !q.From.IsZero() && obs.Timestamp.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && obs.Timestamp.After(q.To) {
			continue
		}
		result = append(result, obs)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (s *MemoryStore) SaveQualityReport(ctx context.Context, report model.QualityReport) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports[report.Location] = append(s.reports[report.Location], report)
	return nil
}

func (s *MemoryStore) SaveMetricsSnapshot(ctx context.Context, snapshot model.MetricsSnapshot) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snapshot.Location] = append(s.snapshots[snapshot.Location], snapshot)
	return nil
}

func (s *MemoryStore) LatestQualityReport(ctx context.Context, location string) (model.QualityReport, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := s.reports[location]
	if len(reports) == 0 {
		return model.QualityReport{}, ErrNotFound
	}

	latest := reports[0]
	for _, r := range reports[1:] {
		if !r.EvaluatedAt.Before(latest.EvaluatedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (s *MemoryStore) LatestMetricsSnapshot(ctx context.Context, location string) (model.MetricsSnapshot, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := s.snapshots[location]
	if len(snapshots) == 0 {
		return model.MetricsSnapshot{}, ErrNotFound
	}

	latest := snapshots[0]
	for _, snap := range snapshots[1:] {
		if !snap.ComputedAt.Before(latest.ComputedAt) {
			latest = snap
		}
	}
	return latest, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
