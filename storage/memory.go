package storage

import (
	"context"
	"slices"
	"sync"
)

type memoryRun struct {
	best    map[int]Record
	results []Record
}

// MemoryStore keeps everything in process. Used by tests and dry runs.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]*memoryRun
	order       []string // runIDs by first write
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]*memoryRun)
	s.order = nil
	return nil
}

func (s *MemoryStore) run(runID string) *memoryRun {
	r, ok := s.runs[runID]
	if !ok {
		r = &memoryRun{best: make(map[int]Record)}
		s.runs[runID] = r
		s.order = append(s.order, runID)
	}
	return r
}

func (s *MemoryStore) SaveRunBest(_ context.Context, runID string, run int, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	s.run(runID).best[run] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) SaveResults(_ context.Context, runID string, recs []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = cloneRecord(r)
	}
	s.run(runID).results = out
	return nil
}

func (s *MemoryStore) LoadResults(_ context.Context, runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, errNotInitialized
	}

	if runID == "" {
		for _, id := range slices.Backward(s.order) {
			if r := s.runs[id]; r.results != nil {
				return slices.Clone(r.results), nil
			}
		}
		return nil, ErrNotFound
	}
	r, ok := s.runs[runID]
	if !ok || r.results == nil {
		return nil, ErrNotFound
	}
	return slices.Clone(r.results), nil
}

// RunBest returns the per-run bests saved for runID, ordered by run.
func (s *MemoryStore) RunBest(runID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return nil
	}
	runs := make([]int, 0, len(r.best))
	for run := range r.best {
		runs = append(runs, run)
	}
	slices.Sort(runs)
	out := make([]Record, len(runs))
	for i, run := range runs {
		out[i] = r.best[run]
	}
	return out
}

func (s *MemoryStore) Close() error { return nil }

func cloneRecord(r Record) Record {
	return Record{Fitness: r.Fitness, Gene: slices.Clone(r.Gene)}
}
