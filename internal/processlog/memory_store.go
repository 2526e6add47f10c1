package processlog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store used by unit tests and by the
// warehouse/vault builders' own test suites.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Start(ctx context.Context, entity string, metadata map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := newRunID()
	s.records[runID] = Record{
		RunID:     runID,
		Entity:    entity,
		Status:    Started,
		Metadata:  metadata,
		StartedAt: now(),
	}
	return runID, nil
}

func (s *MemoryStore) Finish(ctx context.Context, runID string, status Status, rowsProcessed int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[runID]
	if !ok {
		return fmt.Errorf("processlog: finish: no run %s", runID)
	}
	if r.Status != Started {
		return fmt.Errorf("processlog: finish: run %s already %s", runID, r.Status)
	}
	r.Status = status
	r.RowsProcessed = rowsProcessed
	r.Error = errMsg
	r.FinishedAt = now()
	s.records[runID] = r
	return nil
}

func (s *MemoryStore) ListByEntity(ctx context.Context, entity string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, r := range s.records {
		if r.Entity == entity {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}
