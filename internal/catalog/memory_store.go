package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store used by unit tests and by the stub
// source/target adapters' smoke paths. It implements the exact contract
// PostgresStore implements, so tests written against MemoryStore exercise
// real lifecycle logic rather than a mock.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Key]Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Entry)}
}

func (s *MemoryStore) ListConnections(ctx context.Context, engine string) ([]string, error) {
	if engine == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	var out []string
	for _, e := range s.entries {
		if e.Engine != engine || seen[e.Connection] {
			continue
		}
		seen[e.Connection] = true
		out = append(out, e.Connection)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) ListEntries(ctx context.Context, engine, connection string) ([]Entry, error) {
	if engine == "" || connection == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for _, e := range s.entries {
		if e.Engine == engine && e.Connection == connection {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Schema != out[j].Schema {
			return out[i].Schema < out[j].Schema
		}
		return out[i].Table < out[j].Table
	})
	return out, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, entry Entry, pkColumns []string, active bool, size int64) error {
	if err := validate(entry.Schema, entry.Table, entry.Engine); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.Key()
	existing, ok := s.entries[key]
	if !ok {
		entry.Status = FullLoad
		entry.PKColumns = pkColumns
		entry.Active = active
		entry.Size = size
		entry.PKStrategy = NormalizePKStrategy(entry.PKStrategy)
		if entry.SyncMetadata == nil {
			entry.SyncMetadata = map[string]any{}
		}
		s.entries[key] = entry
		return nil
	}

	existing.Size = size
	if !samePK(existing.PKColumns, pkColumns) {
		existing.Active = active
		existing.PKColumns = pkColumns
		existing.Status = FullLoad
	}
	s.entries[key] = existing
	return nil
}

func (s *MemoryStore) UpdateCluster(ctx context.Context, cluster, connection, engine string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if e.Connection == connection && e.Engine == engine {
			e.Cluster = cluster
			s.entries[k] = e
		}
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, schema, table, engine, connection string, dropTarget bool, target Target) error {
	if err := validate(schema, table, engine); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		if e.Schema != schema || e.Table != table || e.Engine != engine {
			continue
		}
		if connection != "" && e.Connection != connection {
			continue
		}
		if dropTarget && target != nil {
			if err := target.DropTable(ctx, schema, table); err != nil {
				return err
			}
		}
		delete(s.entries, k)
	}
	return nil
}

func (s *MemoryStore) ReactivateWithData(ctx context.Context, target Target) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updates := map[Key]Entry{}
	for k, e := range s.entries {
		if e.Active || e.Status != NoData {
			continue
		}
		count, exists, err := target.RowCount(ctx, e.Schema, e.Table)
		if err != nil {
			return 0, err
		}
		if exists && count > 0 {
			e.Active = true
			e.Size = count
			updates[k] = e
		}
	}
	for k, e := range updates {
		s.entries[k] = e
	}
	return len(updates), nil
}

func (s *MemoryStore) DeactivateEmpty(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for k, e := range s.entries {
		if e.Active && e.Size == 0 && e.Status == NoData {
			e.Active = false
			s.entries[k] = e
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) MarkInactiveAsSkip(ctx context.Context, truncateTarget bool, target Target) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updates := map[Key]Entry{}
	for k, e := range s.entries {
		if e.Active || e.Status == Skip {
			continue
		}
		if truncateTarget && target != nil {
			if err := target.DropTable(ctx, e.Schema, e.Table); err != nil {
				return 0, err
			}
		}
		e.Status = Skip
		updates[k] = e
	}
	for k, e := range updates {
		s.entries[k] = e
	}
	return len(updates), nil
}

func (s *MemoryStore) Reset(ctx context.Context, schema, table, engine string, target Target) error {
	if err := validate(schema, table, engine); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key{Schema: schema, Table: table, Engine: engine}
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if target != nil {
		if _, exists, _ := target.RowCount(ctx, schema, table); exists {
			if err := target.DropTable(ctx, schema, table); err != nil {
				return err
			}
		}
	}
	e.Status = FullLoad
	s.entries[key] = e
	return nil
}

func (s *MemoryStore) UpdateSyncState(ctx context.Context, schema, table, engine string, status Status, syncMetadata map[string]any) error {
	if err := validate(schema, table, engine); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key{Schema: schema, Table: table, Engine: engine}
	e, ok := s.entries[key]
	if !ok {
		return fmt.Errorf("catalog: update sync state: no entry for %s", key)
	}
	e.Status = status
	e.SyncMetadata = syncMetadata
	s.entries[key] = e
	return nil
}

func (s *MemoryStore) MigrateOffsetStrategy(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for k, e := range s.entries {
		if e.PKStrategy == pkStrategyOffset {
			e.PKStrategy = PKStrategyCDC
			s.entries[k] = e
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) TableSizesBatch(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.entries))
	for _, e := range s.entries {
		out[sizeKey(e.Schema, e.Table)] = e.Size
	}
	return out, nil
}
