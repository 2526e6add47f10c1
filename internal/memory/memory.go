// Package memory tracks per-process memory usage for the replication and
// transformation engines, with configurable warning/critical thresholds,
// spill-to-disk for over-limit allocations, and a small-block pool to
// reduce allocator churn. It has no direct teacher analogue (dbsafe is a
// one-shot CLI with no sustained working set); it is grounded on
// AKJUS-bsc-erigon's size-class pool usage and golang/snappy spill
// compression, composed into the accounting shape spec'd by the memory
// manager.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/snappy"
	"github.com/google/uuid"
)

// smallBlockThreshold is the size below which allocations are served from
// a size-class pool instead of tracked individually.
const smallBlockThreshold = 4 * 1024

// Stats is a point-in-time snapshot of the manager's accounting.
type Stats struct {
	Current         int64
	Peak            int64
	TotalAllocated  int64
	TotalFreed      int64
	AllocCount      int64
	FreeCount       int64
	SpillCount      int64
	SpillBytes      int64
	AverageAllocLen float64
}

// ThresholdFunc is invoked once when usage rises past a threshold; it is
// not invoked again until an allocation finds usage back under it.
type ThresholdFunc func(stats Stats)

// Config configures one Manager instance.
type Config struct {
	Max             int64 // byte ceiling before spill/failure
	SpillEnabled    bool
	SpillDir        string
	WarningRatio    float64 // default 0.75
	CriticalRatio   float64 // default 0.90
	OnWarning       ThresholdFunc
	OnCritical      ThresholdFunc
}

// Manager is a single process-wide memory accounting instance. It is safe
// for concurrent use.
type Manager struct {
	cfg Config

	mu      sync.Mutex
	current int64
	peak    int64
	totalA  int64
	totalF  int64
	allocN  int64
	freeN   int64
	spillN  int64
	spillB  int64

	warningFired  bool
	criticalFired bool

	pools map[int]*sync.Pool

	spillFiles   map[string]bool
	spillFilesMu sync.Mutex
}

// New returns a Manager with cfg defaults filled in (warning 0.75,
// critical 0.90 of Max if unset).
func New(cfg Config) *Manager {
	if cfg.WarningRatio == 0 {
		cfg.WarningRatio = 0.75
	}
	if cfg.CriticalRatio == 0 {
		cfg.CriticalRatio = 0.90
	}
	if cfg.SpillDir == "" {
		cfg.SpillDir = os.TempDir()
	}
	return &Manager{
		cfg:        cfg,
		pools:      make(map[int]*sync.Pool),
		spillFiles: make(map[string]bool),
	}
}

// poolFor returns (creating if needed) the size-class pool for
// allocations of exactly size bytes. Callers round size up to a class
// boundary before calling this; Allocate does that for anything under
// smallBlockThreshold.
func (m *Manager) poolFor(size int) *sync.Pool {
	m.mu.Lock()
	p, ok := m.pools[size]
	if !ok {
		sz := size
		p = &sync.Pool{New: func() any { return make([]byte, sz) }}
		m.pools[size] = p
	}
	m.mu.Unlock()
	return p
}

func sizeClass(size int) int {
	// Round up to the next power of two, minimum 64 bytes.
	class := 64
	for class < size {
		class *= 2
	}
	return class
}

// Allocate reserves size bytes of accounting headroom and returns a
// byte slice of that length — pulled from a size-class pool when
// size < 4 KiB, freshly made otherwise. If current+size exceeds Max and
// spill is enabled, the allocation still succeeds but crosses whatever
// thresholds apply; if spill is disabled and the limit is exceeded,
// Allocate returns an error and no buffer.
func (m *Manager) Allocate(size int) ([]byte, error) {
	m.mu.Lock()
	next := m.current + int64(size)
	if next > m.cfg.Max && !m.cfg.SpillEnabled {
		m.mu.Unlock()
		return nil, fmt.Errorf("memory: allocation of %d bytes exceeds max %d and spill is disabled", size, m.cfg.Max)
	}

	m.current = next
	m.totalA += int64(size)
	m.allocN++
	if m.current > m.peak {
		m.peak = m.current
	}
	stats := m.statsLocked()
	m.mu.Unlock()

	m.checkThresholds(stats)

	if size > 0 && size < smallBlockThreshold {
		class := sizeClass(size)
		buf := m.poolFor(class).Get().([]byte)
		return buf[:size], nil
	}
	return make([]byte, size), nil
}

// Deallocate releases size bytes of accounting headroom. If buf came from
// a pooled small-block allocation, callers should pass it back so the
// underlying array is returned to its size class; passing nil is safe
// (Deallocate still updates accounting).
func (m *Manager) Deallocate(buf []byte, size int) {
	m.mu.Lock()
	m.current -= int64(size)
	if m.current < 0 {
		m.current = 0
	}
	m.totalF += int64(size)
	m.freeN++
	m.mu.Unlock()

	if buf != nil && cap(buf) < smallBlockThreshold && cap(buf) > 0 {
		class := sizeClass(cap(buf))
		m.poolFor(class).Put(buf[:cap(buf)])
	}
}

func (m *Manager) checkThresholds(stats Stats) {
	if m.cfg.Max <= 0 {
		return
	}
	ratio := float64(stats.Current) / float64(m.cfg.Max)

	m.mu.Lock()
	crossedWarning := ratio >= m.cfg.WarningRatio && !m.warningFired
	crossedCritical := ratio >= m.cfg.CriticalRatio && !m.criticalFired
	if crossedWarning {
		m.warningFired = true
	}
	if crossedCritical {
		m.criticalFired = true
	}
	if ratio < m.cfg.WarningRatio {
		m.warningFired = false
	}
	if ratio < m.cfg.CriticalRatio {
		m.criticalFired = false
	}
	m.mu.Unlock()

	if crossedWarning && m.cfg.OnWarning != nil {
		m.cfg.OnWarning(stats)
	}
	if crossedCritical && m.cfg.OnCritical != nil {
		m.cfg.OnCritical(stats)
	}
}

func (m *Manager) statsLocked() Stats {
	avg := float64(0)
	if m.allocN > 0 {
		avg = float64(m.totalA) / float64(m.allocN)
	}
	return Stats{
		Current:         m.current,
		Peak:            m.peak,
		TotalAllocated:  m.totalA,
		TotalFreed:      m.totalF,
		AllocCount:      m.allocN,
		FreeCount:       m.freeN,
		SpillCount:      m.spillN,
		SpillBytes:      m.spillB,
		AverageAllocLen: avg,
	}
}

// Stats returns a snapshot of the manager's accounting.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsLocked()
}

// Spill writes data to a new file under the configured spill directory,
// compressed with snappy (the spill format is opaque to callers), and
// returns the file path. The manager tracks every file it creates so
// Teardown can remove them.
func (m *Manager) Spill(data []byte, prefix string) (string, error) {
	name := fmt.Sprintf("%s-%s.snappy", prefix, uuid.NewString())
	path := filepath.Join(m.cfg.SpillDir, name)

	compressed := snappy.Encode(nil, data)
	if err := os.WriteFile(path, compressed, 0o600); err != nil {
		return "", fmt.Errorf("memory: spill write: %w", err)
	}

	m.spillFilesMu.Lock()
	m.spillFiles[path] = true
	m.spillFilesMu.Unlock()

	m.mu.Lock()
	m.spillN++
	m.spillB += int64(len(compressed))
	m.mu.Unlock()

	return path, nil
}

// Load reads back and decompresses a file written by Spill.
func (m *Manager) Load(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memory: spill read: %w", err)
	}
	data, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("memory: spill decode: %w", err)
	}
	return data, nil
}

// Teardown removes every spill file this manager created.
func (m *Manager) Teardown() {
	m.spillFilesMu.Lock()
	defer m.spillFilesMu.Unlock()
	for path := range m.spillFiles {
		os.Remove(path)
		delete(m.spillFiles, path)
	}
}
