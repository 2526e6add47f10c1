// Package catalog is the persistent registry of replicated tables: their
// source connection, lifecycle status, primary-key metadata, cluster
// label, approximate size, and sync watermark. It is grounded on the
// teacher's internal/mysql.TableMetadata (the shape of "everything we know
// about one table") but trades MySQL-only introspection for an
// engine-agnostic, persisted record with explicit lifecycle transitions.
package catalog

import "fmt"

// Status is a CatalogEntry's lifecycle state. Transitions are monotone
// within a sync run; NO_DATA and SKIP are sinks cleared only by explicit
// reactivation (ReactivateWithData, lifecycle commands).
type Status string

const (
	Pending          Status = "PENDING"
	FullLoad         Status = "FULL_LOAD"
	ListeningChanges Status = "LISTENING_CHANGES"
	NoData           Status = "NO_DATA"
	Skip             Status = "SKIP"
	Error            Status = "ERROR"
)

// PKStrategy names how a row's identity is tracked across CDC batches.
// OFFSET is a deprecated alias kept for config/data compatibility; new
// entries always resolve to CDC (see DESIGN.md Open Question decision).
type PKStrategy string

const (
	PKStrategyCDC    PKStrategy = "CDC"
	pkStrategyOffset PKStrategy = "OFFSET"
)

// NormalizePKStrategy maps the deprecated OFFSET alias, and the empty
// value, onto CDC, the only strategy this engine implements. Any other
// value is returned unchanged.
func NormalizePKStrategy(s PKStrategy) PKStrategy {
	if s == pkStrategyOffset || s == "" {
		return PKStrategyCDC
	}
	return s
}

// Entry is one tracked (schema, table, engine) tuple.
type Entry struct {
	Schema     string
	Table      string
	Engine     string
	Connection string
	Status     Status
	Active     bool
	Cluster    string
	PKColumns  []string
	PKStrategy PKStrategy
	Size       int64
	// SyncMetadata is opaque to the store; the replication worker stashes
	// the last change_id (or equivalent watermark) here under a
	// well-known key ("last_change_id").
	SyncMetadata map[string]any
}

// Key is the catalog's primary identity tuple.
type Key struct {
	Schema string
	Table  string
	Engine string
}

func (k Key) String() string { return fmt.Sprintf("%s.%s@%s", k.Schema, k.Table, k.Engine) }

// Key returns e's identity tuple.
func (e Entry) Key() Key { return Key{Schema: e.Schema, Table: e.Table, Engine: e.Engine} }

// UsesRowHash reports whether e has no declared primary key and must be
// tracked by a row-hash surrogate ("_hash" in ChangeLogRecord.PKValues).
func (e Entry) UsesRowHash() bool { return len(e.PKColumns) == 0 }

// lastChangeIDKey is the well-known SyncMetadata key carrying the
// replication watermark.
const lastChangeIDKey = "last_change_id"

// LastChangeID returns the watermark stashed in SyncMetadata, or 0 if
// never set.
func (e Entry) LastChangeID() int64 {
	if e.SyncMetadata == nil {
		return 0
	}
	switch v := e.SyncMetadata[lastChangeIDKey].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// SetLastChangeID returns a copy of e.SyncMetadata with the watermark set,
// leaving e itself untouched.
func (e Entry) SetLastChangeID(id int64) map[string]any {
	meta := make(map[string]any, len(e.SyncMetadata)+1)
	for k, v := range e.SyncMetadata {
		meta[k] = v
	}
	meta[lastChangeIDKey] = id
	return meta
}

// validate rejects writes with any empty identifying field, per the
// catalog's "empty identifying field aborts the write without side
// effects" contract.
func validate(schema, table, engine string) error {
	if schema == "" || table == "" || engine == "" {
		return fmt.Errorf("catalog: empty identifying field (schema=%q table=%q engine=%q)", schema, table, engine)
	}
	return nil
}

func samePK(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
