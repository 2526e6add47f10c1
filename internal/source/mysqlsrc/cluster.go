package mysqlsrc

import (
	"context"
	"database/sql"
	"strings"
)

// ClusterLabel is a coarse topology label fed into CatalogEntry.Cluster,
// adapted from the teacher's internal/topology.Type enum but reduced to
// the handful of labels the catalog actually needs to group connections
// for failover-aware replica routing — the teacher's richer per-topology
// diagnostics (flow control, GR transaction limits) are analyzer-facing
// detail this adapter has no caller for.
type ClusterLabel string

const (
	ClusterStandalone ClusterLabel = "standalone"
	ClusterGalera     ClusterLabel = "galera"
	ClusterGroupRepl  ClusterLabel = "group-replication"
	ClusterReplica    ClusterLabel = "async-replica"
)

// DetectCluster probes wsrep_on and group_replication status variables to
// classify the connection's topology, mirroring the teacher's
// detectGalera/detectGroupReplication probes at reduced fidelity.
func (e *Engine) DetectCluster(ctx context.Context) ClusterLabel {
	if v, err := getVariable(ctx, e.db, "wsrep_on"); err == nil && strings.EqualFold(v, "ON") {
		return ClusterGalera
	}
	if v, err := getVariable(ctx, e.db, "group_replication_group_name"); err == nil && v != "" {
		return ClusterGroupRepl
	}
	var subordinate int
	if err := e.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM performance_schema.replication_connection_status").Scan(&subordinate); err == nil && subordinate > 0 {
		return ClusterReplica
	}
	return ClusterStandalone
}

func getVariable(ctx context.Context, db *sql.DB, name string) (string, error) {
	var varName, value sql.NullString
	err := db.QueryRowContext(ctx, "SHOW GLOBAL VARIABLES LIKE ?", name).Scan(&varName, &value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value.String, nil
}
