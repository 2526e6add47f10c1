package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/tgberrios/datasync/internal/target"
)

// TargetSource is the production GovernanceSource, reading the
// governance catalog and access log tables the original implementation
// scanned directly via SQL (metadata.data_governance_catalog,
// metadata.data_access_log), adapted to target.Engine.ExecuteQuery so it
// works against any wired target dialect rather than only Postgres.
type TargetSource struct {
	Target       target.Engine
	MetaSchema   string // e.g. "metadata"
	AccessWindow time.Duration
}

// NewTargetSource wires a TargetSource with a 24h access-log lookback,
// the same window the original implementation's checkAccessAnomalies
// query used ("access_timestamp >= NOW() - INTERVAL '1 day'").
func NewTargetSource(eng target.Engine, metaSchema string) *TargetSource {
	return &TargetSource{Target: eng, MetaSchema: metaSchema, AccessWindow: 24 * time.Hour}
}

func (s *TargetSource) ListGovernanceFacts(ctx context.Context) ([]GovernanceFact, error) {
	rows, err := s.Target.ExecuteQuery(ctx, fmt.Sprintf(`
SELECT schema_name, table_name, data_quality_score, last_analyzed,
       sensitive_data_count, encryption_at_rest, masking_policy_applied,
       retention_enforced, data_expiration_date, legal_hold,
       schema_evolution_tracking, last_schema_change,
       data_freshness_threshold_hours, fragmentation_percentage,
       compliance_requirements
FROM %s.data_governance_catalog`, s.Target.QuoteIdentifier(s.MetaSchema)))
	if err != nil {
		return nil, fmt.Errorf("alerting: list governance facts: %w", err)
	}

	facts := make([]GovernanceFact, 0, len(rows))
	for _, r := range rows {
		facts = append(facts, GovernanceFact{
			Schema:                  rowString(r, "schema_name"),
			Table:                   rowString(r, "table_name"),
			DataQualityScore:        rowFloat(r, "data_quality_score"),
			LastAnalyzed:            rowTime(r, "last_analyzed"),
			SensitiveColumnCount:    int(rowFloat(r, "sensitive_data_count")),
			EncryptionAtRest:        rowBool(r, "encryption_at_rest"),
			MaskingApplied:          rowBool(r, "masking_policy_applied"),
			RetentionEnforced:       rowBool(r, "retention_enforced"),
			ExpiresAt:               rowTime(r, "data_expiration_date"),
			LegalHold:               rowBool(r, "legal_hold"),
			SchemaEvolutionTracking: rowBool(r, "schema_evolution_tracking"),
			LastSchemaChange:        rowTime(r, "last_schema_change"),
			FreshnessThresholdHours: int(rowFloat(r, "data_freshness_threshold_hours")),
			FragmentationPercent:    rowFloat(r, "fragmentation_percentage"),
			ComplianceRequirements:  rowString(r, "compliance_requirements"),
		})
	}
	return facts, nil
}

func (s *TargetSource) ListSensitiveAccess(ctx context.Context, lookback time.Duration) ([]AccessRecord, error) {
	if lookback <= 0 {
		lookback = s.AccessWindow
	}
	cutoff := now().Add(-lookback)
	rows, err := s.Target.ExecuteQuery(ctx, fmt.Sprintf(`
SELECT username, COUNT(*) AS access_count, COUNT(DISTINCT table_name) AS table_count
FROM %s.data_access_log
WHERE is_sensitive_data = true AND access_timestamp >= %s
GROUP BY username`, s.Target.QuoteIdentifier(s.MetaSchema), s.Target.QuoteValue(cutoff)))
	if err != nil {
		return nil, fmt.Errorf("alerting: list sensitive access: %w", err)
	}

	out := make([]AccessRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, AccessRecord{
			Username:           rowString(r, "username"),
			AccessCount:        int64(rowFloat(r, "access_count")),
			DistinctTableCount: int64(rowFloat(r, "table_count")),
		})
	}
	return out, nil
}

func rowString(r target.Row, col string) string {
	v, _ := r[col].(string)
	return v
}

func rowBool(r target.Row, col string) bool {
	v, _ := r[col].(bool)
	return v
}

func rowFloat(r target.Row, col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func rowTime(r target.Row, col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	default:
		return time.Time{}
	}
}
