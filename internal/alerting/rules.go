package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/tgberrios/datasync/internal/config"
)

// GovernanceFact is one table's governance attributes as of the last
// analysis pass, the data the eight check methods scan. It deliberately
// does not reuse internal/catalog.Entry: the catalog tracks replication
// lifecycle, not data-quality/PII/retention metadata, and coupling the
// two would force every replication-only caller to populate fields it
// has no way to know.
type GovernanceFact struct {
	Schema, Table string

	DataQualityScore     float64
	LastAnalyzed         time.Time
	SensitiveColumnCount int
	EncryptionAtRest     bool
	MaskingApplied       bool

	RetentionEnforced bool
	ExpiresAt         time.Time // zero means no expiration set
	LegalHold         bool

	SchemaEvolutionTracking bool
	LastSchemaChange        time.Time

	FreshnessThresholdHours int // 0 means no freshness SLA configured

	FragmentationPercent float64

	ComplianceRequirements string // e.g. "PCI-DSS", empty if none apply
}

// AccessRecord summarizes one user's sensitive-table access over the
// lookback window the access-anomaly check scans.
type AccessRecord struct {
	Username           string
	AccessCount        int64
	DistinctTableCount int64
}

// GovernanceSource supplies the data the governance checks scan. A
// narrow interface, the same shape as internal/catalog.Target, so
// internal/alerting never needs to import internal/catalog.
type GovernanceSource interface {
	ListGovernanceFacts(ctx context.Context) ([]GovernanceFact, error)
	ListSensitiveAccess(ctx context.Context, lookback time.Duration) ([]AccessRecord, error)
}

// Thresholds parameterizes the eight checks; zero-value Thresholds falls
// back to the original defaults baked into the ported checks.
type Thresholds struct {
	DataQualityWarn       float64 // below this, WARNING (default 70)
	DataQualityCritical   float64 // below this, CRITICAL (default 50)
	FragmentationWarn     float64 // default 30
	FragmentationCritical float64 // default 50
	AccessCountMax        int64   // default 1000
	AccessTableCountMax   int64   // default 50
	DefaultFreshnessHours int     // used when a table sets none (default 24)
}

// ThresholdsFromConfig adapts the operator-facing config.Alerting block
// into Thresholds.
func ThresholdsFromConfig(cfg config.Alerting) Thresholds {
	return Thresholds{
		DataQualityWarn:       cfg.DataQualityWarn,
		DataQualityCritical:   cfg.DataQualityCritical,
		FragmentationWarn:     cfg.FragmentationWarn,
		FragmentationCritical: cfg.FragmentationCritical,
		AccessCountMax:        cfg.AccessCountMax,
		AccessTableCountMax:   cfg.AccessTableCountMax,
		DefaultFreshnessHours: cfg.DefaultFreshnessHours,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	if t.DataQualityWarn == 0 {
		t.DataQualityWarn = 70
	}
	if t.DataQualityCritical == 0 {
		t.DataQualityCritical = 50
	}
	if t.FragmentationWarn == 0 {
		t.FragmentationWarn = 30
	}
	if t.FragmentationCritical == 0 {
		t.FragmentationCritical = 50
	}
	if t.AccessCountMax == 0 {
		t.AccessCountMax = 1000
	}
	if t.AccessTableCountMax == 0 {
		t.AccessTableCountMax = 50
	}
	if t.DefaultFreshnessHours == 0 {
		t.DefaultFreshnessHours = 24
	}
	return t
}

// Evaluator runs the eight governance checks against a GovernanceSource,
// producing zero or one Alert per firing rule per fact/record.
type Evaluator struct {
	Source     GovernanceSource
	Thresholds Thresholds
}

// NewEvaluator wires an Evaluator with defaulted thresholds.
func NewEvaluator(source GovernanceSource, thresholds Thresholds) *Evaluator {
	return &Evaluator{Source: source, Thresholds: thresholds.withDefaults()}
}

// RunAllChecks evaluates every check and returns the union of Alerts
// that fired, CreatedAt/ID left zero for the caller's Store to stamp.
func (e *Evaluator) RunAllChecks(ctx context.Context) ([]Alert, error) {
	facts, err := e.Source.ListGovernanceFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("alerting: list governance facts: %w", err)
	}
	access, err := e.Source.ListSensitiveAccess(ctx, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("alerting: list sensitive access: %w", err)
	}

	var out []Alert
	now := now()
	for _, f := range facts {
		out = append(out, e.checkDataQuality(f, now)...)
		out = append(out, e.checkPII(f)...)
		out = append(out, e.checkRetention(f, now)...)
		out = append(out, e.checkSchemaChange(f, now)...)
		out = append(out, e.checkFreshness(f, now)...)
		out = append(out, e.checkFragmentation(f)...)
		out = append(out, e.checkCompliance(f)...)
	}
	out = append(out, e.checkAccessAnomalies(access)...)
	return out, nil
}

func (e *Evaluator) checkDataQuality(f GovernanceFact, now time.Time) []Alert {
	if f.LastAnalyzed.Before(now.Add(-24 * time.Hour)) {
		return nil
	}
	if f.DataQualityScore >= e.Thresholds.DataQualityWarn {
		return nil
	}
	sev := Warning
	if f.DataQualityScore < e.Thresholds.DataQualityCritical {
		sev = Critical
	}
	return []Alert{{
		Type: DataQualityDegraded, Severity: sev,
		Title:   "Data Quality Degraded",
		Message: fmt.Sprintf("data quality score is %.1f (below threshold of %.1f)", f.DataQualityScore, e.Thresholds.DataQualityWarn),
		Schema:  f.Schema, Table: f.Table, Source: "DataQualityMonitor",
		Metadata: map[string]any{"quality_score": f.DataQualityScore, "threshold": e.Thresholds.DataQualityWarn},
	}}
}

func (e *Evaluator) checkPII(f GovernanceFact) []Alert {
	if f.SensitiveColumnCount == 0 || (f.EncryptionAtRest && f.MaskingApplied) {
		return nil
	}
	return []Alert{{
		Type: PIIDetected, Severity: Critical,
		Title:   "PII Detected Without Protection",
		Message: fmt.Sprintf("table has %d sensitive columns but encryption/masking not fully applied", f.SensitiveColumnCount),
		Schema:  f.Schema, Table: f.Table, Source: "PIIDetector",
		Metadata: map[string]any{"sensitive_column_count": f.SensitiveColumnCount},
	}}
}

func (e *Evaluator) checkAccessAnomalies(records []AccessRecord) []Alert {
	var out []Alert
	for _, r := range records {
		if r.AccessCount <= e.Thresholds.AccessCountMax && r.DistinctTableCount <= e.Thresholds.AccessTableCountMax {
			continue
		}
		out = append(out, Alert{
			Type: AccessAnomaly, Severity: Warning,
			Title:   "Access Anomaly Detected",
			Message: fmt.Sprintf("user %s accessed sensitive data %d times across %d tables", r.Username, r.AccessCount, r.DistinctTableCount),
			Source:  "AccessMonitor",
			Metadata: map[string]any{
				"username": r.Username, "access_count": r.AccessCount, "table_count": r.DistinctTableCount,
			},
		})
	}
	return out
}

func (e *Evaluator) checkRetention(f GovernanceFact, now time.Time) []Alert {
	if !f.RetentionEnforced || f.ExpiresAt.IsZero() || f.LegalHold {
		return nil
	}
	if f.ExpiresAt.After(now) {
		return nil
	}
	return []Alert{{
		Type: RetentionExpired, Severity: Warning,
		Title:    "Data Retention Expired",
		Message:  fmt.Sprintf("data expiration date (%s) has passed; data should be archived or deleted", f.ExpiresAt.Format(time.RFC3339)),
		Schema:   f.Schema, Table: f.Table, Source: "RetentionManager",
		Metadata: map[string]any{"expires_at": f.ExpiresAt},
	}}
}

func (e *Evaluator) checkSchemaChange(f GovernanceFact, now time.Time) []Alert {
	if !f.SchemaEvolutionTracking || f.LastSchemaChange.Before(now.Add(-24*time.Hour)) {
		return nil
	}
	return []Alert{{
		Type: SchemaChange, Severity: Info,
		Title:    "Schema Change Detected",
		Message:  fmt.Sprintf("schema changed at %s", f.LastSchemaChange.Format(time.RFC3339)),
		Schema:   f.Schema, Table: f.Table, Source: "SchemaMonitor",
		Metadata: map[string]any{"last_schema_change": f.LastSchemaChange},
	}}
}

func (e *Evaluator) checkFreshness(f GovernanceFact, now time.Time) []Alert {
	threshold := f.FreshnessThresholdHours
	if threshold <= 0 {
		threshold = e.Thresholds.DefaultFreshnessHours
	}
	if threshold <= 0 {
		return nil
	}
	if !f.LastAnalyzed.Before(now.Add(-time.Duration(threshold) * time.Hour)) {
		return nil
	}
	return []Alert{{
		Type: DataFreshness, Severity: Warning,
		Title:    "Data Freshness Threshold Exceeded",
		Message:  fmt.Sprintf("data last analyzed %s (threshold: %dh)", f.LastAnalyzed.Format(time.RFC3339), threshold),
		Schema:   f.Schema, Table: f.Table, Source: "FreshnessMonitor",
		Metadata: map[string]any{"last_analyzed": f.LastAnalyzed, "threshold_hours": threshold},
	}}
}

func (e *Evaluator) checkFragmentation(f GovernanceFact) []Alert {
	if f.FragmentationPercent <= e.Thresholds.FragmentationWarn {
		return nil
	}
	sev := Warning
	if f.FragmentationPercent > e.Thresholds.FragmentationCritical {
		sev = Critical
	}
	return []Alert{{
		Type: PerformanceDegraded, Severity: sev,
		Title:    "Performance Degradation",
		Message:  fmt.Sprintf("table fragmentation is %.1f%%", f.FragmentationPercent),
		Schema:   f.Schema, Table: f.Table, Source: "PerformanceMonitor",
		Metadata: map[string]any{"fragmentation_percentage": f.FragmentationPercent},
	}}
}

func (e *Evaluator) checkCompliance(f GovernanceFact) []Alert {
	if f.ComplianceRequirements == "" || f.EncryptionAtRest {
		return nil
	}
	return []Alert{{
		Type: ComplianceViolation, Severity: Critical,
		Title:    "Compliance Violation",
		Message:  fmt.Sprintf("table requires %s compliance but encryption not enabled", f.ComplianceRequirements),
		Schema:   f.Schema, Table: f.Table, Source: "ComplianceMonitor",
		Metadata: map[string]any{"compliance_requirements": f.ComplianceRequirements},
	}}
}
