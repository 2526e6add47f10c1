// Package alerting is C11: governance rule evaluation plus webhook
// fan-out. It is grounded on the teacher's two-backend Store pattern
// (internal/catalog, internal/processlog) rather than on any teacher
// governance code, since the teacher has none — the rule checks
// themselves are ported from the original project's AlertingManager.
package alerting

import "time"

// Severity ranks an Alert or log line for filtering and channel styling.
type Severity string

const (
	Info     Severity = "INFO"
	Warning  Severity = "WARNING"
	Critical Severity = "CRITICAL"
	Error    Severity = "ERROR"
)

// Type names which governance check produced an Alert.
type Type string

const (
	DataQualityDegraded Type = "DATA_QUALITY_DEGRADED"
	PIIDetected         Type = "PII_DETECTED"
	AccessAnomaly       Type = "ACCESS_ANOMALY"
	RetentionExpired    Type = "RETENTION_EXPIRED"
	SchemaChange        Type = "SCHEMA_CHANGE"
	DataFreshness       Type = "DATA_FRESHNESS"
	PerformanceDegraded Type = "PERFORMANCE_DEGRADED"
	ComplianceViolation Type = "COMPLIANCE_VIOLATION"
	Custom              Type = "CUSTOM"
)

// Status is an Alert's lifecycle state. Alerts are append-only; only
// Status (and ResolvedAt/AssignedTo alongside it) ever changes after
// creation.
type Status string

const (
	Open         Status = "OPEN"
	Acknowledged Status = "ACKNOWLEDGED"
	Resolved     Status = "RESOLVED"
)

// Alert is one governance finding.
type Alert struct {
	ID         int64
	Type       Type
	Severity   Severity
	Title      string
	Message    string
	Schema     string
	Table      string
	Column     string
	Source     string
	Status     Status
	AssignedTo string
	ResolvedAt time.Time // zero until resolved
	Metadata   map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AlertRule is a named, independently enabled/disabled governance check.
// Condition and Threshold are descriptive metadata surfaced to operators;
// the actual check logic lives in the fixed Evaluator methods, one per
// Type, the same way the original implementation hard-codes one SQL
// check per alert type rather than interpreting Condition as an
// expression language.
type AlertRule struct {
	ID        int64
	Name      string
	Type      Type
	Severity  Severity
	Condition string
	Threshold float64
	Enabled   bool
	Channels  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
