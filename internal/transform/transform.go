// Package transform is the transformation pipeline engine (C6): a runtime
// registry of named operators, pipeline validation, sequential execution
// with lineage recording, and a DistributionThresholds delegation check
// (Engine.Execute itself always runs locally and never consults it). It
// has no teacher analogue in dbsafe; its "registry of named
// implementations looked up by a type string" shape is grounded on the
// teacher's own output.Renderer factory (internal/output/renderer.go's
// NewRenderer switch-by-format-string), generalized from a fixed
// four-case switch into an open map so internal/transform/operator can
// register operators without this package knowing their names in advance.
package transform

import (
	"context"
	"fmt"
	"time"
)

// Row is the engine-wide row representation: an ordered sequence of rows
// is just []Row, each a mapping from column name to value.
type Row map[string]any

// Spec is one operator invocation in a pipeline: a type name plus an open
// configuration map specific to that operator.
type Spec struct {
	Type   string
	Config map[string]any
}

// Operator is the contract every entry in the registry implements.
type Operator interface {
	TypeName() string
	Validate(config map[string]any) error
	Execute(ctx context.Context, rows []Row, config map[string]any) ([]Row, error)
}

// Registry maps operator type names to implementations.
type Registry struct {
	operators map[string]Operator
}

// NewRegistry returns an empty Registry. Use Register to populate it;
// internal/transform/operator.RegisterAll wires the full set of 16.
func NewRegistry() *Registry {
	return &Registry{operators: make(map[string]Operator)}
}

// Register adds op under its own TypeName. Re-registering a type name
// overwrites the previous entry.
func (r *Registry) Register(op Operator) {
	r.operators[op.TypeName()] = op
}

// Lookup returns the operator registered for typeName.
func (r *Registry) Lookup(typeName string) (Operator, bool) {
	op, ok := r.operators[typeName]
	return op, ok
}

// LineageSink receives one TransformationRecord per executed step. A nil
// sink means lineage is not recorded.
type LineageSink interface {
	Record(ctx context.Context, rec TransformationRecord) error
}

// TransformationRecord is one pipeline step's lineage entry.
type TransformationRecord struct {
	TransformationID string
	Type             string
	Config           map[string]any
	Workflow         string
	Task             string
	ExecutionID      string
	InputSchemas     []string
	InputTables      []string
	InputColumns     []string
	OutputSchemas    []string
	OutputTables     []string
	OutputColumns    []string
	ExecutedAt       time.Time
	RowsProcessed    int
	DurationMS       int64
	Success          bool
	Error            string
}

// Warner receives a non-fatal warning about pipeline execution, e.g. a
// step that turned non-empty input into empty output.
type Warner func(step int, spec Spec, message string)

// Engine validates and executes pipelines against a Registry.
type Engine struct {
	registry *Registry
	lineage  LineageSink
	onWarn   Warner
}

// NewEngine returns an Engine bound to registry. lineage may be nil.
func NewEngine(registry *Registry, lineage LineageSink, onWarn Warner) *Engine {
	return &Engine{registry: registry, lineage: lineage, onWarn: onWarn}
}

// Validate checks every spec in pipeline against the registry before any
// step runs; a pipeline with one invalid step is rejected as a whole.
func (e *Engine) Validate(pipeline []Spec) error {
	for i, spec := range pipeline {
		op, ok := e.registry.Lookup(spec.Type)
		if !ok {
			return fmt.Errorf("transform: step %d: unknown operator type %q", i, spec.Type)
		}
		if err := op.Validate(spec.Config); err != nil {
			return fmt.Errorf("transform: step %d (%s): %w", i, spec.Type, err)
		}
	}
	return nil
}

// Execute runs pipeline's steps sequentially against rows, feeding each
// step's output into the next. Every step records a TransformationRecord
// if a lineage sink is configured. A step producing empty output from
// non-empty input triggers a warning callback rather than failing.
func (e *Engine) Execute(ctx context.Context, pipeline []Spec, rows []Row, executionID string) ([]Row, error) {
	if err := e.Validate(pipeline); err != nil {
		return nil, err
	}

	current := rows
	for i, spec := range pipeline {
		op, _ := e.registry.Lookup(spec.Type)
		start := time.Now()

		out, err := op.Execute(ctx, current, spec.Config)
		rec := TransformationRecord{
			TransformationID: fmt.Sprintf("%s-step%d", executionID, i),
			Type:             spec.Type,
			Config:           spec.Config,
			ExecutionID:      executionID,
			ExecutedAt:       start,
			RowsProcessed:    len(current),
			DurationMS:       time.Since(start).Milliseconds(),
			Success:          err == nil,
		}
		if err != nil {
			rec.Error = err.Error()
			if e.lineage != nil {
				_ = e.lineage.Record(ctx, rec)
			}
			return nil, fmt.Errorf("transform: step %d (%s): %w", i, spec.Type, err)
		}

		if len(current) > 0 && len(out) == 0 && e.onWarn != nil {
			e.onWarn(i, spec, "operator produced empty output from non-empty input")
		}

		if e.lineage != nil {
			if lerr := e.lineage.Record(ctx, rec); lerr != nil && e.onWarn != nil {
				e.onWarn(i, spec, fmt.Sprintf("lineage record failed: %v", lerr))
			}
		}

		current = out
	}
	return current, nil
}

// DistributionThresholds holds the inputs of the delegation decision:
// ShouldDelegate is true when ForceDistributed is set, or when the input
// row count reaches RowThreshold. Engine.Execute does not consult it and
// always runs the pipeline locally.
type DistributionThresholds struct {
	ForceDistributed bool
	RowThreshold     int
}

// ShouldDelegate reports whether a pipeline over inputRowCount rows
// should be translated to SQL and submitted to a distributed backend
// instead of executed locally.
func (t DistributionThresholds) ShouldDelegate(inputRowCount int) bool {
	return t.ForceDistributed || (t.RowThreshold > 0 && inputRowCount >= t.RowThreshold)
}
