// Package warehouse is the BRONZE/SILVER/GOLD build orchestrator (C10's
// warehouse half): it turns already-replicated raw tables into dimension
// and fact tables under SCD governance. It has no direct teacher
// analogue in dbsafe; its "declarative Model describing what to build,
// a Builder that walks it layer by layer" shape is grounded on the
// teacher's internal/analyzer.Analyze(Input) *Result orchestration
// pattern, generalized from one analysis pass into three sequential
// layer passes, the whole build bracketed by one internal/processlog.Run
// entry.
package warehouse

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/processlog"
	"github.com/tgberrios/datasync/internal/target"
	"github.com/tgberrios/datasync/internal/transform"
)

// SCDType selects the change-tracking discipline a dimension builds
// under.
type SCDType string

const (
	SCD1 SCDType = "SCD1" // overwrite in place, no history
	SCD2 SCDType = "SCD2" // full history via valid_from/valid_to/is_current
	SCD3 SCDType = "SCD3" // current value plus one prior value per column
)

// DimensionTable declares one GOLD dimension built from a SILVER table.
type DimensionTable struct {
	Name string

	// SilverSchema/SilverTable name the already-cleansed source rows this
	// dimension is built from (SILVER layer output, not the raw replicated
	// table).
	SilverSchema string
	SilverTable  string

	// BusinessKeys are the natural-key columns identifying one dimension
	// member; their concatenation is hashed into the surrogate dim_key
	// gold tables and facts join on.
	BusinessKeys []string

	// TrackedColumns are the descriptive attributes change detection
	// watches. Columns outside this list are carried but never trigger a
	// new SCD2 version or SCD3 prior-value shift.
	TrackedColumns []string

	SCD SCDType
}

// DimensionRef is one fact table's foreign key into a dimension, resolved
// against that dimension's current gold row at fact build time.
type DimensionRef struct {
	Dimension    string   // DimensionTable.Name this points at
	BusinessKeys []string // fact-row columns matching the dimension's BusinessKeys, same order
}

// FactTable declares one GOLD fact table, always full-loaded: a fact
// table is either fully rebuilt or left untouched, never patched in
// place.
type FactTable struct {
	Name string

	SilverSchema string
	SilverTable  string

	Refs     []DimensionRef
	Measures []string
}

// SilverSource is one BRONZE-to-SILVER mapping: raw replicated rows read
// from RawSchema.RawTable, run through the Model's Pipeline, and written
// to SilverSchema.SilverTable.
type SilverSource struct {
	RawSchema, RawTable       string
	SilverSchema, SilverTable string
}

// Model is one warehouse's declarative build target: a SILVER
// transformation pipeline plus the GOLD dimensions and facts built from
// its output.
type Model struct {
	Name string

	// Pipeline is the C6 operator chain applied to bronze rows before
	// they are considered SILVER. May be empty for already-clean sources.
	Pipeline []transform.Spec

	Sources []SilverSource

	GoldSchema string

	Dimensions []DimensionTable
	Facts      []FactTable
}

// Builder runs Model builds against a single warehouse engine: bronze,
// silver, and gold layers all live as schemas on the same target.Engine,
// since by the time C10 runs, C5 has already landed the raw rows there.
type Builder struct {
	Warehouse target.Engine
	Transform *transform.Engine
	Log       processlog.Store
}

// NewBuilder wires a Builder. transformEngine may be nil when every
// Model built through it has an empty Pipeline.
func NewBuilder(warehouse target.Engine, transformEngine *transform.Engine, log processlog.Store) *Builder {
	return &Builder{Warehouse: warehouse, Transform: transformEngine, Log: log}
}

// BuildResult summarizes one Model build.
type BuildResult struct {
	SilverRowsWritten int64
	DimensionRows     map[string]int64
	FactRows          map[string]int64
}

// Build runs Model's full SILVER-then-GOLD pipeline, bracketed by a
// single processlog entry under entity "warehouse:<Model.Name>". Per
// §4.10, a dimension or fact is either fully rebuilt or left at its last
// successful state: a mid-build failure does not log a partial result as
// success.
func (b *Builder) Build(ctx context.Context, model Model) (BuildResult, error) {
	var result BuildResult
	err := processlog.Run(ctx, b.Log, "warehouse:"+model.Name, map[string]any{
		"dimensions": len(model.Dimensions),
		"facts":      len(model.Facts),
	}, func(ctx context.Context) (int64, error) {
		var total int64

		silverRows, err := b.buildSilver(ctx, model)
		if err != nil {
			return total, fmt.Errorf("warehouse %s: silver: %w", model.Name, err)
		}
		result.SilverRowsWritten = silverRows
		total += silverRows

		if err := b.Warehouse.CreateSchema(ctx, model.GoldSchema); err != nil {
			return total, fmt.Errorf("warehouse %s: create gold schema: %w", model.Name, err)
		}

		result.DimensionRows = make(map[string]int64, len(model.Dimensions))
		for _, dim := range model.Dimensions {
			n, err := b.buildDimension(ctx, model.GoldSchema, dim)
			if err != nil {
				return total, fmt.Errorf("warehouse %s: dimension %s: %w", model.Name, dim.Name, err)
			}
			result.DimensionRows[dim.Name] = n
			total += n
		}

		result.FactRows = make(map[string]int64, len(model.Facts))
		for _, fact := range model.Facts {
			n, err := b.buildFact(ctx, model, fact)
			if err != nil {
				return total, fmt.Errorf("warehouse %s: fact %s: %w", model.Name, fact.Name, err)
			}
			result.FactRows[fact.Name] = n
			total += n
		}

		return total, nil
	})
	return result, err
}
