// Package schema compares source and target column sets and emits the DDL
// needed to reconcile them. It is grounded on the teacher's
// internal/analyzer/ddl_matrix.go: a compatibility predicate expressed as a
// map keyed by a small struct, the same "rule table, not a chain of ifs"
// idiom, generalized from MySQL's algorithm/lock matrix to a
// source-type-to-target-type compatibility matrix that works across
// dialects.
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ColumnInfo describes one column as seen by a source adapter or stored on
// a target table. Equality for diffing purposes uses only Name,
// TargetType, and Nullable; the remaining fields are advisory.
type ColumnInfo struct {
	Name             string
	SourceType       string
	TargetType       string
	Nullable         bool
	Default          string
	Ordinal          int
	MaxLength        int
	NumericPrecision int
	NumericScale     int
	IsPrimaryKey     bool
}

func normalize(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// ColumnPair is an (old, new) pair for a modified column.
type ColumnPair struct {
	Old ColumnInfo
	New ColumnInfo
}

// Diff is the three-list delta between a source and a target column set.
type Diff struct {
	ColumnsToAdd    []ColumnInfo
	ColumnsToDrop   []ColumnInfo
	ColumnsToModify []ColumnPair
}

// HasChanges reports whether any of the three lists is non-empty.
func (d Diff) HasChanges() bool {
	return len(d.ColumnsToAdd) > 0 || len(d.ColumnsToDrop) > 0 || len(d.ColumnsToModify) > 0
}

// DiffColumns computes Diff by matching column names case-insensitively.
// Add holds columns present in source but not target; Drop holds columns
// present in target but not source; Modify holds same-name columns whose
// TargetType or Nullable differs.
func DiffColumns(sourceCols, targetCols []ColumnInfo) Diff {
	bySourceName := make(map[string]ColumnInfo, len(sourceCols))
	for _, c := range sourceCols {
		bySourceName[normalize(c.Name)] = c
	}
	byTargetName := make(map[string]ColumnInfo, len(targetCols))
	for _, c := range targetCols {
		byTargetName[normalize(c.Name)] = c
	}

	var d Diff
	for name, sc := range bySourceName {
		tc, ok := byTargetName[name]
		if !ok {
			d.ColumnsToAdd = append(d.ColumnsToAdd, sc)
			continue
		}
		if sc.TargetType != tc.TargetType || sc.Nullable != tc.Nullable {
			d.ColumnsToModify = append(d.ColumnsToModify, ColumnPair{Old: tc, New: sc})
		}
	}
	for name, tc := range byTargetName {
		if _, ok := bySourceName[name]; !ok {
			d.ColumnsToDrop = append(d.ColumnsToDrop, tc)
		}
	}
	return d
}

// ErrPrimaryKeyChange is returned by Apply when a diff would add or drop a
// primary-key column. The caller must reset the table to FULL_LOAD instead
// of applying the diff in place.
var ErrPrimaryKeyChange = errors.New("schema: primary key column add/drop requires FULL_LOAD reset")

// Executor is the slice of the target warehouse engine Apply needs: DDL
// execution and identifier quoting. internal/target dialects satisfy it.
type Executor interface {
	ExecuteStatement(ctx context.Context, sql string) error
	QuoteIdentifier(s string) string
}

// Apply emits ALTER TABLE statements for d against (schema, table) via
// exec. Adds and drops of non-PK columns always run; modifies run only
// when the type change is compatible, otherwise are skipped (the caller's
// logger should record the skip). Any add/drop touching a primary-key
// column aborts immediately with ErrPrimaryKeyChange and applies nothing
// further for that column.
func Apply(ctx context.Context, exec Executor, schemaName, table string, d Diff, onSkip func(ColumnPair)) error {
	qualified := exec.QuoteIdentifier(schemaName) + "." + exec.QuoteIdentifier(table)

	for _, c := range d.ColumnsToAdd {
		if c.IsPrimaryKey {
			return fmt.Errorf("schema: add %s.%s: %w", qualified, c.Name, ErrPrimaryKeyChange)
		}
		nullability := "NOT NULL"
		if c.Nullable {
			nullability = "NULL"
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s %s", qualified, exec.QuoteIdentifier(c.Name), c.TargetType, nullability)
		if err := exec.ExecuteStatement(ctx, stmt); err != nil {
			return fmt.Errorf("schema: add column %s: %w", c.Name, err)
		}
	}

	for _, c := range d.ColumnsToDrop {
		if c.IsPrimaryKey {
			return fmt.Errorf("schema: drop %s.%s: %w", qualified, c.Name, ErrPrimaryKeyChange)
		}
		stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", qualified, exec.QuoteIdentifier(c.Name))
		if err := exec.ExecuteStatement(ctx, stmt); err != nil {
			return fmt.Errorf("schema: drop column %s: %w", c.Name, err)
		}
	}

	for _, pair := range d.ColumnsToModify {
		if !Compatible(pair.Old.TargetType, pair.New.TargetType) {
			if onSkip != nil {
				onSkip(pair)
			}
			continue
		}
		nullability := "NOT NULL"
		if pair.New.Nullable {
			nullability = "NULL"
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s, ALTER COLUMN %s %s",
			qualified, exec.QuoteIdentifier(pair.New.Name), pair.New.TargetType,
			exec.QuoteIdentifier(pair.New.Name), nullability)
		if err := exec.ExecuteStatement(ctx, stmt); err != nil {
			return fmt.Errorf("schema: modify column %s: %w", pair.New.Name, err)
		}
	}
	return nil
}

// Sync composes DiffColumns and Apply. If targetExists is false, it
// returns success with no DDL: creation at first load is the replication
// worker's responsibility, not the synchronizer's.
func Sync(ctx context.Context, exec Executor, schemaName, table string, sourceCols, targetCols []ColumnInfo, targetExists bool, onSkip func(ColumnPair)) (Diff, error) {
	if !targetExists {
		return Diff{}, nil
	}
	d := DiffColumns(sourceCols, targetCols)
	if !d.HasChanges() {
		return d, nil
	}
	return d, Apply(ctx, exec, schemaName, table, d, onSkip)
}
