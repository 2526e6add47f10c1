package join

import (
	"fmt"
	"time"

	"github.com/tgberrios/datasync/internal/transform"
)

// OuterType names the four supported join modes.
type OuterType string

const (
	Inner     OuterType = "inner"
	Left      OuterType = "left"
	Right     OuterType = "right"
	FullOuter OuterType = "full_outer"
)

// Result is what every executor produces: the joined rows plus the
// observability fields the spec requires (AlgorithmUsed, elapsed time).
type Result struct {
	Rows          []transform.Row
	AlgorithmUsed Algorithm
	Elapsed       time.Duration
}

// Execute selects an algorithm via Select and runs the matching local
// executor.
func Execute(cfg Config, left, right []transform.Row, leftCols, rightCols []string, outer OuterType) (Result, error) {
	switch outer {
	case Inner, Left, Right, FullOuter:
	default:
		return Result{}, fmt.Errorf("join: unknown outer type %q", outer)
	}

	algo := Select(cfg)
	start := time.Now()

	leftNames := rowColumnNames(left)
	rightNames := rowColumnNames(right)

	var rows []transform.Row
	switch algo {
	case HashJoin:
		rows = hashJoin(left, right, leftCols, rightCols, leftNames, rightNames, outer)
	case SortMergeJoin:
		rows = sortMergeJoin(left, right, leftCols, rightCols, leftNames, rightNames, outer)
	case NestedLoop:
		rows = nestedLoopJoin(left, right, leftCols, rightCols, leftNames, rightNames, outer)
	default:
		return Result{}, fmt.Errorf("join: unresolved algorithm %q", algo)
	}

	return Result{Rows: rows, AlgorithmUsed: algo, Elapsed: time.Since(start)}, nil
}

func keyOf(row transform.Row, columns []string) (string, bool) {
	key := ""
	for _, c := range columns {
		v, ok := row[c]
		if !ok || v == nil {
			return "", false
		}
		key += "\x1f" + fmt.Sprintf("%v", v)
	}
	return key, true
}

// rowColumnNames collects the union of column names across rows, used to
// know which columns an unmatched outer-join side's schema owns.
func rowColumnNames(rows []transform.Row) []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	return names
}

// mergeRows combines a matched (or half-nil, for outer joins) pair of rows.
// Colliding right-side column names are namespaced "right_"; an absent
// side's schema columns are still written explicitly as nil rather than
// left out of the merged row.
func mergeRows(left, right transform.Row, leftNames, rightNames []string) transform.Row {
	leftSet := make(map[string]bool, len(leftNames))
	for _, k := range leftNames {
		leftSet[k] = true
	}

	merged := transform.Row{}
	for k, v := range left {
		merged[k] = v
	}
	for k, v := range right {
		if leftSet[k] {
			merged["right_"+k] = v
		} else {
			merged[k] = v
		}
	}

	for _, k := range leftNames {
		if _, ok := merged[k]; !ok {
			merged[k] = nil
		}
	}
	for _, k := range rightNames {
		target := k
		if leftSet[k] {
			target = "right_" + k
		}
		if _, ok := merged[target]; !ok {
			merged[target] = nil
		}
	}
	return merged
}
