package operator

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/transform"
)

// Join performs an equi-join between the pipeline's input rows (left
// side) and right_data (right side) over left_columns/right_columns.
// Right-side columns that collide with left-side names are namespaced
// with "right_".
type Join struct{}

func (Join) TypeName() string { return "join" }

func (Join) Validate(cfg map[string]any) error {
	left := configStringSlice(cfg, "left_columns")
	right := configStringSlice(cfg, "right_columns")
	if len(left) == 0 || len(left) != len(right) {
		return fmt.Errorf("join: left_columns and right_columns must be equal-length non-empty lists")
	}
	switch jt, _ := configString(cfg, "join_type"); jt {
	case "inner", "left", "right", "full_outer":
	default:
		return fmt.Errorf("join: unknown join_type %q", jt)
	}
	if _, ok := cfg["right_data"]; !ok {
		return fmt.Errorf("join: right_data is required")
	}
	return nil
}

func rightDataRows(cfg map[string]any) []transform.Row {
	raw, _ := cfg["right_data"].([]any)
	out := make([]transform.Row, 0, len(raw))
	for _, r := range raw {
		if row, ok := r.(transform.Row); ok {
			out = append(out, row)
			continue
		}
		if m, ok := r.(map[string]any); ok {
			out = append(out, transform.Row(m))
		}
	}
	return out
}

func joinKey(row transform.Row, columns []string) (string, bool) {
	key := ""
	for _, c := range columns {
		v, ok := row[c]
		if !ok || v == nil {
			return "", false
		}
		key += "\x1f" + serialize(v)
	}
	return key, true
}

func (Join) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	leftCols := configStringSlice(cfg, "left_columns")
	rightCols := configStringSlice(cfg, "right_columns")
	joinType, _ := configString(cfg, "join_type")
	right := rightDataRows(cfg)

	leftNames := rowColumnNames(rows)
	rightNames := rowColumnNames(right)

	rightIndex := map[string][]transform.Row{}
	for _, r := range right {
		if key, ok := joinKey(r, rightCols); ok {
			rightIndex[key] = append(rightIndex[key], r)
		}
	}

	var out []transform.Row
	matchedRight := map[int]bool{}
	rightOrder := map[string][]int{}
	for i, r := range right {
		if key, ok := joinKey(r, rightCols); ok {
			rightOrder[key] = append(rightOrder[key], i)
		}
	}

	for _, l := range rows {
		key, ok := joinKey(l, leftCols)
		var matches []transform.Row
		var matchIdx []int
		if ok {
			matches = rightIndex[key]
			matchIdx = rightOrder[key]
		}
		if len(matches) == 0 {
			if joinType == "inner" || joinType == "right" {
				continue
			}
			out = append(out, mergeRows(l, nil, leftNames, rightNames))
			continue
		}
		for i, r := range matches {
			matchedRight[matchIdx[i]] = true
			out = append(out, mergeRows(l, r, leftNames, rightNames))
		}
	}

	if joinType == "right" || joinType == "full_outer" {
		for i, r := range right {
			if !matchedRight[i] {
				out = append(out, mergeRows(nil, r, leftNames, rightNames))
			}
		}
	}
	return out, nil
}

// rowColumnNames collects the union of column names across rows, so an
// unmatched outer-join side still knows which columns to null out.
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

// mergeRows combines a left and right row into one output row,
// namespacing right-side columns that collide with left-side names as
// "right_<name>". Either side may be nil for an unmatched outer-join
// row; its columns (named by leftNames/rightNames) are still present in
// the output, explicitly set to nil rather than omitted.
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

	// An unmatched side still owns its schema's column names; fill them
	// in explicitly as nil rather than leaving them absent.
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
