package operator

import (
	"context"
	"fmt"
	"sort"

	"github.com/tgberrios/datasync/internal/transform"
)

// sortKey is one {column, order} entry.
type sortKey struct {
	column string
	desc   bool
}

// Sort stably orders rows by one or more columns. Null sorts before
// non-null; numeric values compare as numbers, strings lexicographically,
// anything else by serialized form.
type Sort struct{}

func (Sort) TypeName() string { return "sort" }

func (Sort) Validate(cfg map[string]any) error {
	keys, err := parseSortKeys(cfg)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("sort: at least one sort key is required")
	}
	return nil
}

func parseSortKeys(cfg map[string]any) ([]sortKey, error) {
	raw, _ := cfg["columns"].([]any)
	keys := make([]sortKey, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("sort: columns[%d] must be an object", i)
		}
		col, _ := configString(m, "column")
		order, _ := configString(m, "order")
		if order != "asc" && order != "desc" {
			return nil, fmt.Errorf("sort: columns[%d] has invalid order %q", i, order)
		}
		keys = append(keys, sortKey{column: col, desc: order == "desc"})
	}
	return keys, nil
}

func (Sort) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	keys, err := parseSortKeys(cfg)
	if err != nil {
		return nil, err
	}
	out := append([]transform.Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(out[i][k.column], out[j][k.column])
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out, nil
}

// compareValues returns -1, 0, or 1. Nil sorts before non-nil.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if fa, aok := asFloat(a); aok {
		if fb, bok := asFloat(b); bok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	sa, sb := serialize(a), serialize(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}
