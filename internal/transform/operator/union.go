package operator

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/transform"
)

// Union concatenates rows with zero or more additional row sequences,
// normalizing to the superset of columns (missing columns become null).
// union_type "union" deduplicates by full-row signature; "union_all"
// preserves duplicates.
type Union struct{}

func (Union) TypeName() string { return "union" }

func (Union) Validate(cfg map[string]any) error {
	switch ut, _ := configString(cfg, "union_type"); ut {
	case "union", "union_all":
	default:
		return fmt.Errorf("union: unknown union_type %q", ut)
	}
	return nil
}

func additionalRowSets(cfg map[string]any) [][]transform.Row {
	raw, _ := cfg["additional_data"].([]any)
	out := make([][]transform.Row, 0, len(raw))
	for _, set := range raw {
		seq, _ := set.([]any)
		rows := make([]transform.Row, 0, len(seq))
		for _, r := range seq {
			if row, ok := r.(transform.Row); ok {
				rows = append(rows, row)
				continue
			}
			if m, ok := r.(map[string]any); ok {
				rows = append(rows, transform.Row(m))
			}
		}
		out = append(out, rows)
	}
	return out
}

func (Union) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	unionType, _ := configString(cfg, "union_type")

	allSets := [][]transform.Row{rows}
	allSets = append(allSets, additionalRowSets(cfg)...)

	colSet := map[string]bool{}
	for _, set := range allSets {
		for _, r := range set {
			for col := range r {
				colSet[col] = true
			}
		}
	}
	columns := sortKeys(keysOf(colSet))

	var combined []transform.Row
	for _, set := range allSets {
		for _, r := range set {
			normalized := transform.Row{}
			for _, col := range columns {
				normalized[col] = r[col]
			}
			combined = append(combined, normalized)
		}
	}

	if unionType == "union_all" {
		return combined, nil
	}

	seen := map[string]bool{}
	var out []transform.Row
	for _, r := range combined {
		sig := rowSignature(r, columns)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, r)
	}
	return out, nil
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func rowSignature(r transform.Row, columns []string) string {
	sig := ""
	for _, c := range columns {
		sig += "\x1f" + serialize(r[c])
	}
	return sig
}
