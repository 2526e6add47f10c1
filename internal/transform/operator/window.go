package operator

import (
	"context"
	"fmt"
	"sort"

	"github.com/tgberrios/datasync/internal/transform"
)

// windowSpec is one entry in window_functions' windows list.
type windowSpec struct {
	Function     string
	TargetColumn string
	SourceColumn string
	PartitionBy  []string
	OrderBy      []string
	Offset       int
	Default      any
}

// WindowFunctions applies one or more windows, each computed per
// partition in order_by order.
type WindowFunctions struct{}

func (WindowFunctions) TypeName() string { return "window_functions" }

func (WindowFunctions) Validate(cfg map[string]any) error {
	specs, err := parseWindowSpecs(cfg)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return fmt.Errorf("window_functions: windows must be a non-empty list")
	}
	for _, s := range specs {
		switch s.Function {
		case "row_number", "lag", "lead", "first_value", "last_value", "rank", "dense_rank":
		default:
			return fmt.Errorf("window_functions: unknown function %q", s.Function)
		}
	}
	return nil
}

func parseWindowSpecs(cfg map[string]any) ([]windowSpec, error) {
	raw, _ := cfg["windows"].([]any)
	specs := make([]windowSpec, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("window_functions: windows[%d] must be an object", i)
		}
		fn, _ := configString(m, "function")
		target, _ := configString(m, "target_column")
		source, _ := configString(m, "source_column")
		specs = append(specs, windowSpec{
			Function:     fn,
			TargetColumn: target,
			SourceColumn: source,
			PartitionBy:  configStringSlice(m, "partition_by"),
			OrderBy:      configStringSlice(m, "order_by"),
			Offset:       configInt(m, "offset", 1),
			Default:      m["default_value"],
		})
	}
	return specs, nil
}

func (WindowFunctions) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	specs, err := parseWindowSpecs(cfg)
	if err != nil {
		return nil, err
	}

	out := make([]transform.Row, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}

	for _, spec := range specs {
		applyWindow(out, spec)
	}
	return out, nil
}

func applyWindow(rows []transform.Row, spec windowSpec) {
	partitions := map[string][]int{}
	var order []string
	for i, r := range rows {
		key := partitionKey(r, spec.PartitionBy)
		if _, ok := partitions[key]; !ok {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], i)
	}

	for _, key := range order {
		indices := partitions[key]
		sort.SliceStable(indices, func(a, b int) bool {
			for _, col := range spec.OrderBy {
				c := compareValues(rows[indices[a]][col], rows[indices[b]][col])
				if c != 0 {
					return c < 0
				}
			}
			return false
		})

		var ranks []int
		if spec.Function == "rank" || spec.Function == "dense_rank" {
			ranks = tieAwareRanks(len(indices), func(a, b int) bool {
				return rowsEqualByOrder(rows[indices[a]], rows[indices[b]], spec.OrderBy)
			}, spec.Function == "dense_rank")
		}

		for pos, idx := range indices {
			switch spec.Function {
			case "row_number":
				rows[idx][spec.TargetColumn] = pos + 1
			case "rank", "dense_rank":
				rows[idx][spec.TargetColumn] = ranks[pos]
			case "first_value":
				rows[idx][spec.TargetColumn] = rows[indices[0]][spec.SourceColumn]
			case "last_value":
				rows[idx][spec.TargetColumn] = rows[indices[len(indices)-1]][spec.SourceColumn]
			case "lag":
				src := pos - spec.Offset
				if src >= 0 {
					rows[idx][spec.TargetColumn] = rows[indices[src]][spec.SourceColumn]
				} else {
					rows[idx][spec.TargetColumn] = spec.Default
				}
			case "lead":
				src := pos + spec.Offset
				if src < len(indices) {
					rows[idx][spec.TargetColumn] = rows[indices[src]][spec.SourceColumn]
				} else {
					rows[idx][spec.TargetColumn] = spec.Default
				}
			}
		}
	}
}

// rowsEqualByOrder reports whether a and b tie across every orderBy
// column, the same comparator applyWindow's sort uses to order them.
func rowsEqualByOrder(a, b transform.Row, orderBy []string) bool {
	for _, col := range orderBy {
		if compareValues(a[col], b[col]) != 0 {
			return false
		}
	}
	return true
}
