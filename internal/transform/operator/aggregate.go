package operator

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/tgberrios/datasync/internal/transform"
)

// AggregateSpec is one {column, function, alias} entry.
type AggregateSpec struct {
	Column   string
	Function string
	Alias    string
	// Percentile is only consulted when Function == "percentile".
	Percentile float64
}

// Aggregate groups rows by group_by (optional) and computes one or more
// aggregations per group. An empty group_by produces a single-row output
// over the whole input.
type Aggregate struct{}

func (Aggregate) TypeName() string { return "aggregate" }

func (Aggregate) Validate(cfg map[string]any) error {
	aggs, ok := cfg["aggregations"].([]any)
	if !ok || len(aggs) == 0 {
		return fmt.Errorf("aggregate: aggregations must be a non-empty list")
	}
	for i, a := range aggs {
		m, ok := a.(map[string]any)
		if !ok {
			return fmt.Errorf("aggregate: aggregations[%d] must be an object", i)
		}
		fn, _ := configString(m, "function")
		switch fn {
		case "sum", "count", "avg", "min", "max", "stddev", "variance", "percentile":
		default:
			return fmt.Errorf("aggregate: aggregations[%d] has unknown function %q", i, fn)
		}
	}
	return nil
}

func parseAggregations(cfg map[string]any) []AggregateSpec {
	raw, _ := cfg["aggregations"].([]any)
	specs := make([]AggregateSpec, 0, len(raw))
	for _, a := range raw {
		m, ok := a.(map[string]any)
		if !ok {
			continue
		}
		col, _ := configString(m, "column")
		fn, _ := configString(m, "function")
		alias, _ := configString(m, "alias")
		if alias == "" {
			alias = fn + "_" + col
		}
		specs = append(specs, AggregateSpec{
			Column:     col,
			Function:   fn,
			Alias:      alias,
			Percentile: configFloat(m, "percentile", 0.5),
		})
	}
	return specs
}

func (Aggregate) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	groupBy := configStringSlice(cfg, "group_by")
	specs := parseAggregations(cfg)

	type group struct {
		key    transform.Row
		values map[string][]float64
		counts map[string]int
	}
	groups := make(map[string]*group)
	var order []string

	for _, row := range rows {
		keyParts := make([]string, len(groupBy))
		keyRow := transform.Row{}
		for i, col := range groupBy {
			keyParts[i] = serialize(row[col])
			keyRow[col] = row[col]
		}
		key := fmt.Sprintf("%v", keyParts)

		g, ok := groups[key]
		if !ok {
			g = &group{key: keyRow, values: map[string][]float64{}, counts: map[string]int{}}
			groups[key] = g
			order = append(order, key)
		}
		for _, spec := range specs {
			if spec.Function == "count" {
				if row[spec.Column] != nil {
					g.counts[spec.Alias]++
				}
				continue
			}
			if f, ok := asFloat(row[spec.Column]); ok {
				g.values[spec.Alias] = append(g.values[spec.Alias], f)
			}
		}
	}

	if len(groupBy) == 0 && len(order) == 0 {
		// No rows at all: still emit the single-row output the spec requires.
		groups[""] = &group{key: transform.Row{}, values: map[string][]float64{}, counts: map[string]int{}}
		order = []string{""}
	}

	out := make([]transform.Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		result := transform.Row{}
		for k, v := range g.key {
			result[k] = v
		}
		for _, spec := range specs {
			result[spec.Alias] = aggregateValue(spec, g.values[spec.Alias], g.counts[spec.Alias])
		}
		out = append(out, result)
	}
	return out, nil
}

func aggregateValue(spec AggregateSpec, values []float64, count int) any {
	if spec.Function == "count" {
		return count
	}
	if len(values) == 0 {
		return nil
	}
	switch spec.Function {
	case "sum":
		var s float64
		for _, v := range values {
			s += v
		}
		return s
	case "avg":
		var s float64
		for _, v := range values {
			s += v
		}
		return s / float64(len(values))
	case "min":
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case "max":
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case "stddev", "variance":
		mean := 0.0
		for _, v := range values {
			mean += v
		}
		mean /= float64(len(values))
		var sumSq float64
		for _, v := range values {
			d := v - mean
			sumSq += d * d
		}
		variance := sumSq / float64(len(values))
		if spec.Function == "variance" {
			return variance
		}
		return math.Sqrt(variance)
	case "percentile":
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		idx := int(spec.Percentile * float64(len(sorted)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	default:
		return nil
	}
}
