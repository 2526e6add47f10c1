package operator

import (
	"context"
	"testing"

	"github.com/tgberrios/datasync/internal/transform"
)

func aggCfg(groupBy []string, aggs ...map[string]any) map[string]any {
	gb := make([]any, len(groupBy))
	for i, c := range groupBy {
		gb[i] = c
	}
	raw := make([]any, len(aggs))
	for i, a := range aggs {
		raw[i] = a
	}
	return map[string]any{"group_by": gb, "aggregations": raw}
}

func TestAggregateSumByGroup(t *testing.T) {
	rows := []transform.Row{
		{"g": "A", "v": 10},
		{"g": "A", "v": 20},
		{"g": "B", "v": 15},
	}
	cfg := aggCfg([]string{"g"}, map[string]any{"column": "v", "function": "sum", "alias": "t"})
	out, err := Aggregate{}.Execute(context.Background(), rows, cfg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("groups = %d, want 2: %+v", len(out), out)
	}
	totals := map[any]any{}
	for _, r := range out {
		totals[r["g"]] = r["t"]
	}
	if totals["A"] != 30.0 || totals["B"] != 15.0 {
		t.Fatalf("totals = %+v, want A=30 B=15", totals)
	}
}

func TestAggregateEmptyGroupByIsSingleRow(t *testing.T) {
	rows := []transform.Row{{"v": 1}, {"v": 2}, {"v": 3}}
	cfg := aggCfg(nil, map[string]any{"column": "v", "function": "sum", "alias": "total"})
	out, err := Aggregate{}.Execute(context.Background(), rows, cfg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("rows = %d, want 1", len(out))
	}
	if out[0]["total"] != 6.0 {
		t.Fatalf("total = %v, want 6", out[0]["total"])
	}
}

func TestAggregateEmptyInputStillEmitsOneRow(t *testing.T) {
	cfg := aggCfg(nil, map[string]any{"column": "v", "function": "count", "alias": "n"})
	out, err := Aggregate{}.Execute(context.Background(), nil, cfg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("rows = %d, want 1", len(out))
	}
	if out[0]["n"] != 0 {
		t.Fatalf("n = %v, want 0", out[0]["n"])
	}
}

func TestAggregateCountIgnoresNulls(t *testing.T) {
	rows := []transform.Row{{"v": 1}, {"v": nil}, {"v": 3}}
	cfg := aggCfg(nil, map[string]any{"column": "v", "function": "count", "alias": "n"})
	out, err := Aggregate{}.Execute(context.Background(), rows, cfg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out[0]["n"] != 2 {
		t.Fatalf("n = %v, want 2", out[0]["n"])
	}
}

func TestAggregateMinMaxAvg(t *testing.T) {
	rows := []transform.Row{{"v": 4}, {"v": 10}, {"v": 1}}
	cfg := aggCfg(nil,
		map[string]any{"column": "v", "function": "min", "alias": "mn"},
		map[string]any{"column": "v", "function": "max", "alias": "mx"},
		map[string]any{"column": "v", "function": "avg", "alias": "av"},
	)
	out, err := Aggregate{}.Execute(context.Background(), rows, cfg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out[0]["mn"] != 1.0 || out[0]["mx"] != 10.0 {
		t.Fatalf("min/max = %v/%v, want 1/10", out[0]["mn"], out[0]["mx"])
	}
	if out[0]["av"] != 5.0 {
		t.Fatalf("avg = %v, want 5", out[0]["av"])
	}
}

func TestAggregatePercentile(t *testing.T) {
	rows := []transform.Row{{"v": 1}, {"v": 2}, {"v": 3}, {"v": 4}, {"v": 5}}
	cfg := aggCfg(nil, map[string]any{"column": "v", "function": "percentile", "alias": "p50", "percentile": 0.5})
	out, err := Aggregate{}.Execute(context.Background(), rows, cfg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out[0]["p50"] != 3.0 {
		t.Fatalf("p50 = %v, want 3", out[0]["p50"])
	}
}

func TestAggregateValidateRejectsUnknownFunction(t *testing.T) {
	cfg := aggCfg(nil, map[string]any{"column": "v", "function": "median"})
	if err := (Aggregate{}).Validate(cfg); err == nil {
		t.Fatal("expected error for unknown aggregate function")
	}
}

func TestAggregateValidateRejectsEmptyAggregations(t *testing.T) {
	cfg := map[string]any{"group_by": []any{}, "aggregations": []any{}}
	if err := (Aggregate{}).Validate(cfg); err == nil {
		t.Fatal("expected error for empty aggregations list")
	}
}
