package operator

import (
	"context"
	"testing"

	"github.com/tgberrios/datasync/internal/transform"
)

func joinCfg(joinType string, right []transform.Row) map[string]any {
	data := make([]any, len(right))
	for i, r := range right {
		data[i] = r
	}
	return map[string]any{
		"left_columns":  []any{"id"},
		"right_columns": []any{"id"},
		"join_type":     joinType,
		"right_data":    data,
	}
}

func joinFixtures() ([]transform.Row, []transform.Row) {
	left := []transform.Row{
		{"id": 1, "n": "A"},
		{"id": 2, "n": "B"},
		{"id": 3, "n": "C"},
	}
	right := []transform.Row{
		{"id": 1, "d": "X"},
		{"id": 2, "d": "Y"},
	}
	return left, right
}

func TestJoinInner(t *testing.T) {
	left, right := joinFixtures()
	out, err := Join{}.Execute(context.Background(), left, joinCfg("inner", right))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("inner join rows = %d, want 2: %+v", len(out), out)
	}
}

func TestJoinLeftNullsUnmatchedRightColumns(t *testing.T) {
	left, right := joinFixtures()
	out, err := Join{}.Execute(context.Background(), left, joinCfg("left", right))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("left join rows = %d, want 3: %+v", len(out), out)
	}
	for _, r := range out {
		if r["id"] == 3 {
			d, ok := r["d"]
			if !ok {
				t.Fatalf("unmatched row missing right-side column d entirely: %+v", r)
			}
			if d != nil {
				t.Fatalf("unmatched row d = %v, want explicit nil", d)
			}
		}
	}
}

func TestJoinRight(t *testing.T) {
	left, right := joinFixtures()
	out, err := Join{}.Execute(context.Background(), left, joinCfg("right", right))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("right join rows = %d, want 2: %+v", len(out), out)
	}
}

func TestJoinFullOuterNullsUnmatchedLeftColumns(t *testing.T) {
	left := []transform.Row{
		{"id": 1, "n": "A"},
	}
	right := []transform.Row{
		{"id": 1, "d": "X"},
		{"id": 2, "d": "Y"},
	}
	out, err := Join{}.Execute(context.Background(), left, joinCfg("full_outer", right))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("full_outer join rows = %d, want 2: %+v", len(out), out)
	}
	var sawUnmatchedRight bool
	for _, r := range out {
		if r["d"] == "Y" {
			sawUnmatchedRight = true
			n, ok := r["n"]
			if !ok {
				t.Fatalf("unmatched left row missing left-side column n entirely: %+v", r)
			}
			if n != nil {
				t.Fatalf("unmatched left row n = %v, want explicit nil", n)
			}
		}
	}
	if !sawUnmatchedRight {
		t.Fatal("expected the unmatched right row (id=2) in full_outer output")
	}
}

func TestJoinCollidingColumnNamesNamespaced(t *testing.T) {
	left := []transform.Row{{"id": 1, "name": "left-name"}}
	right := []transform.Row{{"id": 1, "name": "right-name"}}
	out, err := Join{}.Execute(context.Background(), left, joinCfg("inner", right))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("rows = %d, want 1", len(out))
	}
	if out[0]["name"] != "left-name" || out[0]["right_name"] != "right-name" {
		t.Fatalf("merged row = %+v, want name=left-name right_name=right-name", out[0])
	}
}

func TestJoinValidateRequiresEqualLengthColumns(t *testing.T) {
	cfg := map[string]any{
		"left_columns":  []any{"id"},
		"right_columns": []any{"id", "extra"},
		"join_type":     "inner",
		"right_data":    []any{},
	}
	if err := (Join{}).Validate(cfg); err == nil {
		t.Fatal("expected error for mismatched column lists")
	}
}

func TestJoinValidateRejectsUnknownJoinType(t *testing.T) {
	cfg := map[string]any{
		"left_columns":  []any{"id"},
		"right_columns": []any{"id"},
		"join_type":     "cross",
		"right_data":    []any{},
	}
	if err := (Join{}).Validate(cfg); err == nil {
		t.Fatal("expected error for unknown join_type")
	}
}
