package join

import (
	"testing"

	"github.com/tgberrios/datasync/internal/transform"
)

func TestSelectForcedWins(t *testing.T) {
	cfg := Config{
		Left:   SideStats{EstimatedRows: 5_000_000},
		Right:  SideStats{EstimatedRows: 5_000_000},
		Forced: NestedLoop,
	}
	if got := Select(cfg); got != NestedLoop {
		t.Fatalf("expected forced NestedLoop, got %s", got)
	}
}

func TestSelectHashJoinForSmallSide(t *testing.T) {
	cfg := Config{
		Left:  SideStats{EstimatedRows: 500},
		Right: SideStats{EstimatedRows: 50_000},
	}
	if got := Select(cfg); got != HashJoin {
		t.Fatalf("expected HashJoin, got %s", got)
	}
}

func TestSelectSortMergeWhenBothSorted(t *testing.T) {
	cfg := Config{
		Left:  SideStats{EstimatedRows: 200_000, Sorted: true, SortColumn: "id"},
		Right: SideStats{EstimatedRows: 200_000, Sorted: true, SortColumn: "id"},
	}
	if got := Select(cfg); got != SortMergeJoin {
		t.Fatalf("expected SortMergeJoin, got %s", got)
	}
}

func TestSelectSortMergeWhenHuge(t *testing.T) {
	cfg := Config{
		Left:  SideStats{EstimatedRows: 2_000_000},
		Right: SideStats{EstimatedRows: 2_000_000},
	}
	if got := Select(cfg); got != SortMergeJoin {
		t.Fatalf("expected SortMergeJoin, got %s", got)
	}
}

func TestSelectHashJoinForMidSize(t *testing.T) {
	cfg := Config{
		Left:  SideStats{EstimatedRows: 50_000},
		Right: SideStats{EstimatedRows: 60_000},
	}
	if got := Select(cfg); got != HashJoin {
		t.Fatalf("expected HashJoin, got %s", got)
	}
}

func TestSelectDefaultsToSortMergeAboveMidSize(t *testing.T) {
	cfg := Config{
		Left:  SideStats{EstimatedRows: 200_000},
		Right: SideStats{EstimatedRows: 200_001},
	}
	// Neither small-ratio, sorted, huge, nor mid-size(<100k) — falls to default sort_merge.
	if got := Select(cfg); got != SortMergeJoin {
		t.Fatalf("expected SortMergeJoin default, got %s", got)
	}
}

func TestSelectHashJoinForTinyBothSides(t *testing.T) {
	// Equal tiny sizes fail the 10% ratio check, but both sides are under
	// 100k rows, so the mid-size rule picks hash_join before the
	// nested-loop rule is reached.
	cfg := Config{
		Left:  SideStats{EstimatedRows: 500},
		Right: SideStats{EstimatedRows: 500},
	}
	if got := Select(cfg); got != HashJoin {
		t.Fatalf("expected HashJoin, got %s", got)
	}
}

func TestExecuteHashJoinInner(t *testing.T) {
	left := []transform.Row{
		{"id": 1, "name": "a"},
		{"id": 2, "name": "b"},
	}
	right := []transform.Row{
		{"id": 1, "value": "x"},
	}
	cfg := Config{Forced: HashJoin}
	res, err := Execute(cfg, left, right, []string{"id"}, []string{"id"}, Inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
	if res.Rows[0]["value"] != "x" {
		t.Fatalf("expected joined value, got %v", res.Rows[0])
	}
	if res.AlgorithmUsed != HashJoin {
		t.Fatalf("expected AlgorithmUsed=hash_join, got %s", res.AlgorithmUsed)
	}
}

func TestExecuteSortMergeFullOuter(t *testing.T) {
	left := []transform.Row{{"id": 1}, {"id": 3}}
	right := []transform.Row{{"id": 1}, {"id": 2}}
	cfg := Config{Forced: SortMergeJoin}
	res, err := Execute(cfg, left, right, []string{"id"}, []string{"id"}, FullOuter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows (1 match + 2 unmatched), got %d", len(res.Rows))
	}
}

func TestExecuteNestedLoopLeft(t *testing.T) {
	left := []transform.Row{{"id": 1}, {"id": 2}}
	right := []transform.Row{{"id": 1}}
	cfg := Config{Forced: NestedLoop}
	res, err := Execute(cfg, left, right, []string{"id"}, []string{"id"}, Left)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
}

func TestExecuteUnmatchedSideColumnsAreExplicitNil(t *testing.T) {
	left := []transform.Row{{"id": 1, "name": "a"}, {"id": 2, "name": "b"}}
	right := []transform.Row{{"id": 1, "value": "x"}}

	for _, algo := range []Algorithm{HashJoin, SortMergeJoin, NestedLoop} {
		res, err := Execute(Config{Forced: algo}, left, right, []string{"id"}, []string{"id"}, Left)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", algo, err)
		}
		var unmatched *transform.Row
		for i := range res.Rows {
			if res.Rows[i]["id"] == 2 {
				unmatched = &res.Rows[i]
			}
		}
		if unmatched == nil {
			t.Fatalf("%s: expected unmatched left row (id=2) in output: %+v", algo, res.Rows)
		}
		v, ok := (*unmatched)["value"]
		if !ok {
			t.Fatalf("%s: expected unmatched row to carry right side's 'value' column as nil, got absent: %+v", algo, *unmatched)
		}
		if v != nil {
			t.Fatalf("%s: expected unmatched row's 'value' to be nil, got %v", algo, v)
		}
	}
}
