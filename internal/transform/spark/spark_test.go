package spark

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSelectAlgorithmBroadcastForSmallSide(t *testing.T) {
	if got := SelectAlgorithm(1<<20, 5<<30); got != Broadcast {
		t.Fatalf("expected Broadcast, got %s", got)
	}
}

func TestSelectAlgorithmSortMergeForHugePair(t *testing.T) {
	if got := SelectAlgorithm(2<<30, 3<<30); got != SortMerge {
		t.Fatalf("expected SortMerge, got %s", got)
	}
}

func TestSelectAlgorithmShuffleHashOtherwise(t *testing.T) {
	if got := SelectAlgorithm(100<<20, 200<<20); got != ShuffleHash {
		t.Fatalf("expected ShuffleHash, got %s", got)
	}
}

func TestTranslateIncludesHintAndJoinType(t *testing.T) {
	plan := JoinPlan{
		LeftTable: "orders", RightTable: "customers",
		LeftKeys: []string{"customer_id"}, RightKeys: []string{"id"},
		OuterType: "left",
	}
	sql := Translate(plan, Broadcast)
	if !strings.Contains(sql, "broadcast") || !strings.Contains(sql, "LEFT OUTER JOIN") {
		t.Fatalf("unexpected sql: %s", sql)
	}
}

type fakeBackend struct {
	rows int64
	err  error
}

func (f fakeBackend) Submit(ctx context.Context, sql string) (int64, error) {
	return f.rows, f.err
}

func TestDelegateReturnsRowCount(t *testing.T) {
	plan := JoinPlan{LeftTable: "a", RightTable: "b", LeftKeys: []string{"id"}, RightKeys: []string{"id"}}
	rows, algo, err := Delegate(context.Background(), fakeBackend{rows: 42}, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 42 {
		t.Fatalf("expected 42 rows, got %d", rows)
	}
	if algo != Broadcast {
		t.Fatalf("expected Broadcast for zero-byte plan, got %s", algo)
	}
}

func TestDelegatePropagatesErrorForFallback(t *testing.T) {
	plan := JoinPlan{LeftTable: "a", RightTable: "b", LeftKeys: []string{"id"}, RightKeys: []string{"id"}}
	_, _, err := Delegate(context.Background(), fakeBackend{err: errors.New("fabric unavailable")}, plan)
	if err == nil {
		t.Fatal("expected error to propagate so the caller falls back locally")
	}
}
