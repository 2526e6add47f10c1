// Package spark implements the distributed-delegation path for the
// join optimizer (C8): a single-pass submission of a translated SQL
// join to an external fabric, with the three distributed algorithm
// choices (broadcast, sort_merge, shuffle_hash) selected purely by
// estimated byte size. It never streams rows back into the local
// engine. Delegate returns any submit error to its caller; nothing in
// this module calls Delegate, so no local fallback is wired to it.
package spark

import (
	"context"
	"fmt"
)

// Algorithm names one of the three distributed join strategies.
type Algorithm string

const (
	Broadcast  Algorithm = "broadcast"
	SortMerge  Algorithm = "sort_merge"
	ShuffleHash Algorithm = "shuffle_hash"
)

const broadcastByteThreshold = 10 << 20 // 10MB
const sortMergeByteThreshold = 1 << 30  // 1GB

// SelectAlgorithm picks broadcast when the smaller side is below a
// byte threshold, sort_merge for very large pairs, shuffle_hash
// otherwise.
func SelectAlgorithm(leftBytes, rightBytes int64) Algorithm {
	smaller, larger := leftBytes, rightBytes
	if larger < smaller {
		smaller, larger = larger, smaller
	}
	if smaller < broadcastByteThreshold {
		return Broadcast
	}
	if larger > sortMergeByteThreshold {
		return SortMerge
	}
	return ShuffleHash
}

// JoinPlan is the minimal shape needed to translate and submit a join
// to the fabric: table references, join keys, and estimated sizes.
type JoinPlan struct {
	LeftTable   string
	RightTable  string
	LeftKeys    []string
	RightKeys   []string
	LeftBytes   int64
	RightBytes  int64
	OuterType   string
}

// Backend is the interface an external distributed fabric implements.
// The optimizer never talks to the fabric directly; it only emits SQL
// and reads back a row count.
type Backend interface {
	Submit(ctx context.Context, sql string) (rowCount int64, err error)
}

// Translate renders a JoinPlan as SQL text with the selected
// algorithm's hint, in the style most distributed SQL engines
// (Spark SQL, Trino) accept as a leading comment hint.
func Translate(plan JoinPlan, algo Algorithm) string {
	joinKeyword := "JOIN"
	switch plan.OuterType {
	case "left":
		joinKeyword = "LEFT OUTER JOIN"
	case "right":
		joinKeyword = "RIGHT OUTER JOIN"
	case "full_outer":
		joinKeyword = "FULL OUTER JOIN"
	}

	on := ""
	for i := range plan.LeftKeys {
		if i > 0 {
			on += " AND "
		}
		on += fmt.Sprintf("l.%s = r.%s", plan.LeftKeys[i], plan.RightKeys[i])
	}

	return fmt.Sprintf(
		"/*+ %s */ SELECT * FROM %s l %s %s r ON %s",
		algo, plan.LeftTable, joinKeyword, plan.RightTable, on,
	)
}

// Delegate selects an algorithm, translates the plan, and submits it
// through backend. Per the spec this path is single-pass: success
// returns the fabric's row count and no rows, since rows never stream
// back locally.
func Delegate(ctx context.Context, backend Backend, plan JoinPlan) (rowCount int64, algo Algorithm, err error) {
	algo = SelectAlgorithm(plan.LeftBytes, plan.RightBytes)
	sql := Translate(plan, algo)
	rowCount, err = backend.Submit(ctx, sql)
	if err != nil {
		return 0, algo, fmt.Errorf("spark: delegation failed, caller should fall back to local execution: %w", err)
	}
	return rowCount, algo, nil
}
