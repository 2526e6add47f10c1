package operator

import (
	"context"
	"fmt"
	"sort"

	"github.com/tgberrios/datasync/internal/transform"
)

// Rank implements top_n, bottom_n, rank, dense_rank, and row_number over
// order_column, optionally partitioned by partition_by. top_n/bottom_n
// truncate each partition to n rows; the other three add a `_rank`
// column without truncating.
type Rank struct{}

func (Rank) TypeName() string { return "rank" }

func (Rank) Validate(cfg map[string]any) error {
	switch rt, _ := configString(cfg, "rank_type"); rt {
	case "top_n", "bottom_n", "rank", "dense_rank", "row_number":
	default:
		return fmt.Errorf("rank: unknown rank_type %q", rt)
	}
	if _, ok := configString(cfg, "order_column"); !ok {
		return fmt.Errorf("rank: order_column is required")
	}
	return nil
}

func (Rank) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	rankType, _ := configString(cfg, "rank_type")
	orderCol, _ := configString(cfg, "order_column")
	partitionBy := configStringSlice(cfg, "partition_by")
	n := configInt(cfg, "n", 0)

	partitions := map[string][]transform.Row{}
	var order []string
	for _, r := range rows {
		key := partitionKey(r, partitionBy)
		if _, ok := partitions[key]; !ok {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], r)
	}

	var out []transform.Row
	for _, key := range order {
		part := append([]transform.Row(nil), partitions[key]...)
		sort.SliceStable(part, func(i, j int) bool {
			return compareValues(part[i][orderCol], part[j][orderCol]) < 0
		})

		switch rankType {
		case "top_n":
			sort.SliceStable(part, func(i, j int) bool { return compareValues(part[i][orderCol], part[j][orderCol]) > 0 })
			out = append(out, truncate(part, n)...)
		case "bottom_n":
			out = append(out, truncate(part, n)...)
		case "row_number":
			for i, r := range part {
				r = cloneRow(r)
				r["_rank"] = i + 1
				out = append(out, r)
			}
		case "rank", "dense_rank":
			out = append(out, assignRank(part, orderCol, rankType == "dense_rank")...)
		}
	}
	return out, nil
}

func partitionKey(r transform.Row, partitionBy []string) string {
	key := ""
	for _, c := range partitionBy {
		key += "\x1f" + serialize(r[c])
	}
	return key
}

func truncate(rows []transform.Row, n int) []transform.Row {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

func cloneRow(r transform.Row) transform.Row {
	out := make(transform.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func assignRank(part []transform.Row, orderCol string, dense bool) []transform.Row {
	ranks := tieAwareRanks(len(part), func(a, b int) bool {
		return compareValues(part[a][orderCol], part[b][orderCol]) == 0
	}, dense)
	out := make([]transform.Row, 0, len(part))
	for i, r := range part {
		row := cloneRow(r)
		row["_rank"] = ranks[i]
		out = append(out, row)
	}
	return out
}

// tieAwareRanks assigns a 1-based rank to each of n sorted positions:
// tied positions (adjacent pairs where tiesWithPrev reports true) share
// the same rank. dense numbers consecutive groups 1,2,3,...; non-dense
// (standard competition rank) skips ranks by the size of each tie group,
// matching SQL's RANK() vs DENSE_RANK().
func tieAwareRanks(n int, tiesWithPrev func(prev, cur int) bool, dense bool) []int {
	ranks := make([]int, n)
	rank := 0
	for pos := 0; pos < n; pos++ {
		if pos == 0 || !tiesWithPrev(pos-1, pos) {
			if dense {
				rank++
			} else {
				rank = pos + 1
			}
		}
		ranks[pos] = rank
	}
	return ranks
}
