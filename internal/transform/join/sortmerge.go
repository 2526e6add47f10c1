package join

import (
	"sort"

	"github.com/tgberrios/datasync/internal/transform"
)

// sortMergeJoin sorts both sides by their join-key string form, then
// merges. Handles all four outer modes; falls back to a scan-based
// match within each run of equal keys (joins are rarely unique-key-only
// in practice, so a simple equal-range merge rather than a textbook
// single-pass merge keeps duplicate-key semantics correct).
func sortMergeJoin(left, right []transform.Row, leftCols, rightCols, leftNames, rightNames []string, outer OuterType) []transform.Row {
	type keyed struct {
		row transform.Row
		key string
		ok  bool
	}

	mk := func(rows []transform.Row, cols []string) []keyed {
		out := make([]keyed, len(rows))
		for i, r := range rows {
			k, ok := keyOf(r, cols)
			out[i] = keyed{row: r, key: k, ok: ok}
		}
		sort.SliceStable(out, func(a, b int) bool { return out[a].key < out[b].key })
		return out
	}

	ls := mk(left, leftCols)
	rs := mk(right, rightCols)

	var out []transform.Row
	i, j := 0, 0
	matchedRight := make([]bool, len(rs))

	for i < len(ls) {
		if !ls[i].ok {
			if outer == Left || outer == FullOuter {
				out = append(out, mergeRows(ls[i].row, nil, leftNames, rightNames))
			}
			i++
			continue
		}
		// advance j past right rows sorted before this left key
		for j < len(rs) && rs[j].ok && rs[j].key < ls[i].key {
			j++
		}
		// collect the run of right rows matching this key
		runStart := j
		runEnd := j
		for runEnd < len(rs) && rs[runEnd].ok && rs[runEnd].key == ls[i].key {
			runEnd++
		}
		if runStart == runEnd {
			if outer == Left || outer == FullOuter {
				out = append(out, mergeRows(ls[i].row, nil, leftNames, rightNames))
			}
			i++
			continue
		}
		for k := runStart; k < runEnd; k++ {
			matchedRight[k] = true
			out = append(out, mergeRows(ls[i].row, rs[k].row, leftNames, rightNames))
		}
		i++
	}

	if outer == Right || outer == FullOuter {
		for idx, r := range rs {
			if !matchedRight[idx] {
				out = append(out, mergeRows(nil, r.row, leftNames, rightNames))
			}
		}
	}
	return out
}
