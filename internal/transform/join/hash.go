package join

import "github.com/tgberrios/datasync/internal/transform"

// hashJoin builds a multimap on the right side keyed by the join key,
// then iterates the left side probing it. Matched right indices are
// tracked so right/full_outer can emit the unmatched remainder.
func hashJoin(left, right []transform.Row, leftCols, rightCols, leftNames, rightNames []string, outer OuterType) []transform.Row {
	index := map[string][]int{}
	for i, r := range right {
		if key, ok := keyOf(r, rightCols); ok {
			index[key] = append(index[key], i)
		}
	}

	var out []transform.Row
	matched := make([]bool, len(right))

	for _, l := range left {
		key, ok := keyOf(l, leftCols)
		indices := index[key]
		if !ok || len(indices) == 0 {
			if outer == Inner || outer == Right {
				continue
			}
			out = append(out, mergeRows(l, nil, leftNames, rightNames))
			continue
		}
		for _, idx := range indices {
			matched[idx] = true
			out = append(out, mergeRows(l, right[idx], leftNames, rightNames))
		}
	}

	if outer == Right || outer == FullOuter {
		for i, r := range right {
			if !matched[i] {
				out = append(out, mergeRows(nil, r, leftNames, rightNames))
			}
		}
	}
	return out
}
