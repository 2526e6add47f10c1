package join

import "github.com/tgberrios/datasync/internal/transform"

// nestedLoopJoin is the O(n*m) fallback for tiny sides where building
// an index isn't worth it.
func nestedLoopJoin(left, right []transform.Row, leftCols, rightCols, leftNames, rightNames []string, outer OuterType) []transform.Row {
	var out []transform.Row
	matched := make([]bool, len(right))

	for _, l := range left {
		lKey, lok := keyOf(l, leftCols)
		found := false
		for ri, r := range right {
			rKey, rok := keyOf(r, rightCols)
			if !lok || !rok || lKey != rKey {
				continue
			}
			found = true
			matched[ri] = true
			out = append(out, mergeRows(l, r, leftNames, rightNames))
		}
		if !found && (outer == Left || outer == FullOuter) {
			out = append(out, mergeRows(l, nil, leftNames, rightNames))
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
