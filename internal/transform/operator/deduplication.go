package operator

import (
	"context"
	"fmt"
	"strings"

	"github.com/tgberrios/datasync/internal/transform"
)

// Deduplication keeps one row per distinct value of key_columns, per
// method: "exact" (default) compares a normalized signature of
// key_columns; "fuzzy" and "similarity" both compute Levenshtein
// similarity (1 - distance/maxLen) between the normalized, concatenated
// key_columns of each row and every group representative seen so far,
// joining the first group at or above similarity_threshold. The first
// row encountered for a group wins; later matches are dropped.
type Deduplication struct{}

func (Deduplication) TypeName() string { return "deduplication" }

func (Deduplication) Validate(cfg map[string]any) error {
	if len(configStringSlice(cfg, "key_columns")) == 0 {
		return fmt.Errorf("deduplication: key_columns must be a non-empty list")
	}
	switch method, _ := configString(cfg, "method"); method {
	case "exact", "fuzzy", "similarity", "":
	default:
		return fmt.Errorf("deduplication: unknown method %q", method)
	}
	if t := configFloat(cfg, "similarity_threshold", 0.85); t < 0 || t > 1 {
		return fmt.Errorf("deduplication: similarity_threshold must be in [0,1]")
	}
	return nil
}

func (Deduplication) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	keyCols := configStringSlice(cfg, "key_columns")
	method, _ := configString(cfg, "method")
	if method == "" {
		method = "exact"
	}

	if method == "exact" {
		seen := map[string]bool{}
		var out []transform.Row
		for _, r := range rows {
			key := normalizedSignature(r, keyCols)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, r)
		}
		return out, nil
	}

	threshold := configFloat(cfg, "similarity_threshold", 0.85)
	var reps []string
	var out []transform.Row
	for _, r := range rows {
		sig := normalizedSignature(r, keyCols)
		isDup := false
		for _, rep := range reps {
			if levenshteinSimilarity(sig, rep) >= threshold {
				isDup = true
				break
			}
		}
		if isDup {
			continue
		}
		reps = append(reps, sig)
		out = append(out, r)
	}
	return out, nil
}

// normalizedSignature concatenates the trimmed, lowercased serialized
// form of each key column.
func normalizedSignature(r transform.Row, columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = strings.ToLower(strings.TrimSpace(serialize(r[c])))
	}
	return strings.Join(parts, "\x1f")
}

// levenshteinSimilarity maps edit distance onto [0,1]; identical
// strings score 1, completely disjoint strings score 0.
func levenshteinSimilarity(a, b string) float64 {
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes edit distance via the standard rune-distance DP
// table, row-reduced to two slices.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

