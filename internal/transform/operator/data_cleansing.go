package operator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tgberrios/datasync/internal/transform"
)

// cleanRule is one {column, operations} entry; operations run in list
// order against the column's current value each pass.
type cleanRule struct {
	column     string
	operations []string
}

var whitespaceRun = regexp.MustCompile(`\s+`)
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
var leadingZeros = regexp.MustCompile(`^0+(\d)`)

// DataCleansing applies a per-column list of string operations drawn
// from {trim, uppercase, lowercase, remove_special, remove_whitespace,
// remove_leading_zeros, normalize_whitespace}.
type DataCleansing struct{}

func (DataCleansing) TypeName() string { return "data_cleansing" }

func (DataCleansing) Validate(cfg map[string]any) error {
	rules, err := parseCleanRules(cfg)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return fmt.Errorf("data_cleansing: rules must be a non-empty list")
	}
	return nil
}

func parseCleanRules(cfg map[string]any) ([]cleanRule, error) {
	raw, _ := cfg["rules"].([]any)
	rules := make([]cleanRule, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("data_cleansing: rules[%d] must be an object", i)
		}
		col, _ := configString(m, "column")
		if col == "" {
			return nil, fmt.Errorf("data_cleansing: rules[%d] needs column", i)
		}
		ops := configStringSlice(m, "operations")
		for _, op := range ops {
			switch op {
			case "trim", "uppercase", "lowercase", "remove_special", "remove_whitespace", "remove_leading_zeros", "normalize_whitespace":
			default:
				return nil, fmt.Errorf("data_cleansing: rules[%d] has unknown operation %q", i, op)
			}
		}
		rules = append(rules, cleanRule{column: col, operations: ops})
	}
	return rules, nil
}

func (DataCleansing) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	rules, err := parseCleanRules(cfg)
	if err != nil {
		return nil, err
	}

	out := make([]transform.Row, len(rows))
	for i, r := range rows {
		nr := cloneRow(r)
		for _, rule := range rules {
			s, ok := nr[rule.column].(string)
			if !ok {
				continue
			}
			for _, op := range rule.operations {
				s = applyCleanOp(op, s)
			}
			nr[rule.column] = s
		}
		out[i] = nr
	}
	return out, nil
}

func applyCleanOp(op, s string) string {
	switch op {
	case "trim":
		return strings.TrimSpace(s)
	case "uppercase":
		return strings.ToUpper(s)
	case "lowercase":
		return strings.ToLower(s)
	case "remove_special":
		return nonAlphanumeric.ReplaceAllString(s, "")
	case "remove_whitespace":
		return whitespaceRun.ReplaceAllString(s, "")
	case "remove_leading_zeros":
		return leadingZeros.ReplaceAllString(s, "$1")
	case "normalize_whitespace":
		return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	default:
		return s
	}
}
