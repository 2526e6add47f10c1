package operator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tgberrios/datasync/internal/transform"
)

// exprRule is one {target_column, expression, type} entry. Column
// references in expression use `{col}` placeholders.
type exprRule struct {
	target string
	expr   string
	kind   string
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)
var funcCallPattern = regexp.MustCompile(`^([A-Z_]+)\((.*)\)$`)

// Expression computes derived columns via a small dialect: math
// (+ - * /), string functions (UPPER, LOWER, TRIM, CONCAT,
// REGEX_REPLACE, SPLIT), and date functions (DATEADD, DATEDIFF,
// DATEPART), selected explicitly by type or inferred when type="auto".
type Expression struct{}

func (Expression) TypeName() string { return "expression" }

func (Expression) Validate(cfg map[string]any) error {
	rules, err := parseExprRules(cfg)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return fmt.Errorf("expression: expressions must be a non-empty list")
	}
	for _, r := range rules {
		switch r.kind {
		case "auto", "math", "string", "date", "":
		default:
			return fmt.Errorf("expression: unknown type %q", r.kind)
		}
	}
	return nil
}

func parseExprRules(cfg map[string]any) ([]exprRule, error) {
	raw, _ := cfg["expressions"].([]any)
	rules := make([]exprRule, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expression: expressions[%d] must be an object", i)
		}
		target, _ := configString(m, "target_column")
		expr, _ := configString(m, "expression")
		kind, _ := configString(m, "type")
		if kind == "" {
			kind = "auto"
		}
		if target == "" || expr == "" {
			return nil, fmt.Errorf("expression: expressions[%d] needs target_column and expression", i)
		}
		rules = append(rules, exprRule{target: target, expr: expr, kind: kind})
	}
	return rules, nil
}

func (Expression) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	rules, err := parseExprRules(cfg)
	if err != nil {
		return nil, err
	}

	out := make([]transform.Row, len(rows))
	for i, r := range rows {
		nr := cloneRow(r)
		for _, rule := range rules {
			v, err := evalExpr(r, rule)
			if err != nil {
				return nil, fmt.Errorf("expression: %s: %w", rule.target, err)
			}
			nr[rule.target] = v
		}
		out[i] = nr
	}
	return out, nil
}

func evalExpr(row transform.Row, rule exprRule) (any, error) {
	kind := rule.kind
	if kind == "auto" || kind == "" {
		kind = inferExprKind(rule.expr)
	}
	switch kind {
	case "math":
		return evalMathExpr(row, rule.expr)
	case "date":
		return evalDateExpr(row, rule.expr)
	default:
		return evalStringExpr(row, rule.expr)
	}
}

func inferExprKind(expr string) string {
	upper := strings.ToUpper(expr)
	for _, fn := range []string{"DATEADD", "DATEDIFF", "DATEPART"} {
		if strings.Contains(upper, fn) {
			return "date"
		}
	}
	for _, fn := range []string{"UPPER", "LOWER", "TRIM", "CONCAT", "REGEX_REPLACE", "SPLIT"} {
		if strings.Contains(upper, fn) {
			return "string"
		}
	}
	for _, op := range []string{"+", "-", "*", "/"} {
		if strings.Contains(expr, op) {
			return "math"
		}
	}
	return "string"
}

// resolvePlaceholders substitutes every {col} with its serialized row
// value, returning the substituted text.
func resolvePlaceholders(row transform.Row, expr string) string {
	return placeholderPattern.ReplaceAllStringFunc(expr, func(m string) string {
		col := m[1 : len(m)-1]
		return serialize(row[col])
	})
}

func evalMathExpr(row transform.Row, expr string) (any, error) {
	substituted := resolvePlaceholders(row, expr)
	substituted = strings.TrimSpace(substituted)

	for _, op := range []string{"+", "-", "*", "/"} {
		idx := strings.Index(substituted, " "+op+" ")
		if idx < 0 {
			continue
		}
		lf, lok := asFloat(strings.TrimSpace(substituted[:idx]))
		rf, rok := asFloat(strings.TrimSpace(substituted[idx+3:]))
		if !lok || !rok {
			return nil, fmt.Errorf("non-numeric operand in %q", expr)
		}
		switch op {
		case "+":
			return lf + rf, nil
		case "-":
			return lf - rf, nil
		case "*":
			return lf * rf, nil
		case "/":
			if rf == 0 {
				return nil, fmt.Errorf("division by zero in %q", expr)
			}
			return lf / rf, nil
		}
	}
	if f, ok := asFloat(substituted); ok {
		return f, nil
	}
	return substituted, nil
}

func evalStringExpr(row transform.Row, expr string) (any, error) {
	substituted := strings.TrimSpace(resolvePlaceholders(row, expr))
	m := funcCallPattern.FindStringSubmatch(substituted)
	if m == nil {
		return substituted, nil
	}
	fn, argsRaw := m[1], m[2]
	args := splitTopLevelArgs(argsRaw)

	switch fn {
	case "UPPER":
		return strings.ToUpper(unquote(args[0])), nil
	case "LOWER":
		return strings.ToLower(unquote(args[0])), nil
	case "TRIM":
		return strings.TrimSpace(unquote(args[0])), nil
	case "CONCAT":
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(unquote(a))
		}
		return sb.String(), nil
	case "REGEX_REPLACE":
		if len(args) != 3 {
			return nil, fmt.Errorf("REGEX_REPLACE needs 3 arguments")
		}
		re, err := regexp.Compile(unquote(args[1]))
		if err != nil {
			return nil, err
		}
		return re.ReplaceAllString(unquote(args[0]), unquote(args[2])), nil
	case "SPLIT":
		if len(args) != 3 {
			return nil, fmt.Errorf("SPLIT needs 3 arguments (value, delimiter, index)")
		}
		parts := strings.Split(unquote(args[0]), unquote(args[1]))
		idx, err := strconv.Atoi(strings.TrimSpace(args[2]))
		if err != nil || idx < 0 || idx >= len(parts) {
			return "", nil
		}
		return parts[idx], nil
	default:
		return substituted, nil
	}
}

func evalDateExpr(row transform.Row, expr string) (any, error) {
	substituted := strings.TrimSpace(resolvePlaceholders(row, expr))
	m := funcCallPattern.FindStringSubmatch(substituted)
	if m == nil {
		return substituted, nil
	}
	fn, argsRaw := m[1], m[2]
	args := splitTopLevelArgs(argsRaw)

	switch fn {
	case "DATEADD":
		if len(args) != 3 {
			return nil, fmt.Errorf("DATEADD needs 3 arguments (date, n, unit)")
		}
		t, err := parseFlexibleDate(unquote(args[0]))
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil {
			return nil, err
		}
		return addDateUnit(t, n, strings.ToUpper(unquote(args[2]))).Format("2006-01-02"), nil
	case "DATEDIFF":
		if len(args) != 3 {
			return nil, fmt.Errorf("DATEDIFF needs 3 arguments (date1, date2, unit)")
		}
		t1, err := parseFlexibleDate(unquote(args[0]))
		if err != nil {
			return nil, err
		}
		t2, err := parseFlexibleDate(unquote(args[1]))
		if err != nil {
			return nil, err
		}
		return diffDateUnit(t1, t2, strings.ToUpper(unquote(args[2]))), nil
	case "DATEPART":
		if len(args) != 2 {
			return nil, fmt.Errorf("DATEPART needs 2 arguments (date, part)")
		}
		t, err := parseFlexibleDate(unquote(args[0]))
		if err != nil {
			return nil, err
		}
		return datePart(t, strings.ToUpper(unquote(args[1]))), nil
	default:
		return substituted, nil
	}
}

var dateLayouts = []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00", "2006-01-02"}

func parseFlexibleDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func addDateUnit(t time.Time, n int, unit string) time.Time {
	switch unit {
	case "DAY", "DAYS":
		return t.AddDate(0, 0, n)
	case "MONTH", "MONTHS":
		return t.AddDate(0, n, 0)
	case "YEAR", "YEARS":
		return t.AddDate(n, 0, 0)
	case "HOUR", "HOURS":
		return t.Add(time.Duration(n) * time.Hour)
	default:
		return t.AddDate(0, 0, n)
	}
}

func diffDateUnit(t1, t2 time.Time, unit string) int {
	d := t2.Sub(t1)
	switch unit {
	case "DAY", "DAYS":
		return int(d.Hours() / 24)
	case "HOUR", "HOURS":
		return int(d.Hours())
	case "MONTH", "MONTHS":
		months := (t2.Year()-t1.Year())*12 + int(t2.Month()) - int(t1.Month())
		return months
	case "YEAR", "YEARS":
		return t2.Year() - t1.Year()
	default:
		return int(d.Hours() / 24)
	}
}

func datePart(t time.Time, part string) int {
	switch part {
	case "YEAR":
		return t.Year()
	case "MONTH":
		return int(t.Month())
	case "DAY":
		return t.Day()
	case "HOUR":
		return t.Hour()
	case "MINUTE":
		return t.Minute()
	case "SECOND":
		return t.Second()
	case "WEEKDAY":
		return int(t.Weekday())
	default:
		return 0
	}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

// splitTopLevelArgs splits a function-call argument list on commas not
// nested inside a quoted string.
func splitTopLevelArgs(s string) []string {
	var args []string
	var cur strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ',' && !inQuote:
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 || len(args) > 0 {
		args = append(args, strings.TrimSpace(cur.String()))
	}
	return args
}
