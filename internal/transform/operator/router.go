package operator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tgberrios/datasync/internal/transform"
)

// routeCondition is one route's {column, op, value} predicate.
type routeCondition struct {
	column string
	op     string
	value  any
}

// route is one {name, condition} entry.
type route struct {
	name      string
	condition routeCondition
}

// Router labels each row with `_route_name`: the name of the first
// route whose condition matches, or default_route when none match and
// one is configured. Rows matching no route and with no default_route
// configured pass through unlabeled.
type Router struct{}

func (Router) TypeName() string { return "router" }

func (Router) Validate(cfg map[string]any) error {
	routes, err := parseRoutes(cfg)
	if err != nil {
		return err
	}
	if len(routes) == 0 {
		return fmt.Errorf("router: routes must be a non-empty list")
	}
	return nil
}

func parseRoutes(cfg map[string]any) ([]route, error) {
	raw, _ := cfg["routes"].([]any)
	routes := make([]route, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("router: routes[%d] must be an object", i)
		}
		name, _ := configString(m, "name")
		if name == "" {
			return nil, fmt.Errorf("router: routes[%d] needs name", i)
		}
		condRaw, _ := m["condition"].(map[string]any)
		col, _ := configString(condRaw, "column")
		op, _ := configString(condRaw, "op")
		switch op {
		case "=", "!=", ">", "<", ">=", "<=", "LIKE", "IN", "NOT IN", "IS NULL", "IS NOT NULL":
		default:
			return nil, fmt.Errorf("router: routes[%d] has unknown op %q", i, op)
		}
		routes = append(routes, route{
			name:      name,
			condition: routeCondition{column: col, op: op, value: condRaw["value"]},
		})
	}
	return routes, nil
}

func matchCondition(r transform.Row, c routeCondition) bool {
	v := r[c.column]
	switch c.op {
	case "IS NULL":
		return isBlank(v)
	case "IS NOT NULL":
		return !isBlank(v)
	case "IN":
		list, _ := c.value.([]any)
		for _, item := range list {
			if compareValues(v, item) == 0 {
				return true
			}
		}
		return false
	case "NOT IN":
		list, _ := c.value.([]any)
		for _, item := range list {
			if compareValues(v, item) == 0 {
				return false
			}
		}
		return true
	case "LIKE":
		pattern, _ := c.value.(string)
		s, _ := v.(string)
		return likeMatch(s, pattern)
	case "=":
		return compareValues(v, c.value) == 0
	case "!=":
		return compareValues(v, c.value) != 0
	case ">":
		return compareValues(v, c.value) > 0
	case "<":
		return compareValues(v, c.value) < 0
	case ">=":
		return compareValues(v, c.value) >= 0
	case "<=":
		return compareValues(v, c.value) <= 0
	default:
		return false
	}
}

// likeMatch implements SQL LIKE's % and _ wildcards over s by
// translating the pattern into an anchored regexp.
func likeMatch(s, pattern string) bool {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func (Router) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	routes, err := parseRoutes(cfg)
	if err != nil {
		return nil, err
	}
	defaultRoute, _ := configString(cfg, "default_route")

	out := make([]transform.Row, len(rows))
	for i, r := range rows {
		nr := cloneRow(r)
		matchedName := ""
		for _, rt := range routes {
			if matchCondition(r, rt.condition) {
				matchedName = rt.name
				break
			}
		}
		if matchedName == "" {
			matchedName = defaultRoute
		}
		if matchedName != "" {
			nr["_route_name"] = matchedName
		}
		out[i] = nr
	}
	return out, nil
}
