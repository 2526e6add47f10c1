package replication

import (
	"strings"
	"unicode"
)

// category is the target-column bucket the cleansing rule table keys on.
type category string

const (
	categoryInteger   category = "integer"
	categoryDecimal   category = "decimal"
	categoryString    category = "string"
	categoryDate      category = "date"
	categoryTimestamp category = "timestamp"
	categoryTime      category = "time"
	categoryBoolean   category = "boolean"
	categoryBinary    category = "binary"
)

// defaultStringMarker is the sentinel substituted for a null string value
// (§4.5 "strings→DEFAULT marker").
const defaultStringMarker = "DEFAULT"

// columnCategory maps a canonical target type name (as produced by
// internal/schema / internal/source type mappers) to the cleansing
// category it falls under. Unknown types fall back to categoryString, the
// safest bucket.
func columnCategory(targetType string) category {
	t := strings.ToLower(targetType)
	switch {
	case strings.Contains(t, "timestamp"):
		return categoryTimestamp
	case strings.Contains(t, "datetime"):
		return categoryTimestamp
	case t == "date":
		return categoryDate
	case t == "time":
		return categoryTime
	case strings.Contains(t, "bool"):
		return categoryBoolean
	case strings.Contains(t, "bytea"), strings.Contains(t, "binary"), strings.Contains(t, "blob"):
		return categoryBinary
	case strings.Contains(t, "int"):
		return categoryInteger
	case strings.Contains(t, "decimal"), strings.Contains(t, "numeric"), strings.Contains(t, "float"), strings.Contains(t, "double"), strings.Contains(t, "real"):
		return categoryDecimal
	default:
		return categoryString
	}
}

// sentinelNullDates are the literal date strings §4.5 treats as null
// regardless of category ("0000-…", "1900-01-01", "1970-01-01").
var sentinelNullDates = []string{"1900-01-01", "1970-01-01"}

// isNullLike reports whether raw is one of the null-detection cases from
// §4.5: empty, the literal markers NULL/\N/\0, a sentinel date, or any
// non-printable / non-ASCII byte.
func isNullLike(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	if !ok {
		return false
	}
	if s == "" {
		return true
	}
	switch s {
	case "NULL", `\N`, "\x00", `\0`:
		return true
	}
	if strings.HasPrefix(s, "0000-") {
		return true
	}
	for _, sentinel := range sentinelNullDates {
		if strings.HasPrefix(s, sentinel) {
			return true
		}
	}
	for _, r := range s {
		if r > unicode.MaxASCII || (r < 0x20 && r != '\t') {
			return true
		}
	}
	return false
}

// isHexString reports whether s looks like a hex-encoded byte string (the
// binary category's "non-hex" null test).
func isHexString(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return true
}

// cleanseValue applies the canonical null-substitution rule for cat to raw,
// returning the value the full-load stream and CDC apply should write.
//
// The DESIGN.md-recorded open question: a string value of the literal date
// "1970-01-01" is itself null-like (sentinelNullDates above), so a
// timestamp column holding that sentinel maps to nil here, then a nil
// timestamp is substituted back to the "1970-01-01 00:00:00" sentinel —
// the same round-trip spec.md's open question flags as potentially buggy.
// The spec keeps the current rule rather than fixing it; this function
// does the same.
func cleanseValue(cat category, raw any) any {
	null := isNullLike(raw)
	switch cat {
	case categoryInteger:
		if null {
			return 0
		}
		return raw
	case categoryDecimal:
		if null {
			return 0.0
		}
		return raw
	case categoryString:
		if null {
			return defaultStringMarker
		}
		return raw
	case categoryDate:
		if null {
			return "1970-01-01"
		}
		return raw
	case categoryTimestamp:
		if null {
			return "1970-01-01 00:00:00"
		}
		return raw
	case categoryTime:
		if null {
			return "00:00:00"
		}
		return raw
	case categoryBoolean:
		if null {
			return false
		}
		return raw
	case categoryBinary:
		if null {
			return nil
		}
		if s, ok := raw.(string); ok && !isHexString(s) {
			return nil
		}
		return raw
	default:
		return raw
	}
}

// CleanseRow applies cleanseValue to every column in row per its target
// type, returning a new map (row is never mutated in place, matching the
// engine-wide "operators are side-effect-free on inputs" discipline C7
// follows).
func CleanseRow(row map[string]any, cols []columnSpec) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	for _, c := range cols {
		out[c.Name] = cleanseValue(c.Category, row[c.Name])
	}
	return out
}

// columnSpec is the minimal per-column cleansing input: name and category.
type columnSpec struct {
	Name     string
	Category category
}

func columnSpecs(targetTypes map[string]string) []columnSpec {
	out := make([]columnSpec, 0, len(targetTypes))
	for name, targetType := range targetTypes {
		out = append(out, columnSpec{Name: name, Category: columnCategory(targetType)})
	}
	return out
}
