package schema

import "strings"

// typeClass buckets a normalized canonical type name into the families the
// compatibility predicate reasons about. Types outside the recognized
// families fall back to exact-string equality.
type typeClass int

const (
	classOther typeClass = iota
	classVarchar
	classChar
	classNumeric
	classSmallint
	classInteger
	classBigint
)

func classify(t string) typeClass {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "varchar", "nvarchar", "text", "string":
		return classVarchar
	case "char", "nchar":
		return classChar
	case "numeric", "decimal":
		return classNumeric
	case "smallint", "int2":
		return classSmallint
	case "integer", "int", "int4":
		return classInteger
	case "bigint", "int8":
		return classBigint
	default:
		return classOther
	}
}

// widenKey is the (from, to) pair the widening table is keyed on — the
// same map-keyed-by-small-struct idiom the compatibility matrix for DDL
// algorithm/lock classification uses, here narrowed to the handful of
// integer-widening pairs the compatibility predicate names explicitly.
type widenKey struct {
	from typeClass
	to   typeClass
}

// widenAllowed lists the one-directional integer widenings the predicate
// treats as compatible: smallint→integer, integer→bigint, and the
// transitive smallint→bigint.
var widenAllowed = map[widenKey]bool{
	{classSmallint, classInteger}: true,
	{classInteger, classBigint}:   true,
	{classSmallint, classBigint}:  true,
}

// Compatible reports whether changing a column's type from oldType to
// newType is safe to apply in place (ALTER COLUMN TYPE), per:
//
//	same normalized type, OR
//	varchar<->varchar (any length), OR
//	char<->char (any length), OR
//	numeric<->numeric (precision/scale may widen), OR
//	smallint->integer, integer->bigint, smallint->bigint.
//
// Everything else — including any narrowing change or a cross-family
// change not named above — is incompatible and must be skipped by Apply.
func Compatible(oldType, newType string) bool {
	if strings.EqualFold(strings.TrimSpace(oldType), strings.TrimSpace(newType)) {
		return true
	}

	oc, nc := classify(oldType), classify(newType)
	if oc == classOther || nc == classOther {
		return false
	}
	switch {
	case oc == classVarchar && nc == classVarchar:
		return true
	case oc == classChar && nc == classChar:
		return true
	case oc == classNumeric && nc == classNumeric:
		return true
	}
	return widenAllowed[widenKey{oc, nc}]
}
