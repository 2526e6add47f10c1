package postgres

import "strconv"

// NativeType maps a canonical type name (as produced by source adapters'
// GetColumns) to a PostgreSQL native column type. A varchar without a
// known length becomes text, a char without one becomes char(1), and a
// numeric without a precision stays unconstrained numeric.
func NativeType(canonical string, maxLength, precision, scale int) string {
	switch canonical {
	case "smallint":
		return "smallint"
	case "integer":
		return "integer"
	case "bigint":
		return "bigint"
	case "real":
		return "real"
	case "double precision":
		return "double precision"
	case "boolean":
		return "boolean"
	case "date":
		return "date"
	case "timestamp":
		return "timestamp without time zone"
	case "time":
		return "time without time zone"
	case "varchar":
		if maxLength > 0 {
			return "varchar(" + strconv.Itoa(maxLength) + ")"
		}
		return "text"
	case "char":
		if maxLength > 0 {
			return "char(" + strconv.Itoa(maxLength) + ")"
		}
		return "char(1)"
	case "numeric":
		if precision > 0 {
			return "numeric(" + strconv.Itoa(precision) + "," + strconv.Itoa(scale) + ")"
		}
		return "numeric"
	case "text":
		return "text"
	case "bytea":
		return "bytea"
	case "json":
		return "jsonb"
	default:
		return "text"
	}
}
