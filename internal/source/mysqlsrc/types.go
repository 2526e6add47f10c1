package mysqlsrc

import "strings"

// mapType maps a MySQL information_schema.columns data_type to this
// engine's canonical target type name, the way the teacher's ddl_matrix
// keys on a small closed set of MySQL-specific names — except here the
// table maps INTO the canonical space rather than classifying an ALTER.
var canonicalTypes = map[string]string{
	"tinyint":    "smallint",
	"smallint":   "smallint",
	"mediumint":  "integer",
	"int":        "integer",
	"bigint":     "bigint",
	"decimal":    "numeric",
	"numeric":    "numeric",
	"float":      "real",
	"double":     "double precision",
	"bit":        "boolean",
	"date":       "date",
	"datetime":   "timestamp",
	"timestamp":  "timestamp",
	"time":       "time",
	"year":       "smallint",
	"char":       "char",
	"varchar":    "varchar",
	"binary":     "bytea",
	"varbinary":  "bytea",
	"tinyblob":   "bytea",
	"blob":       "bytea",
	"mediumblob": "bytea",
	"longblob":   "bytea",
	"tinytext":   "text",
	"text":       "text",
	"mediumtext": "text",
	"longtext":   "text",
	"json":       "json",
	"enum":       "varchar",
	"set":        "varchar",
}

func mapType(mysqlType string, maxLen, precision, scale int) string {
	canonical, ok := canonicalTypes[strings.ToLower(mysqlType)]
	if !ok {
		return "text"
	}
	return canonical
}
