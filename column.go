package mysqldump

import "strings"

// numericTypes are emitted unquoted. bit appears here and in blobTypes:
// it is numeric for SQL purposes but selected as LPAD(HEX(col),2,'0')
// and emitted as 0x... under hex-blob.
var numericTypes = map[string]bool{
	"bit":       true,
	"tinyint":   true,
	"smallint":  true,
	"mediumint": true,
	"int":       true,
	"integer":   true,
	"bigint":    true,
	"real":      true,
	"double":    true,
	"float":     true,
	"decimal":   true,
	"numeric":   true,
}

// blobTypes are selected as HEX(col) and emitted as 0x... under hex-blob.
var blobTypes = map[string]bool{
	"tinyblob":           true,
	"blob":               true,
	"mediumblob":         true,
	"longblob":           true,
	"binary":             true,
	"varbinary":          true,
	"bit":                true,
	"geometry":           true,
	"point":              true,
	"linestring":         true,
	"polygon":            true,
	"multipoint":         true,
	"multilinestring":    true,
	"multipolygon":       true,
	"geometrycollection": true,
}

// ColumnType classifies one column of a dumped table or view.
type ColumnType struct {
	Field     string // column name as reported by the catalog
	Type      string // lowercase type keyword, e.g. "varchar"
	RawSQL    string // original type expression, e.g. "varchar(255)"
	IsNumeric bool
	IsBlob    bool
	IsVirtual bool
}

// parseColumnType builds a descriptor from the catalog's raw type
// expression and Extra attribute. Unknown keywords classify as neither
// numeric nor BLOB and are emitted as quoted strings.
func parseColumnType(field, rawType, extra string) ColumnType {
	keyword := strings.ToLower(rawType)
	if i := strings.IndexByte(keyword, '('); i >= 0 {
		keyword = keyword[:i]
	}
	if i := strings.IndexByte(keyword, ' '); i >= 0 {
		keyword = keyword[:i]
	}

	ex := strings.ToLower(extra)
	return ColumnType{
		Field:     field,
		Type:      keyword,
		RawSQL:    rawType,
		IsNumeric: numericTypes[keyword],
		IsBlob:    blobTypes[keyword],
		IsVirtual: strings.Contains(ex, "virtual generated") || strings.Contains(ex, "stored generated"),
	}
}

// hasVirtualColumns reports whether any descriptor is a generated
// column. Positional inserts would misalign when generated columns are
// omitted from the projection, so complete-insert is forced for such
// tables.
func hasVirtualColumns(cols []ColumnType) bool {
	for _, c := range cols {
		if c.IsVirtual {
			return true
		}
	}
	return false
}
