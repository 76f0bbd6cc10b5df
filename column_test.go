package mysqldump

import "testing"

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		name    string
		rawType string
		extra   string
		want    ColumnType
	}{
		{
			name:    "int with length",
			rawType: "int(11)",
			want:    ColumnType{Type: "int", RawSQL: "int(11)", IsNumeric: true},
		},
		{
			name:    "unsigned bigint",
			rawType: "bigint(20) unsigned",
			want:    ColumnType{Type: "bigint", RawSQL: "bigint(20) unsigned", IsNumeric: true},
		},
		{
			name:    "double precision",
			rawType: "double precision",
			want:    ColumnType{Type: "double", RawSQL: "double precision", IsNumeric: true},
		},
		{
			name:    "varchar",
			rawType: "varchar(255)",
			want:    ColumnType{Type: "varchar", RawSQL: "varchar(255)"},
		},
		{
			name:    "blob",
			rawType: "blob",
			want:    ColumnType{Type: "blob", RawSQL: "blob", IsBlob: true},
		},
		{
			name:    "bit is numeric and blob",
			rawType: "bit(8)",
			want:    ColumnType{Type: "bit", RawSQL: "bit(8)", IsNumeric: true, IsBlob: true},
		},
		{
			name:    "geometry",
			rawType: "geometry",
			want:    ColumnType{Type: "geometry", RawSQL: "geometry", IsBlob: true},
		},
		{
			name:    "virtual generated",
			rawType: "int(11)",
			extra:   "VIRTUAL GENERATED",
			want:    ColumnType{Type: "int", RawSQL: "int(11)", IsNumeric: true, IsVirtual: true},
		},
		{
			name:    "stored generated",
			rawType: "varchar(64)",
			extra:   "STORED GENERATED",
			want:    ColumnType{Type: "varchar", RawSQL: "varchar(64)", IsVirtual: true},
		},
		{
			name:    "unknown keyword",
			rawType: "frobnicator(3)",
			want:    ColumnType{Type: "frobnicator", RawSQL: "frobnicator(3)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseColumnType("c", tt.rawType, tt.extra)
			tt.want.Field = "c"
			if got != tt.want {
				t.Errorf("parseColumnType() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHasVirtualColumns(t *testing.T) {
	cols := []ColumnType{
		parseColumnType("a", "int(11)", "auto_increment"),
		parseColumnType("b", "int(11)", "VIRTUAL GENERATED"),
	}
	if !hasVirtualColumns(cols) {
		t.Error("hasVirtualColumns() = false, want true")
	}
	if hasVirtualColumns(cols[:1]) {
		t.Error("hasVirtualColumns() = true, want false")
	}
}
