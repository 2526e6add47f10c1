package replication

import "testing"

func TestColumnCategory(t *testing.T) {
	tests := []struct {
		targetType string
		want       category
	}{
		{"timestamp", categoryTimestamp},
		{"timestamp without time zone", categoryTimestamp},
		{"datetime", categoryTimestamp},
		{"date", categoryDate},
		{"time", categoryTime},
		{"boolean", categoryBoolean},
		{"bool", categoryBoolean},
		{"bytea", categoryBinary},
		{"binary(16)", categoryBinary},
		{"blob", categoryBinary},
		{"integer", categoryInteger},
		{"bigint", categoryInteger},
		{"numeric(10,2)", categoryDecimal},
		{"double precision", categoryDecimal},
		{"varchar(255)", categoryString},
		{"text", categoryString},
		{"", categoryString},
	}
	for _, tt := range tests {
		if got := columnCategory(tt.targetType); got != tt.want {
			t.Errorf("columnCategory(%q) = %v, want %v", tt.targetType, got, tt.want)
		}
	}
}

func TestIsNullLike(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"literal NULL", "NULL", true},
		{"backslash N", `\N`, true},
		{"nul byte", "\x00", true},
		{"backslash zero", `\0`, true},
		{"zero date", "0000-00-00", true},
		{"sentinel 1900", "1900-01-01", true},
		{"sentinel 1900 with time", "1900-01-01 00:00:00", true},
		{"sentinel 1970", "1970-01-01", true},
		{"non-ascii byte", "caf\xc3\xa9\x01", true},
		{"ordinary string", "hello", false},
		{"ordinary date", "2024-05-01", false},
		{"non-string value passes through", 42, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNullLike(tt.raw); got != tt.want {
				t.Errorf("isNullLike(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIsHexString(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"deadbeef", true},
		{"DEADBEEF", true},
		{"1234", true},
		{"", false},
		{"not hex!", false},
		{"12g4", false},
	}
	for _, tt := range tests {
		if got := isHexString(tt.s); got != tt.want {
			t.Errorf("isHexString(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestCleanseValue(t *testing.T) {
	tests := []struct {
		name string
		cat  category
		raw  any
		want any
	}{
		{"integer null", categoryInteger, nil, 0},
		{"integer value", categoryInteger, 7, 7},
		{"decimal null", categoryDecimal, `\N`, 0.0},
		{"decimal value", categoryDecimal, 3.14, 3.14},
		{"string null", categoryString, "", defaultStringMarker},
		{"string value", categoryString, "hi", "hi"},
		{"date null", categoryDate, "0000-00-00", "1970-01-01"},
		{"date value", categoryDate, "2024-05-01", "2024-05-01"},
		{"timestamp null", categoryTimestamp, nil, "1970-01-01 00:00:00"},
		{"timestamp value", categoryTimestamp, "2024-05-01 10:00:00", "2024-05-01 10:00:00"},
		{"time null", categoryTime, "NULL", "00:00:00"},
		{"time value", categoryTime, "10:00:00", "10:00:00"},
		{"boolean null", categoryBoolean, nil, false},
		{"boolean value", categoryBoolean, true, true},
		{"binary null", categoryBinary, nil, nil},
		{"binary non-hex", categoryBinary, "not hex!", nil},
		{"binary hex passes through", categoryBinary, "deadbeef", "deadbeef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanseValue(tt.cat, tt.raw); got != tt.want {
				t.Errorf("cleanseValue(%v, %v) = %v, want %v", tt.cat, tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanseRowDoesNotMutateInput(t *testing.T) {
	row := map[string]any{"id": 1, "name": "", "active": nil}
	cols := []columnSpec{
		{Name: "name", Category: categoryString},
		{Name: "active", Category: categoryBoolean},
	}

	out := CleanseRow(row, cols)

	if row["name"] != "" {
		t.Fatalf("input row mutated: name = %v", row["name"])
	}
	if row["active"] != nil {
		t.Fatalf("input row mutated: active = %v", row["active"])
	}
	if out["name"] != defaultStringMarker {
		t.Fatalf("out[name] = %v, want %v", out["name"], defaultStringMarker)
	}
	if out["active"] != false {
		t.Fatalf("out[active] = %v, want false", out["active"])
	}
	if out["id"] != 1 {
		t.Fatalf("out[id] = %v, want 1 (untouched column copied through)", out["id"])
	}
}

func TestColumnSpecsCoversEveryTargetType(t *testing.T) {
	targetTypes := map[string]string{
		"id":         "bigint",
		"created_at": "timestamp",
	}
	specs := columnSpecs(targetTypes)
	if len(specs) != 2 {
		t.Fatalf("len(specs) = %d, want 2", len(specs))
	}
	byName := make(map[string]category, len(specs))
	for _, s := range specs {
		byName[s.Name] = s.Category
	}
	if byName["id"] != categoryInteger {
		t.Errorf("id category = %v, want integer", byName["id"])
	}
	if byName["created_at"] != categoryTimestamp {
		t.Errorf("created_at category = %v, want timestamp", byName["created_at"])
	}
}
