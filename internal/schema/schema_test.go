package schema

import (
	"context"
	"testing"
)

func TestDiffColumnsAddDropModify(t *testing.T) {
	source := []ColumnInfo{
		{Name: "id", TargetType: "bigint"},
		{Name: "Email", TargetType: "varchar", Nullable: true},
		{Name: "created_at", TargetType: "timestamp"},
	}
	target := []ColumnInfo{
		{Name: "id", TargetType: "bigint"},
		{Name: "email", TargetType: "varchar", Nullable: false},
		{Name: "legacy_flag", TargetType: "boolean"},
	}

	d := DiffColumns(source, target)

	if len(d.ColumnsToAdd) != 1 || d.ColumnsToAdd[0].Name != "created_at" {
		t.Fatalf("add = %+v", d.ColumnsToAdd)
	}
	if len(d.ColumnsToDrop) != 1 || d.ColumnsToDrop[0].Name != "legacy_flag" {
		t.Fatalf("drop = %+v", d.ColumnsToDrop)
	}
	if len(d.ColumnsToModify) != 1 || d.ColumnsToModify[0].New.Name != "Email" {
		t.Fatalf("modify = %+v", d.ColumnsToModify)
	}
	if !d.HasChanges() {
		t.Fatal("expected HasChanges true")
	}
}

func TestDiffColumnsNoChanges(t *testing.T) {
	cols := []ColumnInfo{{Name: "id", TargetType: "bigint"}}
	d := DiffColumns(cols, cols)
	if d.HasChanges() {
		t.Fatalf("expected no changes, got %+v", d)
	}
}

func TestCompatible(t *testing.T) {
	cases := []struct {
		old, new string
		want     bool
	}{
		{"bigint", "bigint", true},
		{"varchar", "varchar", true},
		{"char", "char", true},
		{"numeric", "numeric", true},
		{"smallint", "integer", true},
		{"integer", "bigint", true},
		{"smallint", "bigint", true},
		{"bigint", "smallint", false},
		{"varchar", "integer", false},
		{"integer", "boolean", false},
	}
	for _, c := range cases {
		if got := Compatible(c.old, c.new); got != c.want {
			t.Errorf("Compatible(%q, %q) = %v, want %v", c.old, c.new, got, c.want)
		}
	}
}

type fakeExecutor struct {
	statements []string
}

func (f *fakeExecutor) ExecuteStatement(ctx context.Context, sql string) error {
	f.statements = append(f.statements, sql)
	return nil
}

func (f *fakeExecutor) QuoteIdentifier(s string) string { return `"` + s + `"` }

func TestApplySkipsIncompatibleModify(t *testing.T) {
	exec := &fakeExecutor{}
	d := Diff{
		ColumnsToModify: []ColumnPair{
			{Old: ColumnInfo{Name: "amount", TargetType: "varchar"}, New: ColumnInfo{Name: "amount", TargetType: "integer"}},
		},
	}
	var skipped []ColumnPair
	err := Apply(context.Background(), exec, "shop", "orders", d, func(p ColumnPair) { skipped = append(skipped, p) })
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(exec.statements) != 0 {
		t.Fatalf("expected no statements, got %v", exec.statements)
	}
	if len(skipped) != 1 {
		t.Fatalf("expected one skip callback, got %d", len(skipped))
	}
}

func TestApplyRejectsPrimaryKeyDrop(t *testing.T) {
	exec := &fakeExecutor{}
	d := Diff{ColumnsToDrop: []ColumnInfo{{Name: "id", IsPrimaryKey: true}}}
	err := Apply(context.Background(), exec, "shop", "orders", d, nil)
	if err == nil {
		t.Fatal("expected ErrPrimaryKeyChange")
	}
}

func TestSyncNoDDLWhenTargetMissing(t *testing.T) {
	exec := &fakeExecutor{}
	d, err := Sync(context.Background(), exec, "shop", "orders",
		[]ColumnInfo{{Name: "id", TargetType: "bigint"}}, nil, false, nil)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if d.HasChanges() {
		t.Fatalf("expected empty diff when target missing, got %+v", d)
	}
	if len(exec.statements) != 0 {
		t.Fatal("expected no DDL when target does not exist")
	}
}
