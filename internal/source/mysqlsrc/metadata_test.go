package mysqlsrc

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Engine{cfg: ConnectionConfig{Name: "test"}, db: db}, mock
}

func TestDetectPrimaryKey(t *testing.T) {
	e, mock := newMockEngine(t)

	rows := sqlmock.NewRows([]string{"column_name"}).AddRow("id").AddRow("tenant_id")
	mock.ExpectQuery("SELECT column_name").WithArgs("shop", "orders").WillReturnRows(rows)

	got, err := e.DetectPrimaryKey(context.Background(), "shop", "orders")
	if err != nil {
		t.Fatalf("DetectPrimaryKey: %v", err)
	}
	want := []string{"id", "tenant_id"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetColumnsMapsTypes(t *testing.T) {
	e, mock := newMockEngine(t)

	pkRows := sqlmock.NewRows([]string{"column_name"}).AddRow("id")
	mock.ExpectQuery("SELECT column_name").WithArgs("shop", "orders").WillReturnRows(pkRows)

	colRows := sqlmock.NewRows([]string{
		"column_name", "data_type", "is_nullable", "column_default",
		"ordinal_position", "character_maximum_length", "numeric_precision", "numeric_scale",
	}).
		AddRow("id", "bigint", "NO", nil, 1, nil, nil, nil).
		AddRow("email", "varchar", "YES", nil, 2, 255, nil, nil).
		AddRow("balance", "decimal", "NO", nil, 3, nil, 10, 2)
	mock.ExpectQuery("SELECT column_name, data_type").WithArgs("shop", "orders").WillReturnRows(colRows)

	cols, err := e.GetColumns(context.Background(), "shop", "orders")
	if err != nil {
		t.Fatalf("GetColumns: %v", err)
	}
	if len(cols) != 3 {
		t.Fatalf("got %d columns, want 3", len(cols))
	}
	if cols[0].TargetType != "bigint" || !cols[0].IsPrimaryKey {
		t.Fatalf("id column = %+v", cols[0])
	}
	if cols[1].TargetType != "varchar" || cols[1].IsPrimaryKey {
		t.Fatalf("email column = %+v", cols[1])
	}
	if cols[2].TargetType != "numeric" {
		t.Fatalf("balance column = %+v", cols[2])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMapTypeFallsBackToText(t *testing.T) {
	if got := mapType("geometry", 0, 0, 0); got != "text" {
		t.Fatalf("mapType(geometry) = %q, want text", got)
	}
}
