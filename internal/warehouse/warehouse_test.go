package warehouse

import (
	"context"
	"testing"

	"github.com/tgberrios/datasync/internal/processlog"
	"github.com/tgberrios/datasync/internal/schema"
	"github.com/tgberrios/datasync/internal/target"
)

func TestBuilderBuildRunsBronzeSilverGoldAndLogsSuccess(t *testing.T) {
	ctx := context.Background()
	wh := newFakeWarehouse()
	wh.seed("raw", "customers", []schema.ColumnInfo{{Name: "customer_id", TargetType: "text"}, {Name: "email", TargetType: "text"}},
		[]target.Row{{"customer_id": 1, "email": "a@x.com"}})
	wh.seed("raw", "orders", []schema.ColumnInfo{{Name: "customer_id", TargetType: "text"}, {Name: "amount", TargetType: "numeric"}},
		[]target.Row{{"customer_id": 1, "amount": 42}})

	log := processlog.NewMemoryStore()
	b := NewBuilder(wh, nil, log)

	model := Model{
		Name: "sales",
		Sources: []SilverSource{
			{RawSchema: "raw", RawTable: "customers", SilverSchema: "silver", SilverTable: "customers"},
			{RawSchema: "raw", RawTable: "orders", SilverSchema: "silver", SilverTable: "orders"},
		},
		GoldSchema: "gold",
		Dimensions: []DimensionTable{{
			Name: "dim_customer", SilverSchema: "silver", SilverTable: "customers",
			BusinessKeys: []string{"customer_id"}, TrackedColumns: []string{"email"}, SCD: SCD1,
		}},
		Facts: []FactTable{{
			Name: "fact_orders", SilverSchema: "silver", SilverTable: "orders",
			Refs:     []DimensionRef{{Dimension: "dim_customer", BusinessKeys: []string{"customer_id"}}},
			Measures: []string{"amount"},
		}},
	}

	result, err := b.Build(ctx, model)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.SilverRowsWritten != 2 {
		t.Fatalf("silver rows = %d, want 2", result.SilverRowsWritten)
	}
	if result.DimensionRows["dim_customer"] != 1 {
		t.Fatalf("dimension rows = %+v, want dim_customer=1", result.DimensionRows)
	}
	if result.FactRows["fact_orders"] != 1 {
		t.Fatalf("fact rows = %+v, want fact_orders=1", result.FactRows)
	}

	records, err := log.ListByEntity(ctx, "warehouse:sales")
	if err != nil || len(records) != 1 {
		t.Fatalf("process log records = %+v, %v", records, err)
	}
	if records[0].Status != processlog.Success {
		t.Fatalf("status = %v, want SUCCESS", records[0].Status)
	}
}

func TestBuilderBuildLogsFailureOnMissingDimension(t *testing.T) {
	ctx := context.Background()
	wh := newFakeWarehouse()
	wh.seed("raw", "orders", []schema.ColumnInfo{{Name: "customer_id", TargetType: "text"}, {Name: "amount", TargetType: "numeric"}},
		[]target.Row{{"customer_id": 1, "amount": 42}})

	log := processlog.NewMemoryStore()
	b := NewBuilder(wh, nil, log)

	model := Model{
		Name:       "broken",
		Sources:    []SilverSource{{RawSchema: "raw", RawTable: "orders", SilverSchema: "silver", SilverTable: "orders"}},
		GoldSchema: "gold",
		Facts: []FactTable{{
			Name: "fact_orders", SilverSchema: "silver", SilverTable: "orders",
			Refs: []DimensionRef{{Dimension: "dim_customer", BusinessKeys: []string{"customer_id"}}},
		}},
	}

	if _, err := b.Build(ctx, model); err == nil {
		t.Fatal("expected an error referencing an undeclared dimension")
	}

	records, _ := log.ListByEntity(ctx, "warehouse:broken")
	if len(records) != 1 || records[0].Status != processlog.Failed {
		t.Fatalf("records = %+v, want one FAILED record", records)
	}
}
