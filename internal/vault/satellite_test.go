package vault

import (
	"context"
	"testing"
	"time"

	"github.com/tgberrios/datasync/internal/target"
)

func TestBuildSatelliteHistorizedAppendsOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	wh := newFakeWarehouse()
	wh.seed("silver", "accounts", []target.Row{{"acct_id": "AA", "status": "ACTIVE"}})

	sat := SatelliteTable{
		Name: "sat_account_status", SilverSchema: "silver", SilverTable: "accounts",
		ParentKind: ParentHub, ParentName: "hub_account", ParentBusinessKeys: []string{"acct_id"},
		DescriptiveColumns: []string{"status"}, IsHistorized: true,
	}
	b := &Builder{Warehouse: wh}

	old := now
	defer func() { now = old }()
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now = func() time.Time { return t1 }

	if _, err := b.buildSatellite(ctx, "gold", sat); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if len(wh.tables["gold.sat_account_status"].rows) != 1 {
		t.Fatalf("rows after first build = %d, want 1", len(wh.tables["gold.sat_account_status"].rows))
	}

	// no change: rebuild must not append a second version.
	if _, err := b.buildSatellite(ctx, "gold", sat); err != nil {
		t.Fatalf("no-op rebuild: %v", err)
	}
	if len(wh.tables["gold.sat_account_status"].rows) != 1 {
		t.Fatalf("unchanged rebuild appended a row: %+v", wh.tables["gold.sat_account_status"].rows)
	}

	t2 := t1.Add(24 * time.Hour)
	now = func() time.Time { return t2 }
	wh.tables["silver.accounts"].rows[0]["status"] = "SUSPENDED"
	if _, err := b.buildSatellite(ctx, "gold", sat); err != nil {
		t.Fatalf("change rebuild: %v", err)
	}
	rows := wh.tables["gold.sat_account_status"].rows
	if len(rows) != 2 {
		t.Fatalf("rows after change = %d, want 2 (append-only history)", len(rows))
	}
}

func TestBuildSatelliteNonHistorizedOverwritesInPlace(t *testing.T) {
	ctx := context.Background()
	wh := newFakeWarehouse()
	wh.seed("silver", "accounts", []target.Row{{"acct_id": "AA", "status": "ACTIVE"}})

	sat := SatelliteTable{
		Name: "sat_account_status", SilverSchema: "silver", SilverTable: "accounts",
		ParentKind: ParentHub, ParentName: "hub_account", ParentBusinessKeys: []string{"acct_id"},
		DescriptiveColumns: []string{"status"}, IsHistorized: false,
	}
	b := &Builder{Warehouse: wh}

	if _, err := b.buildSatellite(ctx, "gold", sat); err != nil {
		t.Fatalf("first build: %v", err)
	}
	wh.tables["silver.accounts"].rows[0]["status"] = "SUSPENDED"
	if _, err := b.buildSatellite(ctx, "gold", sat); err != nil {
		t.Fatalf("second build: %v", err)
	}
	rows := wh.tables["gold.sat_account_status"].rows
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 (no history kept)", len(rows))
	}
	if rows[0]["status"] != "SUSPENDED" {
		t.Fatalf("status = %v, want overwritten SUSPENDED", rows[0]["status"])
	}
}
