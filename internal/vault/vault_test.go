package vault

import (
	"context"
	"testing"

	"github.com/tgberrios/datasync/internal/processlog"
	"github.com/tgberrios/datasync/internal/target"
)

func TestBuilderBuildRunsFullVaultInDependencyOrderAndLogsSuccess(t *testing.T) {
	ctx := context.Background()
	wh := newFakeWarehouse()
	wh.seed("silver", "accounts", []target.Row{{"acct_id": "AA", "status": "ACTIVE"}})
	wh.seed("silver", "people", []target.Row{{"person_id": "P1"}})
	wh.seed("silver", "ownership", []target.Row{{"acct_id": "AA", "person_id": "P1"}})

	log := processlog.NewMemoryStore()
	b := NewBuilder(wh, log)

	model := Model{
		Name:       "accounts_vault",
		GoldSchema: "gold",
		Hubs: []HubTable{
			{Name: "hub_account", SilverSchema: "silver", SilverTable: "accounts", BusinessKeys: []string{"acct_id"}},
			{Name: "hub_person", SilverSchema: "silver", SilverTable: "people", BusinessKeys: []string{"person_id"}},
		},
		Links: []LinkTable{{
			Name: "link_ownership", SilverSchema: "silver", SilverTable: "ownership",
			Refs: []LinkHubRef{
				{Hub: "hub_account", BusinessKeys: []string{"acct_id"}},
				{Hub: "hub_person", BusinessKeys: []string{"person_id"}},
			},
		}},
		Satellites: []SatelliteTable{{
			Name: "sat_account_status", SilverSchema: "silver", SilverTable: "accounts",
			ParentKind: ParentHub, ParentName: "hub_account", ParentBusinessKeys: []string{"acct_id"},
			DescriptiveColumns: []string{"status"}, IsHistorized: true,
		}},
		PITs: []PointInTimeTable{{
			Name: "pit_account", Hub: "hub_account", Satellites: []string{"sat_account_status"},
		}},
		Bridges: []BridgeTable{{
			Name: "bridge_ownership", Hub: "hub_account", Links: []string{"link_ownership"},
		}},
	}

	result, err := b.Build(ctx, model)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.HubRows["hub_account"] != 1 || result.HubRows["hub_person"] != 1 {
		t.Fatalf("hub rows = %+v, want 1 each", result.HubRows)
	}
	if result.LinkRows["link_ownership"] != 1 {
		t.Fatalf("link rows = %+v, want 1", result.LinkRows)
	}
	if result.SatelliteRows["sat_account_status"] != 1 {
		t.Fatalf("satellite rows = %+v, want 1", result.SatelliteRows)
	}
	if result.PITRows["pit_account"] != 1 {
		t.Fatalf("pit rows = %+v, want 1", result.PITRows)
	}
	if result.BridgeRows["bridge_ownership"] != 1 {
		t.Fatalf("bridge rows = %+v, want 1", result.BridgeRows)
	}

	records, err := log.ListByEntity(ctx, "vault:accounts_vault")
	if err != nil || len(records) != 1 || records[0].Status != processlog.Success {
		t.Fatalf("process log = %+v, %v", records, err)
	}
}

func TestBuilderBuildRejectsCyclicModel(t *testing.T) {
	ctx := context.Background()
	wh := newFakeWarehouse()
	log := processlog.NewMemoryStore()
	b := NewBuilder(wh, log)

	model := Model{
		Name: "broken",
		Satellites: []SatelliteTable{
			{Name: "sat_a", ParentKind: ParentLink, ParentName: "link_a"},
		},
		Links: []LinkTable{
			{Name: "link_a", Refs: []LinkHubRef{{Hub: "hub_a"}}},
		},
	}
	// Force a cycle unreachable through the declarative types alone by
	// checking the validator directly: a satellite parented on a link
	// that in turn (nonsensically) depended on that satellite.
	g := buildGraph(model)
	g["sat:sat_a"] = append(g["sat:sat_a"], "link:link_a")

	if _, err := topologicalOrder(g); err == nil {
		t.Fatal("expected cycle detection to reject this graph")
	}

	// A well-formed model with a genuinely undeclared hub reference
	// still fails, but as a build error rather than a cycle.
	if _, err := b.Build(ctx, model); err == nil {
		t.Fatal("expected build to fail: link_a references undeclared hub_a")
	}
}
