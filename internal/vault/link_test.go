package vault

import (
	"context"
	"testing"

	"github.com/tgberrios/datasync/internal/target"
)

func TestBuildLinkHashesReferencedHubKeysAndDedups(t *testing.T) {
	ctx := context.Background()
	wh := newFakeWarehouse()
	wh.seed("silver", "accounts", []target.Row{{"acct_id": "AA"}, {"acct_id": "BB"}})
	wh.seed("silver", "people", []target.Row{{"person_id": "P1"}})
	wh.seed("silver", "ownership", []target.Row{
		{"acct_id": "AA", "person_id": "P1"},
		{"acct_id": "AA", "person_id": "P1"}, // duplicate, must not add a second link row
	})

	hubAccount := HubTable{Name: "hub_account", SilverSchema: "silver", SilverTable: "accounts", BusinessKeys: []string{"acct_id"}}
	hubPerson := HubTable{Name: "hub_person", SilverSchema: "silver", SilverTable: "people", BusinessKeys: []string{"person_id"}}
	b := &Builder{Warehouse: wh}
	if _, err := b.buildHub(ctx, "gold", hubAccount); err != nil {
		t.Fatalf("build hub_account: %v", err)
	}
	if _, err := b.buildHub(ctx, "gold", hubPerson); err != nil {
		t.Fatalf("build hub_person: %v", err)
	}

	link := LinkTable{
		Name: "link_ownership", SilverSchema: "silver", SilverTable: "ownership",
		Refs: []LinkHubRef{
			{Hub: "hub_account", BusinessKeys: []string{"acct_id"}},
			{Hub: "hub_person", BusinessKeys: []string{"person_id"}},
		},
	}
	hubsByName := map[string]HubTable{"hub_account": hubAccount, "hub_person": hubPerson}

	if _, err := b.buildLink(ctx, "gold", link, hubsByName); err != nil {
		t.Fatalf("build link: %v", err)
	}
	rows := wh.tables["gold.link_ownership"].rows
	if len(rows) != 1 {
		t.Fatalf("link rows = %d, want 1 (deduped)", len(rows))
	}
	wantHubKey := hashKey("AA")
	if rows[0]["hub_account_key"] != wantHubKey {
		t.Fatalf("hub_account_key = %v, want %v", rows[0]["hub_account_key"], wantHubKey)
	}
}

func TestBuildLinkRejectsUndeclaredHub(t *testing.T) {
	ctx := context.Background()
	wh := newFakeWarehouse()
	wh.seed("silver", "ownership", []target.Row{{"acct_id": "AA"}})

	link := LinkTable{
		Name: "link_ownership", SilverSchema: "silver", SilverTable: "ownership",
		Refs: []LinkHubRef{{Hub: "hub_account", BusinessKeys: []string{"acct_id"}}},
	}
	b := &Builder{Warehouse: wh}
	if _, err := b.buildLink(ctx, "gold", link, map[string]HubTable{}); err == nil {
		t.Fatal("expected an error for a link referencing an undeclared hub")
	}
}
