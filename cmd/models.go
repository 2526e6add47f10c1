package cmd

import (
	"fmt"

	"github.com/tgberrios/datasync/internal/vault"
	"github.com/tgberrios/datasync/internal/warehouse"
)

// warehouseModels is the deployment's named dimensional build targets.
// Each entry is a declarative warehouse.Model the build-warehouse verb
// looks up by name; operators add an entry here per warehouse they want
// buildable from the CLI, the same "extend a Go map, don't template a
// config DSL" idiom the teacher applies to its ddlMatrix rule table.
var warehouseModels = map[string]warehouse.Model{
	"sales": {
		Name:       "sales",
		GoldSchema: "gold_sales",
		Sources: []warehouse.SilverSource{
			{RawSchema: "public", RawTable: "customers", SilverSchema: "silver", SilverTable: "customers"},
			{RawSchema: "public", RawTable: "products", SilverSchema: "silver", SilverTable: "products"},
			{RawSchema: "public", RawTable: "orders", SilverSchema: "silver", SilverTable: "orders"},
		},
		Dimensions: []warehouse.DimensionTable{
			{
				Name:           "dim_customer",
				SilverSchema:   "silver",
				SilverTable:    "customers",
				BusinessKeys:   []string{"customer_id"},
				TrackedColumns: []string{"name", "email", "region"},
				SCD:            warehouse.SCD2,
			},
			{
				Name:           "dim_product",
				SilverSchema:   "silver",
				SilverTable:    "products",
				BusinessKeys:   []string{"product_id"},
				TrackedColumns: []string{"name", "category", "price"},
				SCD:            warehouse.SCD1,
			},
		},
		Facts: []warehouse.FactTable{
			{
				Name:         "fact_orders",
				SilverSchema: "silver",
				SilverTable:  "orders",
				Refs: []warehouse.DimensionRef{
					{Dimension: "dim_customer", BusinessKeys: []string{"customer_id"}},
					{Dimension: "dim_product", BusinessKeys: []string{"product_id"}},
				},
				Measures: []string{"quantity", "total_amount"},
			},
		},
	},
}

// vaultModels is the deployment's named Data Vault build targets,
// mirroring warehouseModels' "edit the Go map" idiom.
var vaultModels = map[string]vault.Model{
	"sales": {
		Name:       "sales",
		GoldSchema: "vault_sales",
		Hubs: []vault.HubTable{
			{Name: "hub_customer", SilverSchema: "silver", SilverTable: "customers", BusinessKeys: []string{"customer_id"}},
			{Name: "hub_product", SilverSchema: "silver", SilverTable: "products", BusinessKeys: []string{"product_id"}},
		},
		Links: []vault.LinkTable{
			{
				Name:         "link_order",
				SilverSchema: "silver",
				SilverTable:  "orders",
				Refs: []vault.LinkHubRef{
					{Hub: "hub_customer", BusinessKeys: []string{"customer_id"}},
					{Hub: "hub_product", BusinessKeys: []string{"product_id"}},
				},
			},
		},
		Satellites: []vault.SatelliteTable{
			{
				Name:               "sat_customer_profile",
				SilverSchema:       "silver",
				SilverTable:        "customers",
				ParentKind:         vault.ParentHub,
				ParentName:         "hub_customer",
				ParentBusinessKeys: []string{"customer_id"},
				DescriptiveColumns: []string{"name", "email", "region"},
				IsHistorized:       true,
			},
		},
	},
}

func warehouseModelByName(name string) (warehouse.Model, error) {
	m, ok := warehouseModels[name]
	if !ok {
		return warehouse.Model{}, fmt.Errorf("%w: no warehouse model named %q", errMisconfiguration, name)
	}
	return m, nil
}

func vaultModelByName(name string) (vault.Model, error) {
	m, ok := vaultModels[name]
	if !ok {
		return vault.Model{}, fmt.Errorf("%w: no vault model named %q", errMisconfiguration, name)
	}
	return m, nil
}
