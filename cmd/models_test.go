package cmd

import "testing"

func TestWarehouseModelByName(t *testing.T) {
	m, err := warehouseModelByName("sales")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "sales" || len(m.Dimensions) != 2 || len(m.Facts) != 1 {
		t.Errorf("unexpected sales model shape: %+v", m)
	}

	if _, err := warehouseModelByName("does-not-exist"); err == nil {
		t.Error("expected an error for an unknown warehouse model")
	}
}

func TestVaultModelByName(t *testing.T) {
	m, err := vaultModelByName("sales")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "sales" || len(m.Hubs) != 2 || len(m.Links) != 1 || len(m.Satellites) != 1 {
		t.Errorf("unexpected sales vault model shape: %+v", m)
	}

	if _, err := vaultModelByName("does-not-exist"); err == nil {
		t.Error("expected an error for an unknown vault model")
	}
}
