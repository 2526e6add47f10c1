package replication

import (
	"context"
	"testing"

	"github.com/tgberrios/datasync/internal/catalog"
	"github.com/tgberrios/datasync/internal/schema"
)

func TestEffectiveChunkSize(t *testing.T) {
	if got := effectiveChunkSize(0); got != 1000 {
		t.Errorf("effectiveChunkSize(0) = %d, want 1000", got)
	}
	if got := effectiveChunkSize(-5); got != 1000 {
		t.Errorf("effectiveChunkSize(-5) = %d, want 1000", got)
	}
	if got := effectiveChunkSize(250); got != 250 {
		t.Errorf("effectiveChunkSize(250) = %d, want 250", got)
	}
}

func TestColumnNames(t *testing.T) {
	cols := []schema.ColumnInfo{{Name: "id"}, {Name: "v"}}
	got := columnNames(cols)
	if len(got) != 2 || got[0] != "id" || got[1] != "v" {
		t.Fatalf("columnNames = %v, want [id v]", got)
	}
}

func TestRunDispatchesByStatus(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemoryStore()

	t.Run("full load status runs RunFullLoad", func(t *testing.T) {
		entry := catalog.Entry{Schema: "s", Table: "full_load_tbl", Engine: "mysql", Connection: "c1", Status: catalog.FullLoad, Active: true}
		_ = store.Upsert(ctx, entry, []string{"id"}, true, 0)
		src := &fakeSource{cols: baseCols(), pk: []string{"id"}, rows: []map[string]any{{"id": 1, "v": "a"}}}
		tgt := &fakeTarget{}

		outcome, err := Run(ctx, Input{Entry: entry, Source: src, Target: tgt, Catalog: store})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if !tgt.exists {
			t.Fatal("Run with FULL_LOAD status did not create the table")
		}
		if outcome.RowsProcessed != 1 {
			t.Fatalf("RowsProcessed = %d, want 1", outcome.RowsProcessed)
		}
	})

	t.Run("listening status runs RunIncremental", func(t *testing.T) {
		entry := catalog.Entry{Schema: "s", Table: "cdc_tbl", Engine: "mysql", Connection: "c1", Status: catalog.ListeningChanges, Active: true, PKColumns: []string{"id"}}
		_ = store.Upsert(ctx, entry, []string{"id"}, true, 0)
		_ = store.UpdateSyncState(ctx, "s", "cdc_tbl", "mysql", catalog.ListeningChanges, entry.SetLastChangeID(0))
		entries, _ := store.ListEntries(ctx, "mysql", "c1")
		var loaded catalog.Entry
		for _, e := range entries {
			if e.Table == "cdc_tbl" {
				loaded = e
			}
		}

		src := &fakeSource{cols: baseCols(), pk: []string{"id"}}
		tgt := &fakeTarget{exists: true}

		outcome, err := Run(ctx, Input{Entry: loaded, Source: src, Target: tgt, Catalog: store})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if outcome.NewStatus != catalog.ListeningChanges {
			t.Fatalf("NewStatus = %v, want LISTENING_CHANGES", outcome.NewStatus)
		}
	})
}
