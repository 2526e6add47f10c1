package processlog

import (
	"context"
	"errors"
	"testing"
)

func TestStartThenFinishSuccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	runID, err := s.Start(ctx, "warehouse:sales_star", map[string]any{"layer": "GOLD"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	if err := s.Finish(ctx, runID, Success, 42, ""); err != nil {
		t.Fatalf("finish: %v", err)
	}

	records, err := s.ListByEntity(ctx, "warehouse:sales_star")
	if err != nil || len(records) != 1 {
		t.Fatalf("list: %v %v", records, err)
	}
	if records[0].Status != Success || records[0].RowsProcessed != 42 {
		t.Fatalf("record = %+v, want Status=SUCCESS RowsProcessed=42", records[0])
	}
	if records[0].FinishedAt.IsZero() {
		t.Fatal("finished_at should be stamped")
	}
}

func TestFinishRejectsAlreadyFinishedRun(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	runID, _ := s.Start(ctx, "vault:customer_hub", nil)
	if err := s.Finish(ctx, runID, Success, 1, ""); err != nil {
		t.Fatalf("first finish: %v", err)
	}
	if err := s.Finish(ctx, runID, Failed, 1, "double finish"); err == nil {
		t.Fatal("expected error finishing an already-finished run")
	}
}

func TestFinishUnknownRunErrors(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Finish(context.Background(), "nonexistent", Success, 0, ""); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestRunRecordsSuccessAndFailure(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := Run(ctx, s, "warehouse:sales_star", nil, func(ctx context.Context) (int64, error) {
		return 10, nil
	})
	if err != nil {
		t.Fatalf("Run (success path): %v", err)
	}

	boom := errors.New("build failed")
	err = Run(ctx, s, "warehouse:sales_star", nil, func(ctx context.Context) (int64, error) {
		return 0, boom
	})
	if err != boom {
		t.Fatalf("Run (failure path) error = %v, want %v", err, boom)
	}

	records, _ := s.ListByEntity(ctx, "warehouse:sales_star")
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	var sawSuccess, sawFailed bool
	for _, r := range records {
		switch r.Status {
		case Success:
			sawSuccess = true
			if r.RowsProcessed != 10 {
				t.Errorf("success rows = %d, want 10", r.RowsProcessed)
			}
		case Failed:
			sawFailed = true
			if r.Error != "build failed" {
				t.Errorf("failed error = %q, want %q", r.Error, "build failed")
			}
		}
	}
	if !sawSuccess || !sawFailed {
		t.Fatalf("expected one SUCCESS and one FAILED record, got %+v", records)
	}
}
