package alerting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tgberrios/datasync/internal/alerting/channel"
)

func TestDispatcherDeliversToEnabledMatchingWebhooksOnly(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.UpsertWebhook(ctx, channel.Config{Name: "all", Type: "HTTP", URL: srv.URL, Enabled: true})
	_ = store.UpsertWebhook(ctx, channel.Config{Name: "disabled", Type: "HTTP", URL: srv.URL, Enabled: false})
	_ = store.UpsertWebhook(ctx, channel.Config{
		Name: "info-only", Type: "HTTP", URL: srv.URL, Enabled: true,
		LogLevels: []string{"INFO"},
	})

	d := NewDispatcher(store)
	alert := Alert{Type: ComplianceViolation, Severity: Critical, Title: "t", Message: "m"}

	if errs := d.Dispatch(ctx, alert); len(errs) != 0 {
		t.Fatalf("dispatch errors: %v", errs)
	}
	if hits != 1 {
		t.Fatalf("hits = %d, want 1 (only 'all' should match a CRITICAL alert)", hits)
	}
}

func TestDispatcherCollectsPerSubscriberErrorsWithoutStopping(t *testing.T) {
	var okHits int
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		okHits++
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.UpsertWebhook(ctx, channel.Config{Name: "ok", Type: "HTTP", URL: ok.URL, Enabled: true})
	_ = store.UpsertWebhook(ctx, channel.Config{Name: "bad", Type: "HTTP", URL: bad.URL, Enabled: true})

	d := NewDispatcher(store)
	errs := d.Dispatch(ctx, Alert{Type: DataFreshness, Severity: Warning, Title: "t", Message: "m"})

	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly 1", errs)
	}
	if okHits != 1 {
		t.Fatalf("ok webhook hits = %d, want 1 (a failing subscriber must not block others)", okHits)
	}
}
