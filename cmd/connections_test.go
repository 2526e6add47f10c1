package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/tgberrios/datasync/internal/config"
	srcstub "github.com/tgberrios/datasync/internal/source/stub"
	tgtstub "github.com/tgberrios/datasync/internal/target/stub"
)

func TestPostgresDSN(t *testing.T) {
	c := config.Connection{
		Name: "meta", Engine: "postgres", Host: "db.internal", Port: 5432,
		Database: "datasync_meta", User: "svc",
	}
	dsn := postgresDSN(c)
	for _, want := range []string{"postgres://svc", "db.internal:5432", "datasync_meta", "sslmode=disable"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn %q should contain %q", dsn, want)
		}
	}
}

func TestPostgresDSN_ExplicitSSLMode(t *testing.T) {
	c := config.Connection{Name: "meta", Engine: "postgres", Host: "h", Port: 5432, Database: "d", User: "u", SSLMode: "require"}
	if dsn := postgresDSN(c); !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("dsn %q should honor explicit sslmode", dsn)
	}
}

func TestOpenSource_UnknownEngineReturnsStub(t *testing.T) {
	eng, err := openSource(context.Background(), config.Connection{Name: "legacy", Engine: "oracle"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stub, ok := eng.(*srcstub.Engine)
	if !ok {
		t.Fatalf("expected *srcstub.Engine, got %T", eng)
	}
	if stub.Dialect != "oracle" {
		t.Errorf("stub.Dialect = %q, want %q", stub.Dialect, "oracle")
	}
}

func TestOpenTarget_UnknownEngineReturnsStub(t *testing.T) {
	eng, err := openTarget(context.Background(), config.Connection{Name: "legacy", Engine: "snowflake"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stub, ok := eng.(*tgtstub.Engine)
	if !ok {
		t.Fatalf("expected *tgtstub.Engine, got %T", eng)
	}
	if stub.Dialect != "snowflake" {
		t.Errorf("stub.Dialect = %q, want %q", stub.Dialect, "snowflake")
	}
}

func TestCliConnectionOpener_UnknownConnection(t *testing.T) {
	cfg := &config.Config{}
	opener := cliConnectionOpener{cfg: cfg}

	if _, err := opener.OpenSource(context.Background(), "missing"); err == nil {
		t.Error("expected an error for an unknown source connection")
	}
	if _, err := opener.OpenTarget(context.Background(), "missing"); err == nil {
		t.Error("expected an error for an unknown target connection")
	}
}

func TestOpenMetadataPool_RequiresPostgresEngine(t *testing.T) {
	cfg := &config.Config{
		MetadataConnection: "meta",
		Connections: []config.Connection{
			{Name: "meta", Engine: "mysql", Host: "h", Port: 3306, Database: "d", User: "u"},
		},
	}
	if _, err := openMetadataPool(context.Background(), cfg); err == nil {
		t.Error("expected an error when metadata_connection engine is not postgres")
	}
}

func TestOpenMetadataPool_UnknownConnection(t *testing.T) {
	cfg := &config.Config{MetadataConnection: "missing"}
	if _, err := openMetadataPool(context.Background(), cfg); err == nil {
		t.Error("expected an error when metadata_connection is not found")
	}
}
