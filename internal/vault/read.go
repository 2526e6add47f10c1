package vault

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/target"
)

// readTable is a full unfiltered read of one table. Same shape as
// internal/warehouse's helper of the same name; duplicated rather than
// shared since the two packages are built as independent siblings.
func readTable(ctx context.Context, t target.Engine, schemaName, table string) ([]target.Row, error) {
	return t.ExecuteQuery(ctx, fmt.Sprintf("SELECT * FROM %s.%s",
		t.QuoteIdentifier(schemaName), t.QuoteIdentifier(table)))
}
