package operator

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/transform"
)

// SequenceGenerator assigns a monotonically increasing integer to
// target_column, starting at start_value (default 1) and stepping by
// increment (default 1), in input row order.
type SequenceGenerator struct{}

func (SequenceGenerator) TypeName() string { return "sequence_generator" }

func (SequenceGenerator) Validate(cfg map[string]any) error {
	if _, ok := configString(cfg, "target_column"); !ok {
		return fmt.Errorf("sequence_generator: target_column is required")
	}
	return nil
}

func (SequenceGenerator) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	target, _ := configString(cfg, "target_column")
	start := configInt(cfg, "start_value", 1)
	increment := configInt(cfg, "increment", 1)

	out := make([]transform.Row, len(rows))
	next := start
	for i, r := range rows {
		nr := cloneRow(r)
		nr[target] = next
		next += increment
		out[i] = nr
	}
	return out, nil
}
