package operator

import (
	"context"
	"fmt"

	"github.com/tgberrios/datasync/internal/transform"
)

// Normalizer unpivots: each row's value_columns explode into that many
// output rows, each carrying a key_column (the original column name)
// and a value_column (its value), alongside all non-listed columns
// preserved unchanged.
type Normalizer struct{}

func (Normalizer) TypeName() string { return "normalizer" }

func (Normalizer) Validate(cfg map[string]any) error {
	if len(configStringSlice(cfg, "value_columns")) == 0 {
		return fmt.Errorf("normalizer: value_columns must be a non-empty list")
	}
	return nil
}

func (Normalizer) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	valueColumns := configStringSlice(cfg, "value_columns")
	keyCol, _ := configString(cfg, "key_column")
	if keyCol == "" {
		keyCol = "key"
	}
	valCol, _ := configString(cfg, "value_column")
	if valCol == "" {
		valCol = "value"
	}

	exploded := map[string]bool{}
	for _, c := range valueColumns {
		exploded[c] = true
	}

	var out []transform.Row
	for _, r := range rows {
		for _, col := range valueColumns {
			nr := transform.Row{}
			for k, v := range r {
				if !exploded[k] {
					nr[k] = v
				}
			}
			nr[keyCol] = col
			nr[valCol] = r[col]
			out = append(out, nr)
		}
	}
	return out, nil
}
