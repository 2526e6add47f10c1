package vault

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tgberrios/datasync/internal/target"
)

// hashKey is the deterministic hash primitive every Hub/Link key in this
// package is built from: the sha1 hex digest of its input values joined
// in order. Same primitive as internal/warehouse's dimKey.
func hashKey(values ...string) string {
	sum := sha1.Sum([]byte(strings.Join(values, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func businessKeyValues(row target.Row, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = fmt.Sprint(row[c])
	}
	return out
}
