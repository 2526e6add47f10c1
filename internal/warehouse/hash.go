package warehouse

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tgberrios/datasync/internal/target"
)

// dimKey is a dimension's surrogate key: the sha1 hex digest of its
// business key values joined in declaration order. Same primitive as
// internal/vault's hub hash, applied here to give fact tables a stable
// join column independent of the natural key's own type or width.
func dimKey(row target.Row, businessKeys []string) string {
	parts := make([]string, len(businessKeys))
	for i, k := range businessKeys {
		parts[i] = fmt.Sprint(row[k])
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}
