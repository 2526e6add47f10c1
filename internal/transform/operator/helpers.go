// Package operator implements the 16 transformation-pipeline operators
// and RegisterAll, which wires every one of them into a
// transform.Registry. Each operator follows the same
// validate-config/execute-rows shape the engine's Operator interface
// requires; none holds a reference into its input rows past return, so
// the engine may reuse input memory freely.
package operator

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/tgberrios/datasync/internal/transform"
)

// RegisterAll registers every operator implementation into r.
func RegisterAll(r *transform.Registry) {
	r.Register(&Aggregate{})
	r.Register(&Join{})
	r.Register(&Union{})
	r.Register(&Sort{})
	r.Register(&Rank{})
	r.Register(&WindowFunctions{})
	r.Register(&Expression{})
	r.Register(&Lookup{})
	r.Register(&Router{})
	r.Register(&Deduplication{})
	r.Register(&DataCleansing{})
	r.Register(&DataValidation{})
	r.Register(&Normalizer{})
	r.Register(&SequenceGenerator{})
	r.Register(&JSONParser{})
	r.Register(&Geolocation{})
}

func configString(cfg map[string]any, key string) (string, bool) {
	v, ok := cfg[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func configStringSlice(cfg map[string]any, key string) []string {
	v, ok := cfg[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func configFloat(cfg map[string]any, key string, def float64) float64 {
	v, ok := cfg[key]
	if !ok {
		return def
	}
	switch vv := v.(type) {
	case float64:
		return vv
	case int:
		return float64(vv)
	case int64:
		return float64(vv)
	default:
		return def
	}
}

func configInt(cfg map[string]any, key string, def int) int {
	return int(configFloat(cfg, key, float64(def)))
}

// asFloat attempts to interpret v as a float64, used by numeric
// aggregations and sort comparisons. ok is false for nil, non-numeric
// strings, and unsupported types.
func asFloat(v any) (float64, bool) {
	switch vv := v.(type) {
	case float64:
		return vv, true
	case float32:
		return float64(vv), true
	case int:
		return float64(vv), true
	case int32:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case string:
		f, err := strconv.ParseFloat(vv, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// serialize renders v as a comparison-stable string for non-numeric sort
// and signature keys.
func serialize(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// sortKeys is a small helper so deterministic-order tests reading a
// grouped map don't depend on Go's randomized map iteration order.
func sortKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}

// isBlank reports whether v is nil or an empty string.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}
