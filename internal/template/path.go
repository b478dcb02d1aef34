package template

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Absent is a distinguished sentinel representing "no value", distinct from
// the literal values null, "", and 0 (§4.4 requires this distinction so a
// context variable can faithfully record a missing extraction).
type Absent struct{}

// Get traverses value by a dot-separated path, mirroring the extractor's
// `$.foo.bar` → `foo.bar` convention used elsewhere in the retrieved pack.
// An empty path returns the root value unchanged. Traversal through a
// non-mapping, or a missing key anywhere along the path, yields Absent{}.
func Get(value any, path string) any {
	if path == "" {
		return value
	}

	// Prefer gjson when the value still has (or can regain) a JSON
	// representation — it is the library the retrieved pack already uses
	// for this exact dotted-path convention.
	if raw, ok := asJSONBytes(value); ok {
		result := gjson.GetBytes(raw, path)
		if !result.Exists() {
			return Absent{}
		}
		return gjsonToAny(result)
	}

	return getManual(value, path)
}

// asJSONBytes re-marshals structured Go values (maps/slices) so gjson can
// walk them; returns ok=false for already-scalar or unmarshalable values,
// in which case the caller falls back to manual map traversal.
func asJSONBytes(value any) ([]byte, bool) {
	switch value.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		return nil, false
	}
}

func gjsonToAny(r gjson.Result) any {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Num
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Null:
		return nil
	default:
		var v any
		if err := json.Unmarshal([]byte(r.Raw), &v); err != nil {
			return r.Raw
		}
		return v
	}
}

// getManual walks a decoded Go value (map[string]any chains) directly,
// for callers that already hold structured data without JSON bytes handy.
func getManual(value any, path string) any {
	segments := strings.Split(path, ".")
	current := value
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return Absent{}
		}
		v, present := m[seg]
		if !present {
			return Absent{}
		}
		current = v
	}
	return current
}
