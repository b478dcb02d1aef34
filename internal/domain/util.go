package domain

import (
	"encoding/json"
	"fmt"
)

// jsonOrFallback renders v as JSON text, falling back to fmt's default
// verb when v isn't marshalable (should not happen for response-derived
// values, but keeps this a total function).
func jsonOrFallback(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
