// Package requester implements the Requester component (spec §4.3): a
// single HTTP exchange, cancellable, with a normalized Response whose
// headers are looked up case-insensitively while preserving original
// casing for reporting. Grounded in internal/steps/http.go's client/request
// construction, generalized from a step-config map to the plain interface
// the rest of the engine depends on.
package requester

import "context"

// Request is one resolved HTTP exchange ready to be performed.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the Requester's normalized result.
type Response struct {
	Status  int
	Headers Headers
	Body    any // decoded JSON value, or a string for non-JSON bodies
}

// Requester performs one HTTP request, honoring ctx cancellation so an abort
// propagates to the in-flight network operation immediately.
type Requester interface {
	Perform(ctx context.Context, req Request) (*Response, error)
}

// Headers is a case-insensitive lookup table that still remembers each
// header's original casing, so reporting (§4.5's headerEquals.<name> field)
// can echo back exactly what the caller configured while comparisons stay
// case-insensitive per §4.3/§4.5.
type Headers struct {
	original map[string]string // canonical-lower key -> original-cased key
	values   map[string]string // canonical-lower key -> value
}

// NewHeaders builds a Headers table from a raw map, e.g. net/http's
// http.Header after flattening to single values.
func NewHeaders(raw map[string]string) Headers {
	h := Headers{
		original: make(map[string]string, len(raw)),
		values:   make(map[string]string, len(raw)),
	}
	for k, v := range raw {
		lk := lower(k)
		h.original[lk] = k
		h.values[lk] = v
	}
	return h
}

// Get returns the value and whether the header is present, looked up
// case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	v, ok := h.values[lower(name)]
	return v, ok
}

// Map returns the full header mapping with original casing preserved on
// the keys, for extraction (§4.4 "from=header, no path -> full mapping").
func (h Headers) Map() map[string]string {
	out := make(map[string]string, len(h.values))
	for lk, v := range h.values {
		out[h.original[lk]] = v
	}
	return out
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
