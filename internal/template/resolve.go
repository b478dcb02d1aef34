// Package template implements the Template Resolver and Path Accessor
// (spec §4.1, §4.2). It is deliberately not built on text/template: Go's
// template engine errors on an undefined map key, but the resolution rule
// here requires a silent pass-through of any unresolved {{name}} token. The
// regex-driven substitution shape is adapted from the retrieved pack's
// ${var} resolver rather than from the teacher's Go-template-based one.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"time"
)

var tokenPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Builtin computes a reserved name's value fresh on every invocation.
type Builtin func() string

// Builtins is the default registry of reserved names (§4.1 rule 1).
func Builtins() map[string]Builtin {
	return map[string]Builtin{
		"random":    randomToken,
		"random_ip": randomIP,
		"timestamp": timestamp,
	}
}

// Resolve substitutes every {{name}} occurrence in tmpl. Resolution order
// per occurrence:
//  1. name is a reserved builtin → fresh value.
//  2. name is present in ctx → String(value).
//  3. otherwise → the literal {{name}} is left untouched.
func Resolve(tmpl string, ctx map[string]any, builtins map[string]Builtin) string {
	return tokenPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := tokenPattern.FindStringSubmatch(match)[1]

		if b, ok := builtins[name]; ok {
			return b()
		}
		if v, ok := ctx[name]; ok {
			return String(v)
		}
		return match
	})
}

// ResolveHeaders resolves every header value in place, returning a new map.
func ResolveHeaders(headers map[string]string, ctx map[string]any, builtins map[string]Builtin) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = Resolve(v, ctx, builtins)
	}
	return out
}

// ResolveBody applies §4.1's "serialize to JSON text, substitute, convey as
// bytes" rule for structured bodies, and plain Resolve for raw text bodies.
// The returned bool reports whether the body was structured (informational
// only; callers send the bytes either way).
func ResolveBody(raw *string, structured any, ctx map[string]any, builtins map[string]Builtin) ([]byte, bool, error) {
	if raw != nil {
		return []byte(Resolve(*raw, ctx, builtins)), false, nil
	}
	if structured == nil {
		return nil, false, nil
	}
	serialized, err := json.Marshal(structured)
	if err != nil {
		return nil, true, fmt.Errorf("serialize structured body: %w", err)
	}
	return []byte(Resolve(string(serialized), ctx, builtins)), true, nil
}

// String renders a context value the way §4.1 requires: numbers
// decimalized, booleans as true/false, objects in their JSON form.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

const randomTokenLength = 12

func randomToken() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	out := make([]byte, randomTokenLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand failure is not recoverable in a way the resolver
			// can surface (Resolve has no error return); fall back to a
			// fixed-but-still-valid token rather than panicking mid-request.
			out[i] = alphabet[0]
			continue
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out)
}

func randomIP() string {
	octet := func() int64 {
		n, err := rand.Int(rand.Reader, big.NewInt(255))
		if err != nil {
			return 1
		}
		return n.Int64() + 1
	}
	return fmt.Sprintf("%d.%d.%d.%d", octet(), octet(), octet(), octet())
}

func timestamp() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
