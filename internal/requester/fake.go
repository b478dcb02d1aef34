package requester

import (
	"context"
	"sync"
)

// Fake is a scripted Requester for deterministic tests, in the spirit of
// the retrieved pack's clock.FakeClock/MockWriter test doubles. Each call
// to Perform pops the next scripted result for the request's method+URL
// (or the default script, if per-key scripts weren't supplied).
type Fake struct {
	mu sync.Mutex

	// Script, keyed by "METHOD URL", each a queue of results consumed in
	// order. Falls back to Default when a key has no queue left.
	Script  map[string][]Result
	Default []Result

	Calls []Request
}

// Result is one scripted outcome: either a Response or an error.
type Result struct {
	Response *Response
	Err      error
}

func (f *Fake) Perform(ctx context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, req)

	key := req.Method + " " + req.URL
	queue := f.Script[key]
	var next Result
	if len(queue) > 0 {
		next, queue = queue[0], queue[1:]
		if f.Script == nil {
			f.Script = map[string][]Result{}
		}
		f.Script[key] = queue
	} else if len(f.Default) > 0 {
		next, f.Default = f.Default[0], f.Default[1:]
	}

	select {
	case <-ctx.Done():
		return nil, ErrCancelled
	default:
	}

	if next.Err != nil {
		return nil, next.Err
	}
	if next.Response == nil {
		return &Response{Status: 200, Headers: NewHeaders(nil), Body: ""}, nil
	}
	return next.Response, nil
}

// CallCount returns the number of times Perform was invoked.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
