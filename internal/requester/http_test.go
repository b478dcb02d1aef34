package requester

import "testing"

func TestHeaders_CaseInsensitiveLookupOriginalCasing(t *testing.T) {
	h := NewHeaders(map[string]string{"Content-Type": "application/json"})

	v, ok := h.Get("content-type")
	if !ok || v != "application/json" {
		t.Fatalf("expected case-insensitive hit, got %q ok=%v", v, ok)
	}

	m := h.Map()
	if _, ok := m["Content-Type"]; !ok {
		t.Errorf("expected original casing preserved in Map(), got %v", m)
	}
}

func TestDecodeBody_JSONContentType(t *testing.T) {
	body := decodeBody("application/json; charset=utf-8", []byte(`{"items":[]}`))
	m, ok := body.(map[string]any)
	if !ok {
		t.Fatalf("expected decoded map, got %T", body)
	}
	if _, ok := m["items"]; !ok {
		t.Errorf("expected items key, got %v", m)
	}
}

func TestDecodeBody_NonJSONFallsBackToText(t *testing.T) {
	body := decodeBody("text/plain", []byte("hello"))
	if body != "hello" {
		t.Errorf("got %v", body)
	}
}
