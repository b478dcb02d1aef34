package template

import "testing"

func TestGet_NestedPath(t *testing.T) {
	value := map[string]any{
		"access_token": "jwt-abc-123",
		"user": map[string]any{
			"id": "u1",
		},
	}

	if got := Get(value, "access_token"); got != "jwt-abc-123" {
		t.Errorf("got %v", got)
	}
	if got := Get(value, "user.id"); got != "u1" {
		t.Errorf("got %v", got)
	}
}

func TestGet_MissingKeyIsAbsent(t *testing.T) {
	value := map[string]any{"a": map[string]any{"b": 1}}
	got := Get(value, "a.missing")
	if _, ok := got.(Absent); !ok {
		t.Errorf("expected Absent, got %v (%T)", got, got)
	}
}

func TestGet_TraversalThroughNonMappingIsAbsent(t *testing.T) {
	value := map[string]any{"a": "scalar"}
	got := Get(value, "a.b")
	if _, ok := got.(Absent); !ok {
		t.Errorf("expected Absent, got %v (%T)", got, got)
	}
}

func TestGet_EmptyPathReturnsRoot(t *testing.T) {
	value := map[string]any{"a": 1}
	got := Get(value, "")
	m, ok := got.(map[string]any)
	if !ok || m["a"] != 1 {
		t.Errorf("expected root value back, got %v", got)
	}
}
