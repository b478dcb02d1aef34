package assert

import (
	"testing"

	"github.com/arsava/scenarios/internal/domain"
	"github.com/arsava/scenarios/internal/requester"
)

func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestEvaluate_EmptyExpectPasses(t *testing.T) {
	resp := &requester.Response{Status: 500}
	if got := Evaluate(nil, resp); got != nil {
		t.Errorf("expected nil/empty result, got %v", got)
	}
}

func TestEvaluate_StatusAndOrder(t *testing.T) {
	expect := &domain.Expect{
		Status:        intPtr(200),
		Blocked:       boolPtr(false),
		HeaderPresent: strPtr("X-Trace"),
	}
	resp := &requester.Response{
		Status:  200,
		Headers: requester.NewHeaders(map[string]string{"X-Trace": "1"}),
	}

	got := Evaluate(expect, resp)
	if len(got) != 3 {
		t.Fatalf("expected 3 assertion results, got %d", len(got))
	}
	wantOrder := []string{"status", "blocked", "headerPresent"}
	for i, f := range wantOrder {
		if got[i].Field != f {
			t.Errorf("position %d: expected field %q, got %q", i, f, got[i].Field)
		}
		if !got[i].Passed {
			t.Errorf("expected %q to pass, got %+v", f, got[i])
		}
	}
}

func TestEvaluate_Blocked(t *testing.T) {
	expect := &domain.Expect{Blocked: boolPtr(true)}
	resp := &requester.Response{Status: 429}
	got := Evaluate(expect, resp)
	if len(got) != 1 || !got[0].Passed {
		t.Errorf("expected blocked=true to pass for 429, got %+v", got)
	}
}

func TestEvaluate_HeaderEqualsOrderPreserved(t *testing.T) {
	expect := &domain.Expect{
		HeaderEquals:      map[string]string{"B": "2", "A": "1"},
		HeaderEqualsOrder: []string{"B", "A"},
	}
	resp := &requester.Response{
		Headers: requester.NewHeaders(map[string]string{"A": "1", "B": "2"}),
	}

	got := Evaluate(expect, resp)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Field != "headerEquals.B" || got[1].Field != "headerEquals.A" {
		t.Errorf("expected insertion order B, A; got %s, %s", got[0].Field, got[1].Field)
	}
	if !got[0].Passed || !got[1].Passed {
		t.Errorf("expected both to pass, got %+v", got)
	}
}

func TestEvaluate_BodyContains(t *testing.T) {
	expect := &domain.Expect{BodyContains: strPtr("hello")}
	resp := &requester.Response{Body: "hello world"}
	got := Evaluate(expect, resp)
	if len(got) != 1 || !got[0].Passed {
		t.Errorf("expected bodyContains to pass, got %+v", got)
	}
}
