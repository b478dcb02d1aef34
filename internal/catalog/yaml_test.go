package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleScenario = `
id: smoke-test
name: Smoke Test
steps:
  - id: ping
    method: GET
    url: https://api.test/ping
    expect:
      status: 200
  - id: fetch
    method: GET
    url: https://api.test/data
    dependsOn: [ping]
    extract:
      itemCount:
        from: body
        path: count
`

func TestLoadYAMLDir_ParsesScenarioFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "smoke.yaml"), []byte(sampleScenario), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadYAMLDir(dir)
	if err != nil {
		t.Fatalf("LoadYAMLDir: %v", err)
	}

	scn, ok, err := c.GetScenario(context.Background(), "smoke-test")
	if err != nil || !ok {
		t.Fatalf("expected scenario found, ok=%v err=%v", ok, err)
	}
	if len(scn.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(scn.Steps))
	}
	if scn.Steps[1].Extract["itemCount"].Path != "count" {
		t.Errorf("expected extract path 'count', got %q", scn.Steps[1].Extract["itemCount"].Path)
	}

	if _, ok, _ := c.GetScenario(context.Background(), "missing"); ok {
		t.Error("expected missing scenario to be absent")
	}
}
