package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/arsava/scenarios/internal/domain"
)

// YAML is a reference Catalog that loads every *.yaml/*.yml file in a
// directory once at construction, keyed by the scenario's own id field.
// File-reading-then-yaml.Unmarshal is grounded in Mulder90-maestro's
// config.LoadConfig.
type YAML struct {
	mu        sync.RWMutex
	scenarios map[string]*domain.Scenario
}

// LoadYAMLDir builds a YAML Catalog from every scenario file in dir.
func LoadYAMLDir(dir string) (*YAML, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read dir %q: %w", dir, err)
	}

	c := &YAML{scenarios: make(map[string]*domain.Scenario)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		scn, err := loadScenarioFile(path)
		if err != nil {
			return nil, err
		}
		c.scenarios[scn.ID] = scn
	}
	return c, nil
}

func loadScenarioFile(path string) (*domain.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading scenario file %q: %w", path, err)
	}

	var w wireScenario
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("catalog: parsing scenario file %q: %w", path, err)
	}

	return w.toDomain(), nil
}

// GetScenario implements facade.Catalog.
func (c *YAML) GetScenario(_ context.Context, id string) (*domain.Scenario, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	scn, ok := c.scenarios[id]
	return scn, ok, nil
}

// Put registers or replaces a scenario in memory, for tests and for
// hot-loading a freshly authored scenario without a restart.
func (c *YAML) Put(scn *domain.Scenario) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenarios[scn.ID] = scn
}
