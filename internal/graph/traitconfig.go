package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// traitConfig is the YAML sidecar shape for `--traits traits.yaml`:
// a map from operator type name to the input index its first output may
// overlap.
type traitConfig struct {
	Overlap map[string]int `yaml:"overlap"`
}

// LoadTraitOverrides reads a YAML sidecar describing per-operator-type
// overlap hints and registers them on reg.
func LoadTraitOverrides(path string, reg *TraitRegistry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("graph: reading trait overrides %s: %w", path, err)
	}
	var cfg traitConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("graph: parsing trait overrides %s: %w", path, err)
	}
	for opType, inputIdx := range cfg.Overlap {
		reg.RegisterOverlap(opType, inputIdx)
	}
	return nil
}
