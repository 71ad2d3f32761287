package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads and parses path, assigns each Target's ID and validates
// the result eagerly (bad schedule, missing keys) before returning it.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		t.ID = fmt.Sprintf("%d-%s-%s", i, t.Gateway, t.Discovery)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
