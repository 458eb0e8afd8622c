//go:build !tinygo

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Parse decodes a YAML product and fills in defaults.
func Parse(data []byte) (*Product, error) {
	var p Product
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a YAML product file. An empty path gives Default().
func Load(path string) (*Product, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Marshal encodes p as YAML.
func Marshal(p *Product) ([]byte, error) {
	return yaml.Marshal(p)
}
