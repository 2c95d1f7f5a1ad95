package rules

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a strategy file. Missing file is an error;
// missing values fall back to Default().
func Load(path string) (StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StrategyConfig{}, fmt.Errorf("read strategy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes strategy YAML with strict key checking over the defaults.
func Parse(data []byte) (StrategyConfig, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return StrategyConfig{}, fmt.Errorf("parse strategy yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return StrategyConfig{}, err
	}
	return cfg, nil
}
