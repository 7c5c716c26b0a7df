// Package config provides YAML-based configuration loading with environment variable expansion.
// JSON files load too, YAML being a superset of JSON.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when the configuration file does not exist.
var ErrNotFound = errors.New("config file not found")

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load reads filename, expands ${VAR} references, decodes the result over
// target and runs target's Validate method when it has one. Fields absent
// from the file keep the values target already holds.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}
