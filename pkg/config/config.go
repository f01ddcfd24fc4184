// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that can check themselves.
type Validator interface {
	Validate() error
}

// Load reads filename, expands ${VAR} references and unmarshals the YAML into
// target. Fields absent from the file keep the values target already holds.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return Decode(filename, data, target)
}

// Decode is Load for data that has already been read.
func Decode[T any](name string, data []byte, target *T) error {
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", name, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// LoadOptional is Load, except that a missing file leaves target untouched
// and reports found == false. Target is still validated in that case.
func LoadOptional[T any](filename string, target *T) (found bool, err error) {
	if filename == "" {
		return false, validate(target)
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return false, validate(target)
	}
	return true, Load(filename, target)
}

func validate[T any](target *T) error {
	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}
