// Package config loads YAML configuration files. Values may reference
// environment variables with $VAR or ${VAR} syntax, expanded before parsing.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that can check themselves
// after loading.
type Validator interface {
	Validate() error
}

// Load reads filename, expands environment references, and unmarshals the
// result into target. When target implements Validator, validation runs as
// part of loading.
func Load[T any](filename string, target *T) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config %s: %w", filename, err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), target); err != nil {
		return fmt.Errorf("parse config %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate config %s: %w", filename, err)
		}
	}
	return nil
}

// MustLoad is Load for program start-up paths where a broken config file
// should abort immediately.
func MustLoad[T any](filename string, target *T) {
	if err := Load(filename, target); err != nil {
		panic(err)
	}
}
