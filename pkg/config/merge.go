package config

import "dario.cat/mergo"

// mergeWithDefaults merges a user-provided override struct onto a copy of the
// built-in defaults, with non-zero fields on override taking precedence.
// It never mutates defaults or override; it returns a new merged value.
func mergeWithDefaults[T any](defaults *T, override *T) (*T, error) {
	merged := *defaults
	if override == nil {
		return &merged, nil
	}
	if err := mergo.Merge(&merged, override, mergo.WithOverride); err != nil {
		return nil, err
	}
	return &merged, nil
}
